package userProfileRoutes

import (
	userProfileController "github.com/roxas19/DRP/controllers/userControllers"
	"github.com/roxas19/DRP/middleware"
	userProfileValidator "github.com/roxas19/DRP/validators/userValidator"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/user", middleware.JWTMiddleware)

	userGroup.Get("/profile", userProfileController.GetProfile)
	userGroup.Put("/profile", userProfileValidator.UpdateProfile(), userProfileController.UpdateProfile)
	userGroup.Delete("/profile/instructor", userProfileController.DeleteInstructorProfile)
}
