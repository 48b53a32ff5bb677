package authRoutes

import (
	authControllers "github.com/roxas19/DRP/controllers/auth"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/validators"
	authValidators "github.com/roxas19/DRP/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidators.Signup(), authControllers.Signup)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Get("/login-history", middleware.JWTMiddleware, validators.Paginate(), authControllers.LoginHistoryList)
}
