package livestreamRoutes

import (
	controllers "github.com/roxas19/DRP/controllers/livestream"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	validators "github.com/roxas19/DRP/validators/livestream"

	"github.com/gofiber/fiber/v2"
)

func SetupLivestreamRoutes(app *fiber.App) {
	group := app.Group("/ytlive")

	// Platform channel link
	group.Get("/oauth", controllers.YouTubeAuth)
	group.Get("/oauth/callback", controllers.YouTubeCallback)

	streams := group.Group("/livestreams", middleware.JWTMiddleware)
	streams.Post("/", middleware.RequireRole(models.RoleInstructor), validators.Create(), controllers.CreateLivestream)
	streams.Get("/course/:course_id", validators.CourseParam(), controllers.CourseLivestreams)
	streams.Get("/:id", validators.IDParam(), controllers.LivestreamDetail)
	streams.Post("/:id/start", middleware.RequireRole(models.RoleInstructor), validators.IDParam(), controllers.StartLivestream)
	streams.Post("/:id/end", middleware.RequireRole(models.RoleInstructor), validators.IDParam(), controllers.EndLivestream)
}
