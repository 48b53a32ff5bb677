package discussionRoutes

import (
	controllers "github.com/roxas19/DRP/controllers/discussion"
	"github.com/roxas19/DRP/middleware"
	validators "github.com/roxas19/DRP/validators/discussion"

	"github.com/gofiber/fiber/v2"
)

func SetupDiscussionRoutes(app *fiber.App) {
	group := app.Group("/discussions", middleware.JWTMiddleware)

	// Posts; detail must be registered before /posts/:course_id/:week
	group.Get("/posts/:id/detail", validators.IDParam(), controllers.PostDetail)
	group.Get("/posts/:course_id/:week", validators.CourseWeekParams(), validators.Paginate(), controllers.ListPosts)
	group.Post("/posts", validators.Post(), controllers.CreatePost)
	group.Patch("/posts/:id/edit", validators.IDParam(), validators.PostEdit(), controllers.EditPost)
	group.Delete("/posts/:id/delete", validators.IDParam(), controllers.DeletePost)
	group.Post("/posts/:id/flag", validators.IDParam(), controllers.FlagPost)

	// Comments
	group.Post("/comments", validators.Comment(), controllers.CreateComment)
	group.Patch("/comments/:id/edit", validators.IDParam(), validators.CommentEdit(), controllers.EditComment)
	group.Delete("/comments/:id/delete", validators.IDParam(), controllers.DeleteComment)
	group.Post("/comments/:id/flag", validators.IDParam(), controllers.FlagComment)

	// Moderation (course instructors)
	group.Get("/moderation/posts/:id/comments", validators.IDParam(), controllers.ModerationComments)
	group.Get("/moderation/:course_id", validators.CourseParam(), validators.ModerationPage(), controllers.ModerationPosts)
	group.Patch("/moderation/reset_flags/:kind/:id", validators.Target(), controllers.ResetFlags)
	group.Patch("/moderation/toggle_hidden/:kind/:id", validators.Target(), controllers.ToggleHidden)
}
