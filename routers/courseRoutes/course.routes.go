package courseRoutes

import (
	controllers "github.com/roxas19/DRP/controllers/course"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	validators "github.com/roxas19/DRP/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up catalog, weekly module, task, resource and
// enrollment routes
func SetupCourseRoutes(app *fiber.App) {
	// Catalog (public)
	app.Get("/categories", controllers.ListCategories)
	app.Get("/categories/:name", controllers.GetCategory)

	courseGroup := app.Group("/courses")
	courseGroup.Get("/", controllers.ListCourses)
	courseGroup.Get("/category/:name", controllers.CoursesByCategory)
	courseGroup.Get("/:course_id", middleware.OptionalJWTMiddleware, validators.CourseParam(), controllers.GetCourse)

	app.Get("/instructor/courses", middleware.JWTMiddleware, middleware.RequireRole(models.RoleInstructor), controllers.InstructorCourses)

	// Weekly modules (enrolled users and instructors)
	moduleGroup := courseGroup.Group("/:course_id/modules", middleware.JWTMiddleware)
	moduleGroup.Get("/", validators.CourseParam(), controllers.ListModules)
	moduleGroup.Get("/:week", validators.ModuleParams(), controllers.GetModule)

	// Tasks
	moduleGroup.Get("/:week/tasks", validators.ModuleParams(), controllers.ListTasks)
	moduleGroup.Post("/:week/tasks/create", validators.ModuleParams(), validators.Task(), controllers.CreateTask)
	moduleGroup.Put("/:week/tasks/:task_id", validators.TaskParams(), validators.Task(), controllers.UpdateTask)
	moduleGroup.Delete("/:week/tasks/:task_id/delete", validators.TaskParams(), controllers.DeleteTask)
	moduleGroup.Patch("/:week/tasks/:task_id/status", validators.TaskParams(), validators.TaskStatus(), controllers.SetTaskStatus)

	// Resources
	moduleGroup.Get("/:week/resources", validators.ModuleParams(), controllers.ListResources)
	moduleGroup.Post("/:week/resources/create", validators.ModuleParams(), validators.Resource(true), controllers.CreateResource)
	moduleGroup.Put("/:week/resources/:resource_id", validators.ResourceParams(), validators.Resource(false), controllers.UpdateResource)
	moduleGroup.Delete("/:week/resources/:resource_id/delete", validators.ResourceParams(), controllers.DeleteResource)

	// Enrollments
	enrollGroup := app.Group("/enrollments", middleware.JWTMiddleware)
	enrollGroup.Get("/", controllers.ListEnrollments)
	enrollGroup.Post("/create", validators.Enrollment(), controllers.CreateEnrollment)
}
