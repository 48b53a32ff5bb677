package controllers

import (
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/services/access"

	"github.com/gofiber/fiber/v2"
)

func ListModules(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	db := database.Database.Db
	course, err := findCourse(db, localUint(c, "course_id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := access.RequireEnrolled(db, user, course.ID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	var modules []models.WeeklyModule
	if err := db.Where("course_id = ?", course.ID).Order("week_order asc").Find(&modules).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := completionService().DecorateModules(c.UserContext(), user.ID, course.ID, modules); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Weekly modules fetched successfully.", modules)
}

// GetModule returns one week with its tasks (completion state for the
// caller) and resources.
func GetModule(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	db := database.Database.Db
	courseID := localUint(c, "course_id")
	if err := access.RequireEnrolled(db, user, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	module, err := findModule(db, courseID, localUint(c, "week"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := db.Where("module_id = ?", module.ID).Order("id asc").Find(&module.Resources).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}

	svc := completionService()
	modules := []models.WeeklyModule{*module}
	if err := svc.DecorateModules(c.UserContext(), user.ID, courseID, modules); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	tasks, err := svc.ListTasks(c.UserContext(), user.ID, module.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Weekly module fetched successfully.", fiber.Map{
		"module": modules[0],
		"tasks":  tasks,
	})
}
