package controllers

import (
	"github.com/roxas19/DRP/apperror"
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/services/completion"
	"github.com/roxas19/DRP/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Mailer delivers enrollment confirmations. Nil disables them.
var Mailer utils.Mailer

func completionService() *completion.Service {
	return completion.New(database.Database.Db)
}

// requireUser returns the authenticated user or writes a 401.
func requireUser(c *fiber.Ctx) (*models.User, error) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return nil, middleware.ErrorResponse(c, err)
	}
	if user == nil {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	return user, nil
}

func findCourse(db *gorm.DB, courseID uint) (*models.Course, error) {
	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		return nil, apperror.FromDB(err, "Course")
	}
	return &course, nil
}

func findModule(db *gorm.DB, courseID, week uint) (*models.WeeklyModule, error) {
	var module models.WeeklyModule
	if err := db.Where("course_id = ? AND week_order = ?", courseID, week).First(&module).Error; err != nil {
		return nil, apperror.FromDB(err, "Weekly module")
	}
	return &module, nil
}

func findTask(db *gorm.DB, moduleID, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := db.Where("id = ? AND module_id = ?", taskID, moduleID).First(&task).Error; err != nil {
		return nil, apperror.FromDB(err, "Task")
	}
	return &task, nil
}

func findResource(db *gorm.DB, moduleID, resourceID uint) (*models.Resource, error) {
	var resource models.Resource
	if err := db.Where("id = ? AND module_id = ?", resourceID, moduleID).First(&resource).Error; err != nil {
		return nil, apperror.FromDB(err, "Resource")
	}
	return &resource, nil
}

func localUint(c *fiber.Ctx, key string) uint {
	v, _ := c.Locals(key).(uint)
	return v
}
