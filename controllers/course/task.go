package controllers

import (
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/services/access"
	courseValidator "github.com/roxas19/DRP/validators/course"

	"github.com/gofiber/fiber/v2"
)

func ListTasks(c *fiber.Ctx) error {
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

	tasks, err := completionService().ListTasks(c.UserContext(), user.ID, module.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tasks fetched successfully.", tasks)
}

func CreateTask(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedTask").(*courseValidator.TaskRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	module, err := findModule(database.Database.Db, localUint(c, "course_id"), localUint(c, "week"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	task, err := completionService().CreateTask(c.UserContext(), user, module.ID, reqData.Title, reqData.Description)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Task created successfully.", task)
}

func UpdateTask(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedTask").(*courseValidator.TaskRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db
	courseID := localUint(c, "course_id")
	if err := access.RequireInstructor(db, user, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	module, err := findModule(db, courseID, localUint(c, "week"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	task, err := findTask(db, module.ID, localUint(c, "task_id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	task.Title = reqData.Title
	task.Description = reqData.Description
	if err := db.Model(task).Select("title", "description").Updates(task).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Task updated successfully.", task)
}

func DeleteTask(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	db := database.Database.Db
	module, err := findModule(db, localUint(c, "course_id"), localUint(c, "week"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	task, err := findTask(db, module.ID, localUint(c, "task_id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	if err := completionService().DeleteTask(c.UserContext(), user, task.ID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Task deleted successfully.", nil)
}

// SetTaskStatus marks the task completed or not for the caller and returns
// the refreshed week and enrollment state.
func SetTaskStatus(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedTaskStatus").(*courseValidator.TaskStatusRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db
	module, err := findModule(db, localUint(c, "course_id"), localUint(c, "week"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	task, err := findTask(db, module.ID, localUint(c, "task_id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	result, err := completionService().ToggleTaskCompletion(c.UserContext(), user, task.ID, *reqData.Completed)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Task status updated.", result)
}
