package controllers

import (
	"log"

	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/utils"
	courseValidator "github.com/roxas19/DRP/validators/course"

	"github.com/gofiber/fiber/v2"
)

// ListEnrollments returns the caller's enrollments with their courses.
func ListEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollments []models.Enrollment
	err := database.Database.Db.
		Preload("Course").
		Where("student_id = ?", userID).
		Order("enrolled_on desc").
		Find(&enrollments).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully.", enrollments)
}

func CreateEnrollment(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedEnrollment").(*courseValidator.EnrollmentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	enrollment, err := completionService().Enroll(c.UserContext(), user, reqData.CourseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	course, err := findCourse(database.Database.Db, enrollment.CourseID)
	if err == nil {
		enrollment.Course = course
		if Mailer != nil {
			utils.SendEnrollmentEmail(Mailer, user.Email, user.Name, course.Title)
		}
	}
	log.Printf("[ENROLLMENT] user %d enrolled in course %d", user.ID, enrollment.CourseID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", enrollment)
}
