package controllers

import (
	"log"
	"strings"

	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/services/access"
	"github.com/roxas19/DRP/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ListCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := database.Database.Db.Order("name asc").Find(&categories).Error; err != nil {
		log.Printf("[CATALOG] Error fetching categories: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch categories!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Categories fetched successfully.", categories)
}

// GetCategory looks a category up by slug, case-insensitively.
func GetCategory(c *fiber.Ctx) error {
	name := strings.ToLower(utils.NameFromSlug(c.Params("name")))
	var category models.Category
	if err := database.Database.Db.Where("LOWER(name) = ?", name).First(&category).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Category not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Category fetched successfully.", category)
}

func ListCourses(c *fiber.Ctx) error {
	var courses []models.Course
	err := database.Database.Db.
		Preload("Category").
		Preload("Instructors").
		Order("created_at desc, id desc").
		Find(&courses).Error
	if err != nil {
		log.Printf("[CATALOG] Error fetching courses: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully.", courses)
}

func CoursesByCategory(c *fiber.Ctx) error {
	db := database.Database.Db
	name := strings.ToLower(utils.NameFromSlug(c.Params("name")))

	var category models.Category
	if err := db.Where("LOWER(name) = ?", name).First(&category).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Category not found!", nil)
	}

	var courses []models.Course
	if err := db.Preload("Instructors").Where("category_id = ?", category.ID).Order("created_at desc, id desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully.", fiber.Map{
		"category": category,
		"courses":  courses,
	})
}

// GetCourse returns the course with its weeks. Weeks carry the caller's
// status when the caller is enrolled or teaches the course.
func GetCourse(c *fiber.Ctx) error {
	db := database.Database.Db
	courseID := localUint(c, "course_id")

	var course models.Course
	err := db.Preload("Category").
		Preload("Instructors").
		Preload("WeeklyModules", func(tx *gorm.DB) *gorm.DB { return tx.Order("week_order asc") }).
		First(&course, courseID).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	enrolled, err := access.IsEnrolled(db, user, course.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if enrolled {
		if err := completionService().DecorateModules(c.UserContext(), user.ID, course.ID, course.WeeklyModules); err != nil {
			return middleware.ErrorResponse(c, err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", fiber.Map{
		"course":      course,
		"is_enrolled": enrolled,
	})
}

// InstructorCourses lists the courses the caller teaches.
func InstructorCourses(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}

	var courses []models.Course
	err = database.Database.Db.
		Preload("Category").
		Joins("JOIN course_instructors ON course_instructors.course_id = courses.id").
		Where("course_instructors.user_id = ?", user.ID).
		Order("courses.created_at desc").
		Find(&courses).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Instructor courses fetched successfully.", courses)
}
