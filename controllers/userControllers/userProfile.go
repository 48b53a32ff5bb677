package userController

import (
	"log"

	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/validators/userValidator"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func loadProfile(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	err := db.Preload("StudentProfile").Preload("InstructorProfile").First(&user, userID).Error
	return &user, err
}

func GetProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	user, err := loadProfile(database.Database.Db, userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully.", user)
}

func UpdateProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedProfile").(*userValidator.UpdateProfileRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	user, err := loadProfile(db, userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if reqData.Name != nil {
			updates["name"] = *reqData.Name
		}
		if reqData.ProfilePhoto != nil {
			updates["profile_photo"] = *reqData.ProfilePhoto
		}
		if len(updates) > 0 {
			if err := tx.Model(user).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in := reqData.StudentProfile; in != nil && user.StudentProfile != nil {
			p := user.StudentProfile
			setString(&p.LearningGoals, in.LearningGoals)
			setString(&p.PreferredLanguage, in.PreferredLanguage)
			setString(&p.Timezone, in.Timezone)
			setString(&p.Achievements, in.Achievements)
			if err := tx.Save(p).Error; err != nil {
				return err
			}
		}

		if in := reqData.InstructorProfile; in != nil && user.InstructorProfile != nil {
			p := user.InstructorProfile
			setString(&p.Bio, in.Bio)
			setString(&p.Qualification, in.Qualification)
			setString(&p.Specialization, in.Specialization)
			setString(&p.LanguagesSpoken, in.LanguagesSpoken)
			if in.TeachingExperience != nil {
				p.TeachingExperience = *in.TeachingExperience
			}
			if len(in.SocialLinks) > 0 {
				p.SocialLinks = datatypes.JSON(in.SocialLinks)
			}
			if err := tx.Save(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error updating profile for user %d: %v", userID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}

	user, _ = loadProfile(db, userID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully.", user)
}

// DeleteInstructorProfile drops the instructor profile and the Instructor role.
func DeleteInstructorProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db
	user, err := loadProfile(db, userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	if user.InstructorProfile == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Instructor profile not found!", nil)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(user.InstructorProfile).Error; err != nil {
			return err
		}
		user.RemoveRole(models.RoleInstructor)
		return tx.Model(user).Update("roles", user.Roles).Error
	})
	if err != nil {
		log.Printf("Error deleting instructor profile for user %d: %v", userID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete instructor profile!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Instructor profile deleted.", nil)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
