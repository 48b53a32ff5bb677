package userValidator

import (
	"encoding/json"

	"github.com/roxas19/DRP/validators"

	"github.com/gofiber/fiber/v2"
)

type StudentProfileInput struct {
	LearningGoals     *string `json:"learning_goals"`
	PreferredLanguage *string `json:"preferred_language" validate:"omitempty,max=50"`
	Timezone          *string `json:"timezone" validate:"omitempty,max=50"`
	Achievements      *string `json:"achievements"`
}

type InstructorProfileInput struct {
	Bio                *string         `json:"bio"`
	Qualification      *string         `json:"qualification" validate:"omitempty,max=255"`
	TeachingExperience *int            `json:"teaching_experience" validate:"omitempty,gte=0"`
	Specialization     *string         `json:"specialization" validate:"omitempty,max=255"`
	LanguagesSpoken    *string         `json:"languages_spoken" validate:"omitempty,max=255"`
	SocialLinks        json.RawMessage `json:"social_links"`
}

type UpdateProfileRequest struct {
	Name              *string                 `json:"name" validate:"omitempty,min=2,max=255"`
	ProfilePhoto      *string                 `json:"profile_photo" validate:"omitempty,url"`
	StudentProfile    *StudentProfileInput    `json:"student_profile"`
	InstructorProfile *InstructorProfileInput `json:"instructor_profile"`
}

func UpdateProfile() fiber.Handler {
	return validators.Body[UpdateProfileRequest]("validatedProfile")
}
