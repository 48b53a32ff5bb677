package livestreamValidator

import (
	"time"

	"github.com/roxas19/DRP/validators"

	"github.com/gofiber/fiber/v2"
)

type CreateLivestreamRequest struct {
	Title              string    `json:"title" validate:"required,min=1,max=255"`
	Description        string    `json:"description"`
	CourseID           uint      `json:"course_id" validate:"required,gt=0"`
	WeeklyModuleID     *uint     `json:"weekly_module_id" validate:"omitempty,gt=0"`
	ScheduledStartTime time.Time `json:"scheduled_start_time" validate:"required"`
}

func Create() fiber.Handler {
	return validators.Body[CreateLivestreamRequest]("validatedLivestream")
}

func IDParam() fiber.Handler {
	return validators.Params("id")
}

func CourseParam() fiber.Handler {
	return validators.Params("course_id")
}
