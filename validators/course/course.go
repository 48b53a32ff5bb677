package courseValidator

import (
	"strings"

	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/validators"

	"github.com/gofiber/fiber/v2"
)

type TaskRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description"`
}

type TaskStatusRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

type EnrollmentRequest struct {
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

// ResourceRequest carries either a link or an uploaded file.
type ResourceRequest struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
	Link        string `form:"link" json:"link"`
	HasFile     bool   `form:"-" json:"-"`
}

// CourseParam validates :course_id.
func CourseParam() fiber.Handler {
	return validators.Params("course_id")
}

// ModuleParams validates :course_id and :week.
func ModuleParams() fiber.Handler {
	return validators.Params("course_id", "week")
}

func TaskParams() fiber.Handler {
	return validators.Params("course_id", "week", "task_id")
}

func ResourceParams() fiber.Handler {
	return validators.Params("course_id", "week", "resource_id")
}

func Task() fiber.Handler {
	return validators.Body[TaskRequest]("validatedTask")
}

func TaskStatus() fiber.Handler {
	return validators.Body[TaskStatusRequest]("validatedTaskStatus")
}

func Enrollment() fiber.Handler {
	return validators.Body[EnrollmentRequest]("validatedEnrollment")
}

// Resource validates a resource create or update. On create a link or a
// "file" part is required; updates may change either or neither.
func Resource(create bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ResourceRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Link = strings.TrimSpace(reqData.Link)
		if create && reqData.Title == "" {
			errors["title"] = "Title is required!"
		}
		if len(reqData.Title) > 200 {
			errors["title"] = "Title must be at most 200 characters long!"
		}
		if reqData.Link != "" && !strings.HasPrefix(reqData.Link, "http://") && !strings.HasPrefix(reqData.Link, "https://") {
			errors["link"] = "Link must be an http(s) URL!"
		}

		if fh, err := c.FormFile("file"); err == nil && fh != nil {
			reqData.HasFile = true
		}
		if create && !reqData.HasFile && reqData.Link == "" {
			errors["file"] = "Provide either a file or a link!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedResource", reqData)
		return c.Next()
	}
}
