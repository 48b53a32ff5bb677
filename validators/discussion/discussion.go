package discussionValidator

import (
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/validators"

	"github.com/gofiber/fiber/v2"
)

type PostRequest struct {
	CourseID uint   `json:"course_id" validate:"required,gt=0"`
	Week     uint   `json:"week" validate:"required,gt=0"`
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
}

type PostEditRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content *string `json:"content" validate:"omitempty,min=1"`
}

type CommentRequest struct {
	PostID  uint   `json:"post_id" validate:"required,gt=0"`
	Content string `json:"content" validate:"required"`
}

type CommentEditRequest struct {
	Content string `json:"content" validate:"required"`
}

func Post() fiber.Handler     { return validators.Body[PostRequest]("validatedPost") }
func PostEdit() fiber.Handler { return validators.Body[PostEditRequest]("validatedPostEdit") }
func Comment() fiber.Handler  { return validators.Body[CommentRequest]("validatedComment") }
func CommentEdit() fiber.Handler {
	return validators.Body[CommentEditRequest]("validatedCommentEdit")
}

func IDParam() fiber.Handler { return validators.Params("id") }

func CourseWeekParams() fiber.Handler { return validators.Params("course_id", "week") }

func CourseParam() fiber.Handler { return validators.Params("course_id") }

func Paginate() fiber.Handler { return validators.Paginate() }

// ModerationPage pages the moderation queue ten posts at a time.
func ModerationPage() fiber.Handler { return validators.PaginateBy(10) }

// Target validates :kind and :id of the moderation routes and stores a
// models.FlagTarget under "target".
func Target() fiber.Handler {
	ids := validators.Params("id")
	return func(c *fiber.Ctx) error {
		kind, err := models.ParseTargetKind(c.Params("kind"))
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content type.", nil)
		}
		c.Locals("targetKind", kind)
		return ids(c)
	}
}
