package discussionController

import (
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/validators"

	"github.com/gofiber/fiber/v2"
)

// ModerationPosts lists a course's posts for its instructors, ten per page,
// each with its comments. With ?flagged_only=true only posts and comments
// that need moderation are listed.
func ModerationPosts(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	svc := moderationService()
	ctx := c.UserContext()
	flaggedOnly := c.QueryBool("flagged_only", false)
	page, _ := c.Locals("pagination").(validators.Pagination)

	posts, total, err := svc.PostQueue(ctx, user, localUint(c, "course_id"), flaggedOnly, page.Offset(), page.Limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	comments, err := svc.QueueComments(ctx, ids, flaggedOnly)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	views, err := postViews(ctx, svc, user, posts, nil)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	queue := make([]ModerationPostView, len(views))
	for i, v := range views {
		cv, err := commentViews(ctx, svc, user, comments[v.ID])
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		queue[i] = ModerationPostView{PostView: v, Comments: cv}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Moderation queue fetched successfully.", fiber.Map{
		"posts": queue,
		"pagination": fiber.Map{
			"total": total,
			"page":  page.Page,
			"limit": page.Limit,
		},
	})
}

func ModerationComments(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	svc := moderationService()
	comments, err := svc.CommentQueue(c.UserContext(), user, localUint(c, "id"), c.QueryBool("flagged_only", false))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	views, err := commentViews(c.UserContext(), svc, user, comments)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Comments fetched successfully.", views)
}

func ResetFlags(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	item, err := moderationService().ResetFlagCount(c.UserContext(), user, target(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Flag count reset.", item)
}

func ToggleHidden(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	item, err := moderationService().ToggleHidden(c.UserContext(), user, target(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	message := "Content is visible."
	if item.IsFlagged {
		message = "Content hidden."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, item)
}

func target(c *fiber.Ctx) models.FlagTarget {
	kind, _ := c.Locals("targetKind").(models.TargetKind)
	return models.FlagTarget{Kind: kind, ID: localUint(c, "id")}
}
