package discussionController

import (
	"github.com/roxas19/DRP/apperror"
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/services/access"
	"github.com/roxas19/DRP/services/moderation"
	"github.com/roxas19/DRP/validators"
	discussionValidator "github.com/roxas19/DRP/validators/discussion"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func moderationService() *moderation.Service {
	return moderation.New(database.Database.Db)
}

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

func localUint(c *fiber.Ctx, key string) uint {
	v, _ := c.Locals(key).(uint)
	return v
}

func findModule(db *gorm.DB, courseID, week uint) (*models.WeeklyModule, error) {
	var module models.WeeklyModule
	if err := db.Where("course_id = ? AND week_order = ?", courseID, week).First(&module).Error; err != nil {
		return nil, apperror.FromDB(err, "Weekly module")
	}
	return &module, nil
}

func commentCounts(db *gorm.DB, postIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PostID uint
		Count  int64
	}
	err := db.Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	for _, r := range rows {
		out[r.PostID] = r.Count
	}
	return out, err
}

// ListPosts pages through a week's posts, newest first. Hidden posts are
// only listed for the course's instructors.
func ListPosts(c *fiber.Ctx) error {
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
	instructor, err := access.IsInstructorOfCourse(db, user, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	page, _ := c.Locals("pagination").(validators.Pagination)

	q := db.Model(&models.DiscussionPost{}).Where("weekly_module_id = ?", module.ID)
	if !instructor {
		q = q.Where("is_flagged = ?", false)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	var posts []models.DiscussionPost
	if err := q.Preload("Author").
		Order("created_at desc, id desc").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&posts).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	counts, err := commentCounts(db, ids)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	views, err := postViews(c.UserContext(), moderationService(), user, posts, counts)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Posts fetched successfully.", fiber.Map{
		"posts": views,
		"pagination": fiber.Map{
			"total": total,
			"page":  page.Page,
			"limit": page.Limit,
		},
	})
}

// PostDetail returns a post with its visible comments. Comments above the
// suppression threshold are left out for everyone.
func PostDetail(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	db := database.Database.Db
	svc := moderationService()
	item, err := svc.Lookup(c.UserContext(), models.PostTarget(localUint(c, "id")))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := access.RequireEnrolled(db, user, item.CourseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	instructor, err := access.IsInstructorOfCourse(db, user, item.CourseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if item.IsFlagged && !instructor && item.AuthorID != user.ID {
		return middleware.ErrorResponse(c, apperror.NotFound("Post not found"))
	}

	var post models.DiscussionPost
	if err := db.Preload("Author").First(&post, item.Target.ID).Error; err != nil {
		return middleware.ErrorResponse(c, apperror.FromDB(err, "Post"))
	}
	comments, err := svc.VisibleComments(c.UserContext(), post.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if !instructor {
		shown := comments[:0]
		for _, cm := range comments {
			if !cm.IsFlagged || cm.AuthorID == user.ID {
				shown = append(shown, cm)
			}
		}
		comments = shown
	}

	postView, err := postViews(c.UserContext(), svc, user, []models.DiscussionPost{post}, map[uint]int64{post.ID: int64(len(comments))})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	views, err := commentViews(c.UserContext(), svc, user, comments)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Post fetched successfully.", fiber.Map{
		"post":     postView[0],
		"comments": views,
	})
}

func CreatePost(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedPost").(*discussionValidator.PostRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db
	if err := access.RequireEnrolled(db, user, reqData.CourseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	module, err := findModule(db, reqData.CourseID, reqData.Week)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	post := models.DiscussionPost{
		Title:          reqData.Title,
		Content:        reqData.Content,
		AuthorID:       user.ID,
		WeeklyModuleID: module.ID,
	}
	if err := db.Create(&post).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	post.Author = user
	views, err := postViews(c.UserContext(), moderationService(), user, []models.DiscussionPost{post}, nil)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Post created successfully.", views[0])
}

func EditPost(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedPostEdit").(*discussionValidator.PostEditRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db
	var post models.DiscussionPost
	if err := db.First(&post, localUint(c, "id")).Error; err != nil {
		return middleware.ErrorResponse(c, apperror.FromDB(err, "Post"))
	}
	if !access.CanModify(user, post.AuthorID) {
		return middleware.ErrorResponse(c, apperror.Forbidden("You do not have permission to edit this post."))
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Content != nil {
		updates["content"] = *reqData.Content
	}
	if len(updates) > 0 {
		if err := db.Model(&post).Updates(updates).Error; err != nil {
			return middleware.ErrorResponse(c, err)
		}
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Post updated successfully.", post)
}

func DeletePost(c *fiber.Ctx) error {
	return deleteTarget(c, models.PostTarget(localUint(c, "id")), "Post deleted successfully.")
}

func FlagPost(c *fiber.Ctx) error {
	return toggleFlag(c, models.PostTarget(localUint(c, "id")))
}

func CreateComment(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedComment").(*discussionValidator.CommentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db
	item, err := moderationService().Lookup(c.UserContext(), models.PostTarget(reqData.PostID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := access.RequireEnrolled(db, user, item.CourseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	comment := models.Comment{PostID: reqData.PostID, AuthorID: user.ID, Content: reqData.Content}
	if err := db.Create(&comment).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	comment.Author = user
	views, err := commentViews(c.UserContext(), moderationService(), user, []models.Comment{comment})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Comment created successfully.", views[0])
}

func EditComment(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedCommentEdit").(*discussionValidator.CommentEditRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db
	var comment models.Comment
	if err := db.First(&comment, localUint(c, "id")).Error; err != nil {
		return middleware.ErrorResponse(c, apperror.FromDB(err, "Comment"))
	}
	if !access.CanModify(user, comment.AuthorID) {
		return middleware.ErrorResponse(c, apperror.Forbidden("You do not have permission to edit this comment."))
	}
	if err := db.Model(&comment).Update("content", reqData.Content).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Comment updated successfully.", comment)
}

func DeleteComment(c *fiber.Ctx) error {
	return deleteTarget(c, models.CommentTarget(localUint(c, "id")), "Comment deleted successfully.")
}

func FlagComment(c *fiber.Ctx) error {
	return toggleFlag(c, models.CommentTarget(localUint(c, "id")))
}

func deleteTarget(c *fiber.Ctx, target models.FlagTarget, message string) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	if err := moderationService().Delete(c.UserContext(), user, target); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, nil)
}

func toggleFlag(c *fiber.Ctx, target models.FlagTarget) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	result, err := moderationService().ToggleFlag(c.UserContext(), user, target)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	message := "Flag removed."
	if result.UserFlagged {
		message = "Content flagged."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}
