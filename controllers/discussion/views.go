package discussionController

import (
	"context"
	"time"

	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/services/access"
	"github.com/roxas19/DRP/services/moderation"
)

type PostView struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	AuthorID        uint      `json:"author_id"`
	AuthorName      string    `json:"author_name"`
	WeeklyModuleID  uint      `json:"weekly_module_id"`
	CreatedAt       time.Time `json:"created_at"`
	IsFlagged       bool      `json:"is_flagged"`
	FlagCount       int       `json:"flag_count"`
	NeedsModeration bool      `json:"needs_moderation"`
	UserFlagged     bool      `json:"user_flagged"`
	IsAuthor        bool      `json:"is_author"`
	CanEdit         bool      `json:"can_edit"`
	CanDelete       bool      `json:"can_delete"`
	CommentCount    int64     `json:"comment_count"`
}

// ModerationPostView is a post in the moderation queue with its comments.
type ModerationPostView struct {
	PostView
	Comments []CommentView `json:"comments"`
}

type CommentView struct {
	ID              uint      `json:"id"`
	PostID          uint      `json:"post_id"`
	Content         string    `json:"content"`
	AuthorID        uint      `json:"author_id"`
	AuthorName      string    `json:"author_name"`
	CreatedAt       time.Time `json:"created_at"`
	IsFlagged       bool      `json:"is_flagged"`
	FlagCount       int       `json:"flag_count"`
	NeedsModeration bool      `json:"needs_moderation"`
	UserFlagged     bool      `json:"user_flagged"`
	IsAuthor        bool      `json:"is_author"`
	CanEdit         bool      `json:"can_edit"`
	CanDelete       bool      `json:"can_delete"`
}

func authorName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}

func postViews(ctx context.Context, svc *moderation.Service, user *models.User, posts []models.DiscussionPost, commentCounts map[uint]int64) ([]PostView, error) {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	flagged, err := svc.FlaggedBy(ctx, user.ID, models.TargetPost, ids)
	if err != nil {
		return nil, err
	}
	views := make([]PostView, len(posts))
	for i, p := range posts {
		mine := p.AuthorID == user.ID
		canModify := access.CanModify(user, p.AuthorID)
		views[i] = PostView{
			ID:              p.ID,
			Title:           p.Title,
			Content:         p.Content,
			AuthorID:        p.AuthorID,
			AuthorName:      authorName(p.Author),
			WeeklyModuleID:  p.WeeklyModuleID,
			CreatedAt:       p.CreatedAt,
			IsFlagged:       p.IsFlagged,
			FlagCount:       p.FlagCount,
			NeedsModeration: moderation.NeedsModeration(p.FlagCount),
			UserFlagged:     flagged[p.ID],
			IsAuthor:        mine,
			CanEdit:         canModify,
			CanDelete:       canModify,
			CommentCount:    commentCounts[p.ID],
		}
	}
	return views, nil
}

func commentViews(ctx context.Context, svc *moderation.Service, user *models.User, comments []models.Comment) ([]CommentView, error) {
	ids := make([]uint, len(comments))
	for i, cm := range comments {
		ids[i] = cm.ID
	}
	flagged, err := svc.FlaggedBy(ctx, user.ID, models.TargetComment, ids)
	if err != nil {
		return nil, err
	}
	views := make([]CommentView, len(comments))
	for i, cm := range comments {
		canModify := access.CanModify(user, cm.AuthorID)
		views[i] = CommentView{
			ID:              cm.ID,
			PostID:          cm.PostID,
			Content:         cm.Content,
			AuthorID:        cm.AuthorID,
			AuthorName:      authorName(cm.Author),
			CreatedAt:       cm.CreatedAt,
			IsFlagged:       cm.IsFlagged,
			FlagCount:       cm.FlagCount,
			NeedsModeration: moderation.NeedsModeration(cm.FlagCount),
			UserFlagged:     flagged[cm.ID],
			IsAuthor:        cm.AuthorID == user.ID,
			CanEdit:         canModify,
			CanDelete:       canModify,
		}
	}
	return views, nil
}
