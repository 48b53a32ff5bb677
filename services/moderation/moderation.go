// Package moderation maintains the flag ledger for discussion content and the
// flag_count cache derived from it.
package moderation

import (
	"context"
	"log"

	"github.com/roxas19/DRP/apperror"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/services/access"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// ModerationThreshold: items with more flags than this are listed for review.
	ModerationThreshold = 2
	// SuppressionThreshold: comments with more flags than this are dropped from post detail.
	SuppressionThreshold = 10
)

func NeedsModeration(flagCount int) bool {
	return flagCount > ModerationThreshold
}

// FlagResult is returned by ToggleFlag.
type FlagResult struct {
	ID              uint              `json:"id"`
	Kind            models.TargetKind `json:"kind"`
	UserFlagged     bool              `json:"user_flagged"`
	FlagCount       int               `json:"flag_count"`
	NeedsModeration bool              `json:"needs_moderation"`
}

// Item is the moderation view of a post or comment.
type Item struct {
	Target    models.FlagTarget `json:"target"`
	CourseID  uint              `json:"course_id"`
	AuthorID  uint              `json:"author_id"`
	IsFlagged bool              `json:"is_flagged"`
	FlagCount int               `json:"flag_count"`
}

func (i *Item) NeedsModeration() bool { return NeedsModeration(i.FlagCount) }

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ToggleFlag creates the caller's flag on the target when absent and removes it
// when present, then recounts. The target row is locked for the duration so
// concurrent toggles on one item serialize.
func (s *Service) ToggleFlag(ctx context.Context, user *models.User, target models.FlagTarget) (*FlagResult, error) {
	var result *FlagResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lookup(tx, target, true)
		if err != nil {
			return err
		}
		if err := access.RequireEnrolled(tx, user, item.CourseID); err != nil {
			return err
		}

		// Delete first: a row removed means this call unflags. Otherwise insert,
		// letting the unique index absorb a concurrent duplicate.
		del := tx.Where("user_id = ? AND target_kind = ? AND target_id = ?", user.ID, target.Kind, target.ID).
			Delete(&models.Flag{})
		if del.Error != nil {
			return del.Error
		}
		flagged := del.RowsAffected == 0
		if flagged {
			flag := models.Flag{UserID: user.ID, TargetKind: target.Kind, TargetID: target.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&flag).Error; err != nil {
				return err
			}
		}

		count, err := recount(tx, target)
		if err != nil {
			return err
		}
		result = &FlagResult{
			ID:              target.ID,
			Kind:            target.Kind,
			UserFlagged:     flagged,
			FlagCount:       count,
			NeedsModeration: NeedsModeration(count),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.NeedsModeration {
		log.Printf("[MODERATION] %s %d has %d flags", target.Kind, target.ID, result.FlagCount)
	}
	return result, nil
}

// ToggleHidden flips the moderator-controlled is_flagged bit. The ledger and
// flag_count are left alone.
func (s *Service) ToggleHidden(ctx context.Context, moderator *models.User, target models.FlagTarget) (*Item, error) {
	var item *Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if item, err = lookup(tx, target, true); err != nil {
			return err
		}
		if err := access.RequireInstructor(tx, moderator, item.CourseID); err != nil {
			return err
		}
		item.IsFlagged = !item.IsFlagged
		return tx.Model(modelFor(target.Kind)).
			Where("id = ?", target.ID).
			UpdateColumn("is_flagged", item.IsFlagged).Error
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ResetFlagCount deletes every flag on the target and zeroes its count.
// is_flagged is not touched.
func (s *Service) ResetFlagCount(ctx context.Context, moderator *models.User, target models.FlagTarget) (*Item, error) {
	var item *Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if item, err = lookup(tx, target, true); err != nil {
			return err
		}
		if err := access.RequireInstructor(tx, moderator, item.CourseID); err != nil {
			return err
		}
		if err := deleteFlags(tx, target.Kind, target.ID); err != nil {
			return err
		}
		item.FlagCount = 0
		return tx.Model(modelFor(target.Kind)).
			Where("id = ?", target.ID).
			UpdateColumn("flag_count", 0).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[MODERATION] flags reset on %s %d by user %d", target.Kind, target.ID, moderator.ID)
	return item, nil
}

// Delete removes a post or comment together with the flags pointing at it.
// Deleting a post also clears the flags of its comments.
func (s *Service) Delete(ctx context.Context, user *models.User, target models.FlagTarget) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lookup(tx, target, true)
		if err != nil {
			return err
		}
		if !access.CanModify(user, item.AuthorID) {
			return apperror.Forbidden("You do not have permission to delete this %s.", target.Kind)
		}
		if target.Kind == models.TargetPost {
			var commentIDs []uint
			if err := tx.Model(&models.Comment{}).Where("post_id = ?", target.ID).Pluck("id", &commentIDs).Error; err != nil {
				return err
			}
			if err := deleteFlags(tx, models.TargetComment, commentIDs...); err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", target.ID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := deleteFlags(tx, target.Kind, target.ID); err != nil {
			return err
		}
		return tx.Where("id = ?", target.ID).Delete(modelFor(target.Kind)).Error
	})
}

// Lookup returns the moderation view of a target without locking it.
func (s *Service) Lookup(ctx context.Context, target models.FlagTarget) (*Item, error) {
	return lookup(s.db.WithContext(ctx), target, false)
}

// FlaggedBy returns the subset of ids of the given kind that the user has flagged.
func (s *Service) FlaggedBy(ctx context.Context, userID uint, kind models.TargetKind, ids []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(ids))
	if userID == 0 || len(ids) == 0 {
		return out, nil
	}
	var flagged []uint
	err := s.db.WithContext(ctx).Model(&models.Flag{}).
		Where("user_id = ? AND target_kind = ? AND target_id IN ?", userID, kind, ids).
		Pluck("target_id", &flagged).Error
	if err != nil {
		return nil, err
	}
	for _, id := range flagged {
		out[id] = true
	}
	return out, nil
}

// VisibleComments lists a post's comments oldest first, leaving out those
// above SuppressionThreshold.
func (s *Service) VisibleComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ? AND flag_count <= ?", postID, SuppressionThreshold).
		Order("created_at asc, id asc").
		Find(&comments).Error
	return comments, err
}

// PostQueue lists one page of the course's posts for moderators, newest
// first, with the total across pages. With flaggedOnly only posts that need
// moderation are returned.
func (s *Service) PostQueue(ctx context.Context, moderator *models.User, courseID uint, flaggedOnly bool, offset, limit int) ([]models.DiscussionPost, int64, error) {
	db := s.db.WithContext(ctx)
	if err := access.RequireInstructor(db, moderator, courseID); err != nil {
		return nil, 0, err
	}
	q := db.Model(&models.DiscussionPost{}).
		Joins("JOIN weekly_modules ON weekly_modules.id = discussion_posts.weekly_module_id").
		Where("weekly_modules.course_id = ?", courseID)
	if flaggedOnly {
		q = q.Where("discussion_posts.flag_count > ?", ModerationThreshold)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []models.DiscussionPost
	err := q.Preload("Author").
		Order("discussion_posts.created_at desc, discussion_posts.id desc").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

// QueueComments returns the comments of the given posts keyed by post id,
// oldest first. With flaggedOnly only comments that need moderation are kept.
func (s *Service) QueueComments(ctx context.Context, postIDs []uint, flaggedOnly bool) (map[uint][]models.Comment, error) {
	out := make(map[uint][]models.Comment, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	q := s.db.WithContext(ctx).Preload("Author").Where("post_id IN ?", postIDs)
	if flaggedOnly {
		q = q.Where("flag_count > ?", ModerationThreshold)
	}
	var comments []models.Comment
	if err := q.Order("created_at asc, id asc").Find(&comments).Error; err != nil {
		return nil, err
	}
	for _, cm := range comments {
		out[cm.PostID] = append(out[cm.PostID], cm)
	}
	return out, nil
}

// CommentQueue lists every comment of a post for moderators, suppressed ones
// included.
func (s *Service) CommentQueue(ctx context.Context, moderator *models.User, postID uint, flaggedOnly bool) ([]models.Comment, error) {
	db := s.db.WithContext(ctx)
	item, err := lookup(db, models.PostTarget(postID), false)
	if err != nil {
		return nil, err
	}
	if err := access.RequireInstructor(db, moderator, item.CourseID); err != nil {
		return nil, err
	}
	q := db.Preload("Author").Where("post_id = ?", postID)
	if flaggedOnly {
		q = q.Where("flag_count > ?", ModerationThreshold)
	}
	var comments []models.Comment
	err = q.Order("created_at asc, id asc").Find(&comments).Error
	return comments, err
}

func modelFor(kind models.TargetKind) interface{} {
	if kind == models.TargetComment {
		return &models.Comment{}
	}
	return &models.DiscussionPost{}
}

// lookup resolves a target to its row and owning course, optionally taking a
// row lock on it.
func lookup(tx *gorm.DB, target models.FlagTarget, lock bool) (*Item, error) {
	q := tx
	if lock {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	item := &Item{Target: target}
	var postID uint

	switch target.Kind {
	case models.TargetPost:
		var post models.DiscussionPost
		if err := q.First(&post, target.ID).Error; err != nil {
			return nil, apperror.FromDB(err, "Post")
		}
		postID = post.ID
		item.AuthorID, item.IsFlagged, item.FlagCount = post.AuthorID, post.IsFlagged, post.FlagCount
	case models.TargetComment:
		var comment models.Comment
		if err := q.First(&comment, target.ID).Error; err != nil {
			return nil, apperror.FromDB(err, "Comment")
		}
		postID = comment.PostID
		item.AuthorID, item.IsFlagged, item.FlagCount = comment.AuthorID, comment.IsFlagged, comment.FlagCount
	default:
		return nil, apperror.Validation("Invalid content type.")
	}

	var courseIDs []uint
	err := tx.Model(&models.WeeklyModule{}).
		Joins("JOIN discussion_posts ON discussion_posts.weekly_module_id = weekly_modules.id").
		Where("discussion_posts.id = ?", postID).
		Pluck("weekly_modules.course_id", &courseIDs).Error
	if err != nil {
		return nil, err
	}
	if len(courseIDs) == 0 {
		return nil, apperror.NotFound("Weekly module not found")
	}
	item.CourseID = courseIDs[0]
	return item, nil
}

func recount(tx *gorm.DB, target models.FlagTarget) (int, error) {
	var n int64
	if err := tx.Model(&models.Flag{}).
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	err := tx.Model(modelFor(target.Kind)).
		Where("id = ?", target.ID).
		UpdateColumn("flag_count", n).Error
	return int(n), err
}

func deleteFlags(tx *gorm.DB, kind models.TargetKind, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("target_kind = ? AND target_id IN ?", kind, ids).Delete(&models.Flag{}).Error
}
