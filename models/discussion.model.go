package models

import (
	"fmt"
	"strings"
	"time"
)

// DiscussionPost is a thread in a weekly module's discussion board.
// IsFlagged is the moderator "hidden" bit and is independent of FlagCount.
type DiscussionPost struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	Title          string        `json:"title" gorm:"size:255;not null"`
	Content        string        `json:"content" gorm:"type:text;not null"`
	AuthorID       uint          `json:"author_id" gorm:"index;not null"`
	Author         *User         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	WeeklyModuleID uint          `json:"weekly_module_id" gorm:"index;not null"`
	WeeklyModule   *WeeklyModule `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	IsFlagged      bool          `json:"is_flagged" gorm:"not null;default:false"`
	FlagCount      int           `json:"flag_count" gorm:"not null;default:0"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	Comments []Comment `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// Comment is a reply on a discussion post
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"index;not null"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	Author    *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	IsFlagged bool      `json:"is_flagged" gorm:"not null;default:false"`
	FlagCount int       `json:"flag_count" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TargetKind names the content type a Flag points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// ParseTargetKind accepts the URL spellings used by moderation routes.
func ParseTargetKind(s string) (TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "post", "discussionpost":
		return TargetPost, nil
	case "comment":
		return TargetComment, nil
	}
	return "", fmt.Errorf("invalid content type %q", s)
}

// FlagTarget identifies a post or comment by kind and id.
type FlagTarget struct {
	Kind TargetKind `json:"kind"`
	ID   uint       `json:"id"`
}

func PostTarget(id uint) FlagTarget    { return FlagTarget{Kind: TargetPost, ID: id} }
func CommentTarget(id uint) FlagTarget { return FlagTarget{Kind: TargetComment, ID: id} }

// Flag is one user's objection to one piece of content.
type Flag struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_flags_user_target"`
	TargetKind TargetKind `json:"target_kind" gorm:"size:20;not null;uniqueIndex:idx_flags_user_target;index:idx_flags_target"`
	TargetID   uint       `json:"target_id" gorm:"not null;uniqueIndex:idx_flags_user_target;index:idx_flags_target"`
	FlaggedAt  time.Time  `json:"flagged_at" gorm:"autoCreateTime"`
}
