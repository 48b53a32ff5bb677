package models

import "time"

// Livestream statuses
const (
	LivestreamScheduled = "SCHEDULED"
	LivestreamLive      = "LIVE"
	LivestreamCompleted = "COMPLETED"
)

// YouTubeToken stores the single set of OAuth credentials for the platform channel.
type YouTubeToken struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	AccessToken  string    `json:"-" gorm:"type:text;not null"`
	RefreshToken string    `json:"-" gorm:"type:text;not null"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Livestream is a YouTube broadcast bound to a course and optionally a weekly module.
type Livestream struct {
	ID                 uint          `json:"id" gorm:"primaryKey"`
	Title              string        `json:"title" gorm:"size:255;not null"`
	Description        string        `json:"description" gorm:"type:text"`
	InstructorID       uint          `json:"instructor_id" gorm:"index;not null"`
	Instructor         *User         `json:"-" gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE"`
	CourseID           uint          `json:"course_id" gorm:"index;not null"`
	Course             *Course       `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	WeeklyModuleID     *uint         `json:"weekly_module_id" gorm:"uniqueIndex"`
	WeeklyModule       *WeeklyModule `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	PlaylistID         string        `json:"playlist_id" gorm:"size:255"`
	BroadcastID        string        `json:"broadcast_id" gorm:"size:255;uniqueIndex;not null"`
	StreamKey          string        `json:"stream_key,omitempty" gorm:"size:255"`
	RTMPURL            string        `json:"rtmp_url,omitempty" gorm:"size:255"`
	Status             string        `json:"status" gorm:"size:20;not null;default:'SCHEDULED'"`
	ScheduledStartTime *time.Time    `json:"scheduled_start_time"`
	StartedAt          *time.Time    `json:"started_at"`
	EndedAt            *time.Time    `json:"ended_at"`
	ViewCount          uint          `json:"view_count" gorm:"default:0"`
	AverageWatchTime   float64       `json:"average_watch_time" gorm:"default:0"` // minutes
	ReminderSent       bool          `json:"-" gorm:"default:false"`
	CreatedAt          time.Time     `json:"created_at"`
}

func (l *Livestream) IsLive() bool {
	return l.Status == LivestreamLive
}
