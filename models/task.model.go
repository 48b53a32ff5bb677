package models

import "time"

// Task is an instructor-defined unit of work. Completion is tracked per user.
type Task struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ModuleID    uint      `json:"module_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Completions []TaskCompletion `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// TaskCompletion is the per-user completion record; at most one per (user, task).
type TaskCompletion struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_task_completions_user_task"`
	TaskID      uint       `json:"task_id" gorm:"not null;uniqueIndex:idx_task_completions_user_task;index"`
	Completed   bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
