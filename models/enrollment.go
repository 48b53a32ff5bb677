package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Enrollment binds a student to a course and carries aggregate progress.
// CompletedWeeks only grows; Progress is recomputed from it.
type Enrollment struct {
	ID             uint                      `json:"id" gorm:"primaryKey"`
	StudentID      uint                      `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollments_student_course"`
	CourseID       uint                      `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollments_student_course;index"`
	Course         *Course                   `json:"course,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Progress       float64                   `json:"progress" gorm:"not null;default:0"` // percentage, two decimals
	CompletedWeeks datatypes.JSONSlice[uint] `json:"completed_weeks"`
	EnrolledOn     time.Time                 `json:"enrolled_on" gorm:"autoCreateTime"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// HasCompletedWeek reports whether the module order is already recorded.
func (e *Enrollment) HasCompletedWeek(order uint) bool {
	return slices.Contains(e.CompletedWeeks, order)
}
