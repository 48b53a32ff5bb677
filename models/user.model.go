package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Role tags carried on User.Roles.
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
)

type User struct {
	ID           uint                        `json:"id" gorm:"primaryKey"`
	Name         string                      `json:"name" gorm:"size:255;not null;default:''"`
	Email        string                      `json:"email" gorm:"size:255;unique;not null"`
	Password     string                      `json:"-" gorm:"not null"`
	ProfilePhoto string                      `json:"profile_photo" gorm:"default:''"`
	Roles        datatypes.JSONSlice[string] `json:"roles"`
	IsStaff      bool                        `json:"is_staff" gorm:"default:false"`
	LastLogin    *time.Time                  `json:"last_login"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`

	StudentProfile    *StudentProfile    `json:"student_profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	InstructorProfile *InstructorProfile `json:"instructor_profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	Enrollments     []Enrollment     `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	TaskCompletions []TaskCompletion `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Flags           []Flag           `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// HasRole reports whether the role tag is present. A nil user has no roles.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Roles, role)
}

func (u *User) IsStudent() bool    { return u.HasRole(RoleStudent) }
func (u *User) IsInstructor() bool { return u.HasRole(RoleInstructor) }

// AddRole appends the tag when missing.
func (u *User) AddRole(role string) {
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
}

// RemoveRole drops every occurrence of the tag.
func (u *User) RemoveRole(role string) {
	u.Roles = slices.DeleteFunc(u.Roles, func(r string) bool { return r == role })
}

// StudentProfile holds learner-specific settings
type StudentProfile struct {
	ID                    uint      `json:"id" gorm:"primaryKey"`
	UserID                uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	LearningGoals         string    `json:"learning_goals" gorm:"type:text"`
	PreferredLanguage     string    `json:"preferred_language" gorm:"size:50"`
	Timezone              string    `json:"timezone" gorm:"size:50"`
	Achievements          string    `json:"achievements" gorm:"type:text"`
	CompletedCoursesCount int       `json:"completed_courses_count" gorm:"default:0"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// InstructorProfile holds teaching-specific settings and live statistics
type InstructorProfile struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	UserID             uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	Bio                string         `json:"bio" gorm:"type:text"`
	Qualification      string         `json:"qualification" gorm:"size:255"`
	TeachingExperience int            `json:"teaching_experience" gorm:"default:0"` // years
	Specialization     string         `json:"specialization" gorm:"size:255"`
	Rating             float64        `json:"rating" gorm:"default:0"`
	LanguagesSpoken    string         `json:"languages_spoken" gorm:"size:255"`
	SocialLinks        datatypes.JSON `json:"social_links"`
	Certified          bool           `json:"certified" gorm:"default:false"`
	TotalLiveHours     float64        `json:"total_live_hours" gorm:"default:0"`
	TotalStreams       int            `json:"total_streams" gorm:"default:0"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
