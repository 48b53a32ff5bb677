package models

import (
	"time"
)

// Course levels
const (
	LevelBeginner = "Beginner"
	LevelAdvanced = "Advanced"
)

// Weekly module status values, projected per user
const (
	ModuleStatusCompleted  = "Completed"
	ModuleStatusInProgress = "In Progress"
)

type Category struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:100;not null"`
	Description string `json:"description" gorm:"type:text"`
}

// Course represents a learning course taught by one or more instructors
type Course struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	ImageURL    string    `json:"image_url"`
	Duration    string    `json:"duration" gorm:"size:50"`
	Price       float64   `json:"price" gorm:"not null;default:0;check:chk_courses_price,price >= 0"`
	Level       string    `json:"level" gorm:"size:50;default:'Beginner'"`
	CategoryID  *uint     `json:"category_id" gorm:"index"`
	Category    *Category `json:"category,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time `json:"created_at"`

	Instructors   []User         `json:"instructors,omitempty" gorm:"many2many:course_instructors;constraint:OnDelete:CASCADE"`
	WeeklyModules []WeeklyModule `json:"weekly_modules,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// WeeklyModule is a week of a course. Order is unique within its course.
type WeeklyModule struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CourseID    uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_weekly_modules_course_order"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	VideoURL    string    `json:"video_url"`
	Quiz        string    `json:"quiz" gorm:"type:text"`
	Order       uint      `json:"order" gorm:"column:week_order;not null;uniqueIndex:idx_weekly_modules_course_order;check:chk_weekly_modules_week_order,week_order > 0"`
	CreatedAt   time.Time `json:"created_at"`

	// Status is filled for the requesting user and never stored.
	Status string `json:"status,omitempty" gorm:"-"`

	Tasks     []Task     `json:"tasks,omitempty" gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
	Resources []Resource `json:"resources,omitempty" gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
}

// Resource is downloadable or linked material attached to a module
type Resource struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ModuleID    uint      `json:"module_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	FilePath    string    `json:"file_path"`
	Link        string    `json:"link"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
