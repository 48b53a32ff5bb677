// Package testutil builds throwaway SQLite databases and fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database in the test's temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open("sqlite", path+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB() failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return db
}

// CreateUser inserts a user carrying the given role tags.
func CreateUser(t *testing.T, db *gorm.DB, email string, roles ...string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Password: "x", Roles: roles}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// CreateCourse inserts a course taught by the given instructors.
func CreateCourse(t *testing.T, db *gorm.DB, title string, instructors ...*models.User) *models.Course {
	t.Helper()
	c := &models.Course{Title: title, Level: models.LevelBeginner}
	for _, in := range instructors {
		c.Instructors = append(c.Instructors, *in)
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create course %s: %v", title, err)
	}
	return c
}

// CreateModule inserts a weekly module with one task per title.
func CreateModule(t *testing.T, db *gorm.DB, course *models.Course, order uint, taskTitles ...string) (*models.WeeklyModule, []models.Task) {
	t.Helper()
	m := &models.WeeklyModule{CourseID: course.ID, Title: "Week", Order: order}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("create module %d: %v", order, err)
	}
	tasks := make([]models.Task, 0, len(taskTitles))
	for _, title := range taskTitles {
		task := models.Task{ModuleID: m.ID, Title: title}
		if err := db.Create(&task).Error; err != nil {
			t.Fatalf("create task %s: %v", title, err)
		}
		tasks = append(tasks, task)
	}
	return m, tasks
}

// Enroll inserts a bare enrollment row without task propagation.
func Enroll(t *testing.T, db *gorm.DB, student *models.User, course *models.Course) *models.Enrollment {
	t.Helper()
	e := &models.Enrollment{StudentID: student.ID, CourseID: course.ID, CompletedWeeks: []uint{}}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("enroll: %v", err)
	}
	return e
}

// CreatePost inserts a discussion post on the module.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, module *models.WeeklyModule, title string) *models.DiscussionPost {
	t.Helper()
	p := &models.DiscussionPost{Title: title, Content: title, AuthorID: author.ID, WeeklyModuleID: module.ID}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post %s: %v", title, err)
	}
	return p
}

// CreateComment inserts a comment on the post.
func CreateComment(t *testing.T, db *gorm.DB, author *models.User, post *models.DiscussionPost, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: post.ID, AuthorID: author.ID, Content: content}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}
