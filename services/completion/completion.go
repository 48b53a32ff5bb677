// Package completion propagates task completion into module completion and
// enrollment progress.
//
// Every mutating call runs in a single transaction: the completion row, the
// recorded week and the progress percentage commit together or not at all.
// Recorded weeks are never removed, even when a later toggle or a newly added
// task makes the module incomplete again.
package completion

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/roxas19/DRP/apperror"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/services/access"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// TaskCompletionResult is returned by ToggleTaskCompletion.
// Progress and CompletedWeeks are nil when the caller holds no enrollment
// (instructors toggling their own view).
type TaskCompletionResult struct {
	TaskID          uint       `json:"task_id"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at"`
	ModuleCompleted bool       `json:"module_completed"`
	WeekRecorded    bool       `json:"week_recorded"`
	Progress        *float64   `json:"progress,omitempty"`
	CompletedWeeks  []uint     `json:"completed_weeks,omitempty"`
}

// ComputeProgress returns 100*completed/total rounded to two places, 0 for a
// course without modules, capped at 100.
func ComputeProgress(completedWeeks, totalModules int) float64 {
	if totalModules <= 0 {
		return 0
	}
	p := 100 * float64(completedWeeks) / float64(totalModules)
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}

// ToggleTaskCompletion sets the caller's completion flag on a task and
// propagates the result into the module and the enrollment.
func (s *Service) ToggleTaskCompletion(ctx context.Context, user *models.User, taskID uint, completed bool) (*TaskCompletionResult, error) {
	var result *TaskCompletionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, module, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := access.RequireEnrolled(tx, user, module.CourseID); err != nil {
			return err
		}

		// Lock the enrollment first so concurrent toggles on the same course
		// serialize their read-modify-write of completed_weeks.
		enrollment, err := lockEnrollment(tx, user.ID, module.CourseID)
		if err != nil && !apperror.Is(err, apperror.KindNotFound) {
			return err
		}

		rec, err := s.upsertCompletion(tx, user.ID, task.ID, completed)
		if err != nil {
			return err
		}

		done, err := allTasksCompleted(tx, user.ID, module.ID)
		if err != nil {
			return err
		}

		result = &TaskCompletionResult{
			TaskID:          task.ID,
			Completed:       rec.Completed,
			CompletedAt:     rec.CompletedAt,
			ModuleCompleted: done,
		}
		if enrollment == nil {
			return nil
		}
		if done {
			if _, err := markModuleCompleted(tx, enrollment, module); err != nil {
				return err
			}
		}
		progress := enrollment.Progress
		result.Progress = &progress
		result.CompletedWeeks = append([]uint{}, enrollment.CompletedWeeks...)
		result.WeekRecorded = enrollment.HasCompletedWeek(module.Order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AllTasksCompletedForUser is false for a module without tasks; otherwise true
// iff every task has a completed record for the user.
func (s *Service) AllTasksCompletedForUser(ctx context.Context, userID, moduleID uint) (bool, error) {
	return allTasksCompleted(s.db.WithContext(ctx), userID, moduleID)
}

// MarkModuleCompletedForUser records the module's week on the user's
// enrollment and refreshes progress. The enrollment must exist and every task
// of the module must be completed.
func (s *Service) MarkModuleCompletedForUser(ctx context.Context, userID, moduleID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var module models.WeeklyModule
		if err := tx.First(&module, moduleID).Error; err != nil {
			return apperror.FromDB(err, "Weekly module")
		}
		done, err := allTasksCompleted(tx, userID, module.ID)
		if err != nil {
			return err
		}
		if !done {
			return apperror.Validation("Not every task of week %d is completed.", module.Order)
		}
		enrollment, err := lockEnrollment(tx, userID, module.CourseID)
		if err != nil {
			return err
		}
		_, err = markModuleCompleted(tx, enrollment, &module)
		return err
	})
}

// UpdateProgress recomputes and stores the enrollment's progress.
func (s *Service) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	return updateProgress(s.db.WithContext(ctx), enrollment)
}

// CreateTask adds a task to a module and seeds an incomplete record for every
// enrolled student. Previously recorded weeks stay recorded.
func (s *Service) CreateTask(ctx context.Context, instructor *models.User, moduleID uint, title, description string) (*models.Task, error) {
	var task *models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var module models.WeeklyModule
		if err := tx.First(&module, moduleID).Error; err != nil {
			return apperror.FromDB(err, "Weekly module")
		}
		if err := access.RequireInstructor(tx, instructor, module.CourseID); err != nil {
			return err
		}
		task = &models.Task{ModuleID: module.ID, Title: title, Description: description}
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return propagateNewTask(tx, task, &module)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task (its completion rows cascade) and records the
// week for students whose remaining tasks are now all completed.
func (s *Service) DeleteTask(ctx context.Context, instructor *models.User, taskID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, module, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := access.RequireInstructor(tx, instructor, module.CourseID); err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskCompletion{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(task).Error; err != nil {
			return err
		}
		return reevaluateEnrolled(tx, module)
	})
}

// Enroll creates the student's enrollment and an incomplete record for every
// task of the course. A repeated request is a Conflict; a concurrent duplicate
// insert falls back to the existing row.
func (s *Service) Enroll(ctx context.Context, student *models.User, courseID uint) (*models.Enrollment, error) {
	if student == nil || !student.IsStudent() {
		return nil, apperror.Forbidden("Only students can enroll in courses.")
	}
	var enrollment *models.Enrollment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			return apperror.FromDB(err, "Course")
		}

		var existing int64
		if err := tx.Model(&models.Enrollment{}).
			Where("student_id = ? AND course_id = ?", student.ID, course.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperror.Conflict("Already enrolled in this course.")
		}

		e := &models.Enrollment{StudentID: student.ID, CourseID: course.ID, CompletedWeeks: []uint{}}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(e)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost a race with an identical request
			if err := tx.Where("student_id = ? AND course_id = ?", student.ID, course.ID).First(e).Error; err != nil {
				return err
			}
		}
		enrollment = e
		return propagateEnrollment(tx, e)
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// TaskView is the per-user projection of a task.
type TaskView struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ListTasks returns the module's tasks with the user's completion state.
func (s *Service) ListTasks(ctx context.Context, userID, moduleID uint) ([]TaskView, error) {
	db := s.db.WithContext(ctx)
	var tasks []models.Task
	if err := db.Where("module_id = ?", moduleID).Order("created_at asc, id asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	byTask := map[uint]models.TaskCompletion{}
	if len(tasks) > 0 {
		ids := make([]uint, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
		}
		var recs []models.TaskCompletion
		if err := db.Where("user_id = ? AND task_id IN ?", userID, ids).Find(&recs).Error; err != nil {
			return nil, err
		}
		for _, r := range recs {
			byTask[r.TaskID] = r
		}
	}
	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		rec := byTask[t.ID]
		views[i] = TaskView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
			Completed:   rec.Completed,
			CompletedAt: rec.CompletedAt,
		}
	}
	return views, nil
}

// DecorateModules fills Status on each module for the given user. Enrolled
// students see the recorded weeks; everyone else sees live task state.
func (s *Service) DecorateModules(ctx context.Context, userID, courseID uint, modules []models.WeeklyModule) error {
	db := s.db.WithContext(ctx)
	var enrollment models.Enrollment
	err := db.Where("student_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	hasEnrollment := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	for i := range modules {
		done := false
		if hasEnrollment {
			done = enrollment.HasCompletedWeek(modules[i].Order)
		}
		if !done {
			if done, err = allTasksCompleted(db, userID, modules[i].ID); err != nil {
				return err
			}
		}
		modules[i].Status = models.ModuleStatusInProgress
		if done {
			modules[i].Status = models.ModuleStatusCompleted
		}
	}
	return nil
}

func loadTask(tx *gorm.DB, taskID uint) (*models.Task, *models.WeeklyModule, error) {
	var task models.Task
	if err := tx.First(&task, taskID).Error; err != nil {
		return nil, nil, apperror.FromDB(err, "Task")
	}
	var module models.WeeklyModule
	if err := tx.First(&module, task.ModuleID).Error; err != nil {
		return nil, nil, apperror.FromDB(err, "Weekly module")
	}
	return &task, &module, nil
}

func lockEnrollment(tx *gorm.DB, userID, courseID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error
	if err != nil {
		return nil, apperror.FromDB(err, "Enrollment")
	}
	return &e, nil
}

// upsertCompletion is get-or-create on (user, task) followed by an update.
// A record that is already completed keeps its first completed_at.
func (s *Service) upsertCompletion(tx *gorm.DB, userID, taskID uint, completed bool) (*models.TaskCompletion, error) {
	var rec models.TaskCompletion
	err := tx.Where("user_id = ? AND task_id = ?", userID, taskID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed := models.TaskCompletion{UserID: userID, TaskID: taskID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return nil, err
		}
		err = tx.Where("user_id = ? AND task_id = ?", userID, taskID).First(&rec).Error
	}
	if err != nil {
		return nil, err
	}

	if completed {
		if !rec.Completed || rec.CompletedAt == nil {
			at := s.now()
			rec.CompletedAt = &at
		}
	} else {
		rec.CompletedAt = nil
	}
	rec.Completed = completed
	if err := tx.Model(&rec).Select("completed", "completed_at").Updates(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func allTasksCompleted(db *gorm.DB, userID, moduleID uint) (bool, error) {
	var total int64
	if err := db.Model(&models.Task{}).Where("module_id = ?", moduleID).Count(&total).Error; err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}
	var done int64
	err := db.Model(&models.TaskCompletion{}).
		Joins("JOIN tasks ON tasks.id = task_completions.task_id").
		Where("tasks.module_id = ? AND task_completions.user_id = ? AND task_completions.completed = ?", moduleID, userID, true).
		Count(&done).Error
	if err != nil {
		return false, err
	}
	return done == total, nil
}

// markModuleCompleted appends the module's order once and refreshes progress.
func markModuleCompleted(tx *gorm.DB, enrollment *models.Enrollment, module *models.WeeklyModule) (bool, error) {
	if enrollment.HasCompletedWeek(module.Order) {
		return false, nil
	}
	enrollment.CompletedWeeks = append(enrollment.CompletedWeeks, module.Order)
	return true, updateProgress(tx, enrollment)
}

func updateProgress(tx *gorm.DB, enrollment *models.Enrollment) error {
	var total int64
	if err := tx.Model(&models.WeeklyModule{}).Where("course_id = ?", enrollment.CourseID).Count(&total).Error; err != nil {
		return err
	}
	if enrollment.CompletedWeeks == nil {
		enrollment.CompletedWeeks = []uint{}
	}
	enrollment.Progress = ComputeProgress(len(enrollment.CompletedWeeks), int(total))
	return tx.Model(&models.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{
			"completed_weeks": enrollment.CompletedWeeks,
			"progress":        enrollment.Progress,
		}).Error
}

func enrolledStudentIDs(tx *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Order("id").Pluck("student_id", &ids).Error
	return ids, err
}

func propagateNewTask(tx *gorm.DB, task *models.Task, module *models.WeeklyModule) error {
	studentIDs, err := enrolledStudentIDs(tx, module.CourseID)
	if err != nil || len(studentIDs) == 0 {
		return err
	}
	rows := make([]models.TaskCompletion, len(studentIDs))
	for i, id := range studentIDs {
		rows[i] = models.TaskCompletion{UserID: id, TaskID: task.ID}
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return err
	}
	return reevaluateEnrolled(tx, module)
}

// reevaluateEnrolled records the week for every enrolled student whose tasks
// in the module are all completed. It never removes a week.
func reevaluateEnrolled(tx *gorm.DB, module *models.WeeklyModule) error {
	var enrollments []models.Enrollment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("course_id = ?", module.CourseID).
		Find(&enrollments).Error; err != nil {
		return err
	}
	for i := range enrollments {
		e := &enrollments[i]
		if e.HasCompletedWeek(module.Order) {
			continue
		}
		done, err := allTasksCompleted(tx, e.StudentID, module.ID)
		if err != nil {
			return err
		}
		if done {
			if _, err := markModuleCompleted(tx, e, module); err != nil {
				return err
			}
		}
	}
	return nil
}

func propagateEnrollment(tx *gorm.DB, enrollment *models.Enrollment) error {
	var taskIDs []uint
	err := tx.Model(&models.Task{}).
		Joins("JOIN weekly_modules ON weekly_modules.id = tasks.module_id").
		Where("weekly_modules.course_id = ?", enrollment.CourseID).
		Order("tasks.id").
		Pluck("tasks.id", &taskIDs).Error
	if err != nil || len(taskIDs) == 0 {
		return err
	}
	rows := make([]models.TaskCompletion, len(taskIDs))
	for i, id := range taskIDs {
		rows[i] = models.TaskCompletion{UserID: enrollment.StudentID, TaskID: id}
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
