// Package access decides who may see or change a course's content.
package access

import (
	"github.com/roxas19/DRP/apperror"
	"github.com/roxas19/DRP/models"

	"gorm.io/gorm"
)

// IsInstructorOfCourse is true iff the user carries the Instructor role and is
// listed among the course's instructors.
func IsInstructorOfCourse(db *gorm.DB, user *models.User, courseID uint) (bool, error) {
	if user == nil || !user.IsInstructor() {
		return false, nil
	}
	var count int64
	err := db.Table("course_instructors").
		Where("course_id = ? AND user_id = ?", courseID, user.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsEnrolled is false for anonymous users and true for the course's own
// instructors even without an Enrollment row.
func IsEnrolled(db *gorm.DB, user *models.User, courseID uint) (bool, error) {
	if user == nil {
		return false, nil
	}
	instructor, err := IsInstructorOfCourse(db, user, courseID)
	if err != nil || instructor {
		return instructor, err
	}
	var count int64
	err = db.Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", user.ID, courseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RequireEnrolled returns a Forbidden error when IsEnrolled is false.
func RequireEnrolled(db *gorm.DB, user *models.User, courseID uint) error {
	ok, err := IsEnrolled(db, user, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Forbidden("You are not enrolled in this course.")
	}
	return nil
}

// RequireInstructor returns a Forbidden error unless the user teaches the course.
func RequireInstructor(db *gorm.DB, user *models.User, courseID uint) error {
	ok, err := IsInstructorOfCourse(db, user, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Forbidden("Only instructors of this course can perform this action.")
	}
	return nil
}

// CanModify is the author-or-instructor rule for discussion content.
func CanModify(user *models.User, authorID uint) bool {
	if user == nil {
		return false
	}
	return user.ID == authorID || user.IsInstructor()
}
