// Package livestream schedules YouTube broadcasts for courses and drives their
// SCHEDULED → LIVE → COMPLETED lifecycle.
package livestream

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/roxas19/DRP/apperror"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/notify"
	"github.com/roxas19/DRP/services/access"
	"github.com/roxas19/DRP/utils"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/gorm"
)

// CreateInput describes a livestream to schedule.
type CreateInput struct {
	Title          string
	Description    string
	CourseID       uint
	WeeklyModuleID *uint
	ScheduledStart time.Time
}

// View is the API projection. Stream credentials are only filled for the
// course's instructors.
type View struct {
	models.Livestream
	InstructorName    string `json:"instructor_name"`
	CourseTitle       string `json:"course_title"`
	WeeklyModuleOrder *uint  `json:"weekly_module_order"`
}

type Service struct {
	db         *gorm.DB
	youtube    utils.Broadcaster
	publisher  notify.Publisher
	playlistID string
	now        func() time.Time
	// retryInterval is the first wait between reminder delivery attempts.
	retryInterval time.Duration
}

func New(db *gorm.DB, youtube utils.Broadcaster, publisher notify.Publisher, playlistID string) *Service {
	return &Service{db: db, youtube: youtube, publisher: publisher, playlistID: playlistID, now: time.Now, retryInterval: time.Second}
}

// Create provisions the broadcast and its RTMP stream on YouTube, binds them,
// and stores the result as SCHEDULED.
func (s *Service) Create(ctx context.Context, instructor *models.User, in CreateInput) (*View, error) {
	db := s.db.WithContext(ctx)
	if err := access.RequireInstructor(db, instructor, in.CourseID); err != nil {
		return nil, err
	}
	if !in.ScheduledStart.After(s.now()) {
		return nil, apperror.Validation("Scheduled start time must be in the future.")
	}
	if in.WeeklyModuleID != nil {
		var count int64
		if err := db.Model(&models.WeeklyModule{}).
			Where("id = ? AND course_id = ?", *in.WeeklyModuleID, in.CourseID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, apperror.Validation("Invalid weekly module for this course.")
		}
		if err := db.Model(&models.Livestream{}).
			Where("weekly_module_id = ?", *in.WeeklyModuleID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperror.Conflict("This weekly module already has a livestream.")
		}
	}

	broadcastID, err := s.youtube.CreateBroadcast(ctx, in.Title, in.Description, in.ScheduledStart)
	if err != nil {
		return nil, fmt.Errorf("create broadcast: %w", err)
	}
	stream, err := s.youtube.CreateStream(ctx, "Stream for "+broadcastID)
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}
	if err := s.youtube.Bind(ctx, broadcastID, stream.ID); err != nil {
		return nil, fmt.Errorf("bind stream: %w", err)
	}

	start := in.ScheduledStart
	ls := models.Livestream{
		Title:              in.Title,
		Description:        in.Description,
		InstructorID:       instructor.ID,
		CourseID:           in.CourseID,
		WeeklyModuleID:     in.WeeklyModuleID,
		PlaylistID:         s.playlistID,
		BroadcastID:        broadcastID,
		StreamKey:          stream.StreamKey,
		RTMPURL:            stream.RTMPURL,
		Status:             models.LivestreamScheduled,
		ScheduledStartTime: &start,
	}
	if err := db.Create(&ls).Error; err != nil {
		return nil, err
	}
	log.Printf("[LIVESTREAM] %d scheduled for course %d by user %d", ls.ID, ls.CourseID, instructor.ID)
	return s.view(db, instructor, ls.ID)
}

// ListForCourse returns the course's livestreams, latest scheduled first.
func (s *Service) ListForCourse(ctx context.Context, user *models.User, courseID uint) ([]View, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Course{}).Where("id = ?", courseID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperror.NotFound("Course not found.")
	}
	if err := access.RequireEnrolled(db, user, courseID); err != nil {
		return nil, err
	}
	var streams []models.Livestream
	err := withRelations(db).
		Where("course_id = ?", courseID).
		Order("scheduled_start_time desc, id desc").
		Find(&streams).Error
	if err != nil {
		return nil, err
	}
	instructor, err := access.IsInstructorOfCourse(db, user, courseID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(streams))
	for _, ls := range streams {
		views = append(views, project(ls, instructor))
	}
	return views, nil
}

// Get returns one livestream to an enrolled user.
func (s *Service) Get(ctx context.Context, user *models.User, id uint) (*View, error) {
	return s.view(s.db.WithContext(ctx), user, id)
}

// Start transitions the broadcast to live. Only the instructor who created the
// stream may start it.
func (s *Service) Start(ctx context.Context, instructor *models.User, id uint) (*models.Livestream, error) {
	return s.transition(ctx, instructor, id, models.LivestreamScheduled, models.LivestreamLive)
}

// End completes a live broadcast and adds its duration to the instructor's
// profile statistics.
func (s *Service) End(ctx context.Context, instructor *models.User, id uint) (*models.Livestream, error) {
	return s.transition(ctx, instructor, id, models.LivestreamLive, models.LivestreamCompleted)
}

func (s *Service) transition(ctx context.Context, user *models.User, id uint, from, to string) (*models.Livestream, error) {
	db := s.db.WithContext(ctx)
	ls, err := ownedStream(db, user, id)
	if err != nil {
		return nil, err
	}
	if ls.Status != from {
		return nil, apperror.Validation("Livestream is %s.", ls.Status)
	}

	broadcastStatus, message := "live", "The livestream has started."
	if to == models.LivestreamCompleted {
		broadcastStatus, message = "complete", "The livestream has ended."
	}
	if err := s.youtube.Transition(ctx, ls.BroadcastID, broadcastStatus); err != nil {
		return nil, fmt.Errorf("transition broadcast: %w", err)
	}

	at := s.now()
	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": to}
		if to == models.LivestreamLive {
			updates["started_at"] = at
			ls.StartedAt = &at
		} else {
			updates["ended_at"] = at
			ls.EndedAt = &at
		}
		res := tx.Model(&models.Livestream{}).Where("id = ? AND status = ?", ls.ID, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.Conflict("Livestream status changed concurrently.")
		}
		if to == models.LivestreamCompleted && ls.StartedAt != nil {
			hours := at.Sub(*ls.StartedAt).Hours()
			return tx.Model(&models.InstructorProfile{}).
				Where("user_id = ?", ls.InstructorID).
				Updates(map[string]interface{}{
					"total_streams":    gorm.Expr("total_streams + ?", 1),
					"total_live_hours": gorm.Expr("total_live_hours + ?", hours),
				}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ls.Status = to

	if s.publisher != nil {
		s.publisher.PublishLivestream(ls.ID, to, message)
	}
	log.Printf("[LIVESTREAM] %d is %s (user %d)", ls.ID, to, user.ID)
	return ls, nil
}

// DueReminders lists SCHEDULED streams starting in [from, to] whose reminder
// has not been sent.
func (s *Service) DueReminders(ctx context.Context, from, to time.Time) ([]models.Livestream, error) {
	var streams []models.Livestream
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("status = ? AND reminder_sent = ? AND scheduled_start_time BETWEEN ? AND ?",
			models.LivestreamScheduled, false, from, to).
		Order("scheduled_start_time asc").
		Find(&streams).Error
	return streams, err
}

// SendReminders mails every enrolled student of each due stream and marks the
// stream reminded. Delivery is retried with backoff; a stream whose mail still
// fails is logged and left unreminded. It returns the number of streams handled.
func (s *Service) SendReminders(ctx context.Context, mailer utils.Mailer, from, to time.Time) (int, error) {
	streams, err := s.DueReminders(ctx, from, to)
	if err != nil {
		return 0, err
	}
	db := s.db.WithContext(ctx)
	sent := 0
	for _, ls := range streams {
		var emails []string
		err := db.Model(&models.User{}).
			Joins("JOIN enrollments ON enrollments.student_id = users.id").
			Where("enrollments.course_id = ?", ls.CourseID).
			Pluck("users.email", &emails).Error
		if err != nil {
			return sent, err
		}
		if len(emails) > 0 {
			courseTitle := ""
			if ls.Course != nil {
				courseTitle = ls.Course.Title
			}
			subject, body := utils.LivestreamReminderEmail(courseTitle, ls.Title, *ls.ScheduledStartTime)
			if err := s.deliverReminder(ctx, mailer, ls.ID, emails, subject, body); err != nil {
				log.Printf("[LIVESTREAM-SCHEDULER] Skipping reminder for livestream %d after %d attempts: %v", ls.ID, reminderTries, err)
				continue
			}
		}
		if err := db.Model(&models.Livestream{}).Where("id = ?", ls.ID).UpdateColumn("reminder_sent", true).Error; err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// reminderTries bounds delivery attempts per livestream within one sweep.
const reminderTries = 3

func (s *Service) deliverReminder(ctx context.Context, mailer utils.Mailer, id uint, to []string, subject, body string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, mailer.SendEmail(to, subject, body)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(reminderTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Printf("[LIVESTREAM-SCHEDULER] Reminder for livestream %d failed, retrying in %s: %v", id, wait, err)
		}),
	)
	return err
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Instructor").Preload("Course").Preload("WeeklyModule")
}

func (s *Service) view(db *gorm.DB, user *models.User, id uint) (*View, error) {
	var ls models.Livestream
	if err := withRelations(db).First(&ls, id).Error; err != nil {
		return nil, apperror.FromDB(err, "Livestream")
	}
	if err := access.RequireEnrolled(db, user, ls.CourseID); err != nil {
		return nil, err
	}
	instructor, err := access.IsInstructorOfCourse(db, user, ls.CourseID)
	if err != nil {
		return nil, err
	}
	v := project(ls, instructor)
	return &v, nil
}

// ownedStream hides streams of other instructors behind NotFound.
func ownedStream(db *gorm.DB, user *models.User, id uint) (*models.Livestream, error) {
	if user == nil {
		return nil, apperror.Forbidden("Authentication required.")
	}
	var ls models.Livestream
	if err := db.Where("id = ? AND instructor_id = ?", id, user.ID).First(&ls).Error; err != nil {
		return nil, apperror.FromDB(err, "Livestream")
	}
	return &ls, nil
}

func project(ls models.Livestream, withCredentials bool) View {
	v := View{Livestream: ls}
	if ls.Instructor != nil {
		v.InstructorName = ls.Instructor.Name
	}
	if ls.Course != nil {
		v.CourseTitle = ls.Course.Title
	}
	if ls.WeeklyModule != nil {
		order := ls.WeeklyModule.Order
		v.WeeklyModuleOrder = &order
	}
	if !withCredentials {
		v.StreamKey, v.RTMPURL = "", ""
	}
	return v
}
