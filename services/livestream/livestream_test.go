package livestream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/roxas19/DRP/apperror"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/testutil"
	"github.com/roxas19/DRP/utils"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeYouTube struct {
	transitions []string
	failCreate  bool
}

func (f *fakeYouTube) CreateBroadcast(ctx context.Context, title, description string, start time.Time) (string, error) {
	if f.failCreate {
		return "", errors.New("quota exceeded")
	}
	return "bcast-" + title, nil
}

func (f *fakeYouTube) CreateStream(ctx context.Context, title string) (*utils.StreamInfo, error) {
	return &utils.StreamInfo{ID: "stream", StreamKey: "secret-key", RTMPURL: "rtmp://ingest"}, nil
}

func (f *fakeYouTube) Bind(ctx context.Context, broadcastID, streamID string) error { return nil }

func (f *fakeYouTube) Transition(ctx context.Context, broadcastID, status string) error {
	f.transitions = append(f.transitions, status)
	return nil
}

type published struct {
	id      uint
	status  string
	message string
}

type fakePublisher struct{ events []published }

func (p *fakePublisher) PublishLivestream(id uint, status, message string) {
	p.events = append(p.events, published{id, status, message})
}

type fakeMailer struct {
	mu       sync.Mutex
	sends    [][]string
	failures int
	calls    int
}

func (m *fakeMailer) SendEmail(to []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return errors.New("smtp unavailable")
	}
	m.sends = append(m.sends, to)
	return nil
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	yt      *fakeYouTube
	pub     *fakePublisher
	teacher *models.User
	student *models.User
	course  *models.Course
	module  *models.WeeklyModule
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{db: db, yt: &fakeYouTube{}, pub: &fakePublisher{}}
	f.svc = New(db, f.yt, f.pub, "PL123")
	f.clock = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return f.clock }

	f.teacher = testutil.CreateUser(t, db, "teacher@example.com", models.RoleInstructor)
	require.NoError(t, db.Create(&models.InstructorProfile{UserID: f.teacher.ID}).Error)
	f.student = testutil.CreateUser(t, db, "student@example.com", models.RoleStudent)
	f.course = testutil.CreateCourse(t, db, "Go 101", f.teacher)
	f.module, _ = testutil.CreateModule(t, db, f.course, 1)
	testutil.Enroll(t, db, f.student, f.course)
	return f
}

func (f *fixture) create(t *testing.T, title string, start time.Time) *View {
	t.Helper()
	v, err := f.svc.Create(context.Background(), f.teacher, CreateInput{
		Title:          title,
		CourseID:       f.course.ID,
		ScheduledStart: start,
	})
	require.NoError(t, err)
	return v
}

func TestCreateSchedulesBroadcast(t *testing.T) {
	f := newFixture(t)
	moduleID := f.module.ID

	v, err := f.svc.Create(context.Background(), f.teacher, CreateInput{
		Title:          "Kickoff",
		Description:    "intro",
		CourseID:       f.course.ID,
		WeeklyModuleID: &moduleID,
		ScheduledStart: f.clock.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LivestreamScheduled, v.Status)
	assert.Equal(t, "bcast-Kickoff", v.BroadcastID)
	assert.Equal(t, "secret-key", v.StreamKey)
	assert.Equal(t, "PL123", v.PlaylistID)
	assert.Equal(t, "Go 101", v.CourseTitle)
	require.NotNil(t, v.WeeklyModuleOrder)
	assert.Equal(t, uint(1), *v.WeeklyModuleOrder)

	_, err = f.svc.Create(context.Background(), f.teacher, CreateInput{
		Title:          "Again",
		CourseID:       f.course.ID,
		WeeklyModuleID: &moduleID,
		ScheduledStart: f.clock.Add(3 * time.Hour),
	})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.student, CreateInput{Title: "x", CourseID: f.course.ID, ScheduledStart: f.clock.Add(time.Hour)})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = f.svc.Create(ctx, f.teacher, CreateInput{Title: "x", CourseID: f.course.ID, ScheduledStart: f.clock.Add(-time.Minute)})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	other := testutil.CreateCourse(t, f.db, "Other", f.teacher)
	foreign, _ := testutil.CreateModule(t, f.db, other, 1)
	_, err = f.svc.Create(ctx, f.teacher, CreateInput{Title: "x", CourseID: f.course.ID, WeeklyModuleID: &foreign.ID, ScheduledStart: f.clock.Add(time.Hour)})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	f.yt.failCreate = true
	_, err = f.svc.Create(ctx, f.teacher, CreateInput{Title: "x", CourseID: f.course.ID, ScheduledStart: f.clock.Add(time.Hour)})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))

	var count int64
	f.db.Model(&models.Livestream{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestListHidesCredentialsFromStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	early := f.create(t, "early", f.clock.Add(time.Hour))
	late := f.create(t, "late", f.clock.Add(48*time.Hour))

	views, err := f.svc.ListForCourse(ctx, f.student, f.course.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, late.ID, views[0].ID)
	assert.Equal(t, early.ID, views[1].ID)
	assert.Empty(t, views[0].StreamKey)
	assert.Empty(t, views[0].RTMPURL)

	views, err = f.svc.ListForCourse(ctx, f.teacher, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", views[0].StreamKey)

	outsider := testutil.CreateUser(t, f.db, "out@example.com", models.RoleStudent)
	_, err = f.svc.ListForCourse(ctx, outsider, f.course.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	_, err = f.svc.Get(ctx, outsider, early.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = f.svc.ListForCourse(ctx, f.student, 9999)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestStartAndEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "live", f.clock.Add(time.Hour))

	_, err := f.svc.End(ctx, f.teacher, v.ID)
	assert.True(t, apperror.Is(err, apperror.KindValidation), "cannot end a scheduled stream")

	_, err = f.svc.Start(ctx, f.student, v.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	ls, err := f.svc.Start(ctx, f.teacher, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LivestreamLive, ls.Status)
	require.NotNil(t, ls.StartedAt)

	f.clock = f.clock.Add(90 * time.Minute)
	ls, err = f.svc.End(ctx, f.teacher, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LivestreamCompleted, ls.Status)
	require.NotNil(t, ls.EndedAt)

	assert.Equal(t, []string{"live", "complete"}, f.yt.transitions)
	assert.Equal(t, []published{
		{v.ID, models.LivestreamLive, "The livestream has started."},
		{v.ID, models.LivestreamCompleted, "The livestream has ended."},
	}, f.pub.events)

	var profile models.InstructorProfile
	require.NoError(t, f.db.Where("user_id = ?", f.teacher.ID).First(&profile).Error)
	assert.Equal(t, 1, profile.TotalStreams)
	assert.InDelta(t, 1.5, profile.TotalLiveHours, 0.01)

	_, err = f.svc.Start(ctx, f.teacher, v.ID)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestSendReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := f.create(t, "today", f.clock.Add(3*time.Hour))
	f.create(t, "tomorrow", f.clock.Add(30*time.Hour))

	mailer := &fakeMailer{}
	endOfDay := time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)
	n, err := f.svc.SendReminders(ctx, mailer, f.clock, endOfDay)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, mailer.sends, 1)
	assert.Equal(t, []string{f.student.Email}, mailer.sends[0])

	var ls models.Livestream
	require.NoError(t, f.db.First(&ls, today.ID).Error)
	assert.True(t, ls.ReminderSent)

	n, err = f.svc.SendReminders(ctx, mailer, f.clock, endOfDay)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, mailer.sends, 1)
}

func TestSendRemindersRetriesDelivery(t *testing.T) {
	f := newFixture(t)
	f.svc.retryInterval = time.Millisecond
	ctx := context.Background()
	today := f.create(t, "today", f.clock.Add(3*time.Hour))
	endOfDay := time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)

	mailer := &fakeMailer{failures: reminderTries - 1}
	n, err := f.svc.SendReminders(ctx, mailer, f.clock, endOfDay)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, reminderTries, mailer.calls)
	assert.Len(t, mailer.sends, 1)

	var ls models.Livestream
	require.NoError(t, f.db.First(&ls, today.ID).Error)
	assert.True(t, ls.ReminderSent)
}

func TestSendRemindersSkipsAfterRepeatedFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.retryInterval = time.Millisecond
	ctx := context.Background()
	today := f.create(t, "today", f.clock.Add(3*time.Hour))
	endOfDay := time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)

	mailer := &fakeMailer{failures: 100}
	n, err := f.svc.SendReminders(ctx, mailer, f.clock, endOfDay)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, reminderTries, mailer.calls)
	assert.Empty(t, mailer.sends)

	var ls models.Livestream
	require.NoError(t, f.db.First(&ls, today.ID).Error)
	assert.False(t, ls.ReminderSent)
}

func TestRemindTodayUsesRestOfDay(t *testing.T) {
	f := newFixture(t)
	f.create(t, "evening", time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC))
	f.create(t, "next morning", time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC))

	mailer := &fakeMailer{}
	assert.Equal(t, 1, f.svc.RemindToday(context.Background(), mailer))
	assert.Len(t, mailer.sends, 1)
}

func TestReminderSpecParses(t *testing.T) {
	_, err := cron.ParseStandard(ReminderSpec)
	assert.NoError(t, err)
}
