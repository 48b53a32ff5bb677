package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roxas19/DRP/config"
	livestreamController "github.com/roxas19/DRP/controllers/livestream"
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/testutil"
	"github.com/roxas19/DRP/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: "test-secret", SaltRound: 4, MediaRoot: t.TempDir()}
	db := testutil.NewDB(t)
	database.Database.Db = db
	return NewApp(Options{DisableLogger: true, DisableLimiter: true}), db
}

func token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := middleware.GenerateJWT(user)
	require.NoError(t, err)
	return tok
}

func call(t *testing.T, app *fiber.App, method, path, tok string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestHealthAndRequestID(t *testing.T) {
	app, _ := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc-123", resp.Header.Get(middleware.RequestIDHeader))
}

func TestSignupLoginAndHistory(t *testing.T) {
	app, _ := setup(t)

	status, env := call(t, app, http.MethodPost, "/auth/signup", "", fiber.Map{
		"name": "Ada", "email": "Ada@Example.com", "password": "password123", "role": "instructor",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, _ = call(t, app, http.MethodPost, "/auth/signup", "", fiber.Map{
		"name": "Ada", "email": "ada@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, env = call(t, app, http.MethodPost, "/auth/signup", "", fiber.Map{"name": "A", "email": "bad", "password": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	var errs map[string]string
	decode(t, env.Data, &errs)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	status, _ = call(t, app, http.MethodPost, "/auth/login", "", fiber.Map{"email": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = call(t, app, http.MethodPost, "/auth/login", "", fiber.Map{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, status)
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, env.Data, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, []string{models.RoleInstructor}, []string(login.User.Roles))

	status, env = call(t, app, http.MethodGet, "/auth/login-history", login.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var history struct {
		LoginHistory []models.LoginHistory `json:"loginHistory"`
	}
	decode(t, env.Data, &history)
	assert.Len(t, history.LoginHistory, 1)

	status, env = call(t, app, http.MethodGet, "/user/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var profile models.User
	decode(t, env.Data, &profile)
	assert.NotNil(t, profile.InstructorProfile)
}

func TestAuthRequired(t *testing.T) {
	app, _ := setup(t)
	status, _ := call(t, app, http.MethodGet, "/enrollments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodGet, "/enrollments", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestEnrollAndCompleteTasks(t *testing.T) {
	app, db := setup(t)
	teacher := testutil.CreateUser(t, db, "teacher@example.com", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "student@example.com", models.RoleStudent)
	course := testutil.CreateCourse(t, db, "Go 101", teacher)
	_, tasks := testutil.CreateModule(t, db, course, 1, "read")
	testutil.CreateModule(t, db, course, 2, "write")
	studentTok := token(t, student)

	modulesPath := fmt.Sprintf("/courses/%d/modules", course.ID)
	status, _ := call(t, app, http.MethodGet, modulesPath, studentTok, nil)
	assert.Equal(t, http.StatusForbidden, status, "modules are gated by enrollment")

	status, env := call(t, app, http.MethodPost, "/enrollments/create", studentTok, fiber.Map{"course_id": course.ID})
	require.Equal(t, http.StatusCreated, status, env.Message)
	status, env = call(t, app, http.MethodPost, "/enrollments/create", studentTok, fiber.Map{"course_id": course.ID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Already enrolled in this course.", env.Message)

	statusPath := fmt.Sprintf("%s/1/tasks/%d/status", modulesPath, tasks[0].ID)
	status, env = call(t, app, http.MethodPatch, statusPath, studentTok, fiber.Map{})
	assert.Equal(t, http.StatusUnprocessableEntity, status, "completed is required")

	status, env = call(t, app, http.MethodPatch, statusPath, studentTok, fiber.Map{"completed": true})
	require.Equal(t, http.StatusOK, status, env.Message)
	var result struct {
		Completed       bool    `json:"completed"`
		ModuleCompleted bool    `json:"module_completed"`
		Progress        float64 `json:"progress"`
	}
	decode(t, env.Data, &result)
	assert.True(t, result.Completed)
	assert.True(t, result.ModuleCompleted)
	assert.Equal(t, 50.0, result.Progress)

	status, env = call(t, app, http.MethodGet, modulesPath, studentTok, nil)
	require.Equal(t, http.StatusOK, status)
	var modules []models.WeeklyModule
	decode(t, env.Data, &modules)
	require.Len(t, modules, 2)
	assert.Equal(t, models.ModuleStatusCompleted, modules[0].Status)
	assert.Equal(t, models.ModuleStatusInProgress, modules[1].Status)

	// students cannot create tasks
	status, _ = call(t, app, http.MethodPost, modulesPath+"/1/tasks/create", studentTok, fiber.Map{"title": "extra"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodPost, modulesPath+"/1/tasks/create", token(t, teacher), fiber.Map{"title": "extra"})
	assert.Equal(t, http.StatusCreated, status)

	var e models.Enrollment
	require.NoError(t, db.Where("student_id = ?", student.ID).First(&e).Error)
	assert.Equal(t, []uint{1}, []uint(e.CompletedWeeks))
}

func TestDiscussionModerationFlow(t *testing.T) {
	app, db := setup(t)
	teacher := testutil.CreateUser(t, db, "teacher@example.com", models.RoleInstructor)
	course := testutil.CreateCourse(t, db, "Go 101", teacher)
	testutil.CreateModule(t, db, course, 1)
	var students []*models.User
	for i := 0; i < 3; i++ {
		s := testutil.CreateUser(t, db, fmt.Sprintf("s%d@example.com", i), models.RoleStudent)
		testutil.Enroll(t, db, s, course)
		students = append(students, s)
	}
	teacherTok := token(t, teacher)

	status, env := call(t, app, http.MethodPost, "/discussions/posts", token(t, students[0]), fiber.Map{
		"course_id": course.ID, "week": 1, "title": "Stuck", "content": "help",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var post struct {
		ID       uint `json:"id"`
		IsAuthor bool `json:"is_author"`
	}
	decode(t, env.Data, &post)
	assert.True(t, post.IsAuthor)

	for _, s := range students {
		status, _ = call(t, app, http.MethodPost, fmt.Sprintf("/discussions/posts/%d/flag", post.ID), token(t, s), nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, env = call(t, app, http.MethodPost, "/discussions/comments", token(t, students[1]), fiber.Map{
		"post_id": post.ID, "content": "spam",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var spam struct {
		ID uint `json:"id"`
	}
	decode(t, env.Data, &spam)
	status, env = call(t, app, http.MethodPost, "/discussions/comments", token(t, students[2]), fiber.Map{
		"post_id": post.ID, "content": "same here",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	for _, s := range students {
		status, _ = call(t, app, http.MethodPost, fmt.Sprintf("/discussions/comments/%d/flag", spam.ID), token(t, s), nil)
		require.Equal(t, http.StatusOK, status)
	}

	type queuePage struct {
		Posts []struct {
			ID              uint `json:"id"`
			FlagCount       int  `json:"flag_count"`
			NeedsModeration bool `json:"needs_moderation"`
			Comments        []struct {
				ID        uint `json:"id"`
				FlagCount int  `json:"flag_count"`
			} `json:"comments"`
		} `json:"posts"`
		Pagination struct {
			Total int64 `json:"total"`
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
		} `json:"pagination"`
	}
	status, env = call(t, app, http.MethodGet, fmt.Sprintf("/discussions/moderation/%d?flagged_only=true", course.ID), teacherTok, nil)
	require.Equal(t, http.StatusOK, status)
	var queue queuePage
	decode(t, env.Data, &queue)
	require.Len(t, queue.Posts, 1)
	assert.Equal(t, 3, queue.Posts[0].FlagCount)
	assert.True(t, queue.Posts[0].NeedsModeration)
	require.Len(t, queue.Posts[0].Comments, 1)
	assert.Equal(t, spam.ID, queue.Posts[0].Comments[0].ID)
	assert.Equal(t, 3, queue.Posts[0].Comments[0].FlagCount)
	assert.Equal(t, int64(1), queue.Pagination.Total)
	assert.Equal(t, 10, queue.Pagination.Limit)

	status, env = call(t, app, http.MethodGet, fmt.Sprintf("/discussions/moderation/%d", course.ID), teacherTok, nil)
	require.Equal(t, http.StatusOK, status)
	queue = queuePage{}
	decode(t, env.Data, &queue)
	require.Len(t, queue.Posts, 1)
	assert.Len(t, queue.Posts[0].Comments, 2)

	status, _ = call(t, app, http.MethodGet, fmt.Sprintf("/discussions/moderation/%d", course.ID), token(t, students[0]), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodPatch, fmt.Sprintf("/discussions/moderation/toggle_hidden/post/%d", post.ID), teacherTok, nil)
	require.Equal(t, http.StatusOK, status)

	listPath := fmt.Sprintf("/discussions/posts/%d/1", course.ID)
	var page struct {
		Posts []struct {
			ID uint `json:"id"`
		} `json:"posts"`
	}
	status, env = call(t, app, http.MethodGet, listPath, token(t, students[1]), nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env.Data, &page)
	assert.Empty(t, page.Posts, "hidden posts are not listed for students")

	status, env = call(t, app, http.MethodGet, listPath, teacherTok, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env.Data, &page)
	assert.Len(t, page.Posts, 1)

	status, _ = call(t, app, http.MethodPatch, fmt.Sprintf("/discussions/moderation/reset_flags/video/%d", post.ID), teacherTok, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodDelete, fmt.Sprintf("/discussions/posts/%d/delete", post.ID), token(t, students[1]), nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, app, http.MethodDelete, fmt.Sprintf("/discussions/posts/%d/delete", post.ID), teacherTok, nil)
	assert.Equal(t, http.StatusOK, status)

	var flags int64
	db.Model(&models.Flag{}).Count(&flags)
	assert.Equal(t, int64(0), flags)
}

type stubYouTube struct{}

func (stubYouTube) CreateBroadcast(ctx context.Context, title, description string, start time.Time) (string, error) {
	return "bcast", nil
}

func (stubYouTube) CreateStream(ctx context.Context, title string) (*utils.StreamInfo, error) {
	return &utils.StreamInfo{ID: "stream", StreamKey: "key", RTMPURL: "rtmp://ingest"}, nil
}

func (stubYouTube) Bind(ctx context.Context, broadcastID, streamID string) error { return nil }

func (stubYouTube) Transition(ctx context.Context, broadcastID, status string) error { return nil }

type recordingPublisher struct{ statuses []string }

func (p *recordingPublisher) PublishLivestream(id uint, status, message string) {
	p.statuses = append(p.statuses, status)
}

func TestLivestreamLifecycle(t *testing.T) {
	app, db := setup(t)
	pub := &recordingPublisher{}
	livestreamController.YouTube = stubYouTube{}
	livestreamController.Publisher = pub
	t.Cleanup(func() {
		livestreamController.YouTube = nil
		livestreamController.Publisher = nil
	})

	teacher := testutil.CreateUser(t, db, "teacher@example.com", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "student@example.com", models.RoleStudent)
	course := testutil.CreateCourse(t, db, "Go 101", teacher)
	testutil.Enroll(t, db, student, course)
	teacherTok, studentTok := token(t, teacher), token(t, student)

	body := fiber.Map{
		"title":                "Office hours",
		"course_id":            course.ID,
		"scheduled_start_time": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}
	status, _ := call(t, app, http.MethodPost, "/ytlive/livestreams", studentTok, body)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := call(t, app, http.MethodPost, "/ytlive/livestreams", teacherTok, body)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	decode(t, env.Data, &created)
	assert.Equal(t, models.LivestreamScheduled, created.Status)

	status, env = call(t, app, http.MethodGet, fmt.Sprintf("/ytlive/livestreams/course/%d", course.ID), studentTok, nil)
	require.Equal(t, http.StatusOK, status)
	var listed []map[string]interface{}
	decode(t, env.Data, &listed)
	require.Len(t, listed, 1)
	assert.NotContains(t, listed[0], "stream_key")

	status, _ = call(t, app, http.MethodPost, fmt.Sprintf("/ytlive/livestreams/%d/start", created.ID), teacherTok, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodPost, fmt.Sprintf("/ytlive/livestreams/%d/end", created.ID), teacherTok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{models.LivestreamLive, models.LivestreamCompleted}, pub.statuses)

	status, env = call(t, app, http.MethodGet, fmt.Sprintf("/ytlive/livestreams/%d", created.ID), studentTok, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env.Data, &created)
	assert.Equal(t, models.LivestreamCompleted, created.Status)
}

func TestYouTubeCallbackRejectsBadState(t *testing.T) {
	app, _ := setup(t)
	status, _ := call(t, app, http.MethodGet, "/ytlive/oauth/callback?code=abc&state=forged", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	req := httptest.NewRequest(http.MethodGet, "/ytlive/oauth", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "accounts.google.com")
}
