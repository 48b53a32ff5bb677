package moderation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/roxas19/DRP/apperror"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	teacher  *models.User
	students []*models.User
	course   *models.Course
	module   *models.WeeklyModule
	post     *models.DiscussionPost
}

func newFixture(t *testing.T, students int) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{db: db, svc: New(db)}
	f.teacher = testutil.CreateUser(t, db, "teacher@example.com", models.RoleInstructor)
	f.course = testutil.CreateCourse(t, db, "Go 101", f.teacher)
	f.module, _ = testutil.CreateModule(t, db, f.course, 1)
	for i := 0; i < students; i++ {
		s := testutil.CreateUser(t, db, fmt.Sprintf("s%d@example.com", i), models.RoleStudent)
		testutil.Enroll(t, db, s, f.course)
		f.students = append(f.students, s)
	}
	f.post = testutil.CreatePost(t, db, f.students[0], f.module, "Week 1 questions")
	return f
}

func (f *fixture) flagCount(t *testing.T, target models.FlagTarget) (stored int, ledger int64) {
	t.Helper()
	item, err := f.svc.Lookup(context.Background(), target)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Flag{}).
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Count(&ledger).Error)
	return item.FlagCount, ledger
}

func TestNeedsModeration(t *testing.T) {
	assert.False(t, NeedsModeration(0))
	assert.False(t, NeedsModeration(2))
	assert.True(t, NeedsModeration(3))
}

func TestToggleFlagParity(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	target := models.PostTarget(f.post.ID)

	for i := 1; i <= 5; i++ {
		res, err := f.svc.ToggleFlag(ctx, f.students[0], target)
		require.NoError(t, err)
		odd := i%2 == 1
		assert.Equal(t, odd, res.UserFlagged, "call %d", i)

		stored, ledger := f.flagCount(t, target)
		assert.Equal(t, int(ledger), stored)
		assert.Equal(t, res.FlagCount, stored)
		if odd {
			assert.Equal(t, 1, stored)
		} else {
			assert.Equal(t, 0, stored)
		}
	}
}

func TestThreeFlagsThenOneUnflag(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	target := models.PostTarget(f.post.ID)

	var res *FlagResult
	var err error
	for _, s := range f.students {
		res, err = f.svc.ToggleFlag(ctx, s, target)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, res.FlagCount)
	assert.True(t, res.NeedsModeration)

	res, err = f.svc.ToggleFlag(ctx, f.students[1], target)
	require.NoError(t, err)
	assert.False(t, res.UserFlagged)
	assert.Equal(t, 2, res.FlagCount)
	assert.False(t, res.NeedsModeration)
}

func TestConcurrentToggleFlag(t *testing.T) {
	f := newFixture(t, 5)
	target := models.PostTarget(f.post.ID)

	var wg sync.WaitGroup
	errs := make(chan error, len(f.students)*3)
	for _, s := range f.students {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(user *models.User) {
				defer wg.Done()
				_, err := f.svc.ToggleFlag(context.Background(), user, target)
				errs <- err
			}(s)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// three toggles each leave every student flagged
	stored, ledger := f.flagCount(t, target)
	assert.Equal(t, 5, stored)
	assert.Equal(t, int64(5), ledger)
	flagged, err := f.svc.FlaggedBy(context.Background(), f.students[4].ID, models.TargetPost, []uint{f.post.ID})
	require.NoError(t, err)
	assert.True(t, flagged[f.post.ID])
}

func TestToggleFlagOnComment(t *testing.T) {
	f := newFixture(t, 2)
	comment := testutil.CreateComment(t, f.db, f.students[1], f.post, "hello")

	res, err := f.svc.ToggleFlag(context.Background(), f.students[0], models.CommentTarget(comment.ID))
	require.NoError(t, err)
	assert.True(t, res.UserFlagged)
	assert.Equal(t, 1, res.FlagCount)

	// a post flag with the same id is a different target
	stored, _ := f.flagCount(t, models.PostTarget(f.post.ID))
	assert.Equal(t, 0, stored)
}

func TestToggleFlagErrors(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	outsider := testutil.CreateUser(t, f.db, "out@example.com", models.RoleStudent)

	_, err := f.svc.ToggleFlag(ctx, outsider, models.PostTarget(f.post.ID))
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = f.svc.ToggleFlag(ctx, f.students[0], models.PostTarget(9999))
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.svc.ToggleFlag(ctx, f.students[0], models.FlagTarget{Kind: "video", ID: 1})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestResetFlagCountKeepsHidden(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	target := models.PostTarget(f.post.ID)

	for _, s := range f.students {
		_, err := f.svc.ToggleFlag(ctx, s, target)
		require.NoError(t, err)
	}
	item, err := f.svc.ToggleHidden(ctx, f.teacher, target)
	require.NoError(t, err)
	assert.True(t, item.IsFlagged)

	item, err = f.svc.ResetFlagCount(ctx, f.teacher, target)
	require.NoError(t, err)
	assert.Equal(t, 0, item.FlagCount)

	stored, ledger := f.flagCount(t, target)
	assert.Equal(t, 0, stored)
	assert.Equal(t, int64(0), ledger)

	item, err = f.svc.Lookup(ctx, target)
	require.NoError(t, err)
	assert.True(t, item.IsFlagged)
	assert.False(t, item.NeedsModeration())
}

func TestToggleHiddenIgnoresLedger(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	target := models.PostTarget(f.post.ID)
	_, err := f.svc.ToggleFlag(ctx, f.students[0], target)
	require.NoError(t, err)

	item, err := f.svc.ToggleHidden(ctx, f.teacher, target)
	require.NoError(t, err)
	assert.True(t, item.IsFlagged)
	assert.Equal(t, 1, item.FlagCount)

	item, err = f.svc.ToggleHidden(ctx, f.teacher, target)
	require.NoError(t, err)
	assert.False(t, item.IsFlagged)

	_, err = f.svc.ToggleHidden(ctx, f.students[0], target)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	_, err = f.svc.ResetFlagCount(ctx, f.students[0], target)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestVisibleCommentsSuppressesHeavilyFlagged(t *testing.T) {
	f := newFixture(t, 1)
	keep := testutil.CreateComment(t, f.db, f.students[0], f.post, "fine")
	edge := testutil.CreateComment(t, f.db, f.students[0], f.post, "borderline")
	drop := testutil.CreateComment(t, f.db, f.students[0], f.post, "spam")
	require.NoError(t, f.db.Model(edge).UpdateColumn("flag_count", SuppressionThreshold).Error)
	require.NoError(t, f.db.Model(drop).UpdateColumn("flag_count", SuppressionThreshold+1).Error)

	comments, err := f.svc.VisibleComments(context.Background(), f.post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, keep.ID, comments[0].ID)
	assert.Equal(t, edge.ID, comments[1].ID)

	all, err := f.svc.CommentQueue(context.Background(), f.teacher, f.post.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	flagged, err := f.svc.CommentQueue(context.Background(), f.teacher, f.post.ID, true)
	require.NoError(t, err)
	assert.Len(t, flagged, 2)
}

func TestPostQueue(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	quiet := testutil.CreatePost(t, f.db, f.students[1], f.module, "quiet")
	for _, s := range f.students {
		_, err := f.svc.ToggleFlag(ctx, s, models.PostTarget(f.post.ID))
		require.NoError(t, err)
	}

	all, total, err := f.svc.PostQueue(ctx, f.teacher, f.course.ID, false, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(2), total)

	flagged, total, err := f.svc.PostQueue(ctx, f.teacher, f.course.ID, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, f.post.ID, flagged[0].ID)
	assert.NotEqual(t, quiet.ID, flagged[0].ID)

	_, _, err = f.svc.PostQueue(ctx, f.students[0], f.course.ID, false, 0, 10)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestPostQueuePages(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		testutil.CreatePost(t, f.db, f.students[0], f.module, fmt.Sprintf("post %d", i))
	}

	first, total, err := f.svc.PostQueue(ctx, f.teacher, f.course.ID, false, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Len(t, first, 10)

	second, _, err := f.svc.PostQueue(ctx, f.teacher, f.course.ID, false, 10, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)
	for _, p := range first {
		assert.NotEqual(t, p.ID, second[0].ID)
		assert.NotEqual(t, p.ID, second[1].ID)
	}
}

func TestQueueComments(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	other := testutil.CreatePost(t, f.db, f.students[0], f.module, "other")
	calm := testutil.CreateComment(t, f.db, f.students[0], f.post, "calm")
	loud := testutil.CreateComment(t, f.db, f.students[0], f.post, "loud")
	elsewhere := testutil.CreateComment(t, f.db, f.students[0], other, "elsewhere")
	require.NoError(t, f.db.Model(loud).UpdateColumn("flag_count", ModerationThreshold+1).Error)

	all, err := f.svc.QueueComments(ctx, []uint{f.post.ID, other.ID}, false)
	require.NoError(t, err)
	require.Len(t, all[f.post.ID], 2)
	assert.Equal(t, calm.ID, all[f.post.ID][0].ID)
	assert.Equal(t, loud.ID, all[f.post.ID][1].ID)
	require.Len(t, all[other.ID], 1)
	assert.Equal(t, elsewhere.ID, all[other.ID][0].ID)

	flagged, err := f.svc.QueueComments(ctx, []uint{f.post.ID, other.ID}, true)
	require.NoError(t, err)
	require.Len(t, flagged[f.post.ID], 1)
	assert.Equal(t, loud.ID, flagged[f.post.ID][0].ID)
	assert.Empty(t, flagged[other.ID])

	none, err := f.svc.QueueComments(ctx, nil, false)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeletePostClearsLedger(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	comment := testutil.CreateComment(t, f.db, f.students[1], f.post, "reply")
	_, err := f.svc.ToggleFlag(ctx, f.students[1], models.PostTarget(f.post.ID))
	require.NoError(t, err)
	_, err = f.svc.ToggleFlag(ctx, f.students[0], models.CommentTarget(comment.ID))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.students[1], models.PostTarget(f.post.ID))
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	require.NoError(t, f.svc.Delete(ctx, f.students[0], models.PostTarget(f.post.ID)))

	var flags, comments int64
	f.db.Model(&models.Flag{}).Count(&flags)
	f.db.Model(&models.Comment{}).Count(&comments)
	assert.Equal(t, int64(0), flags)
	assert.Equal(t, int64(0), comments)

	_, err = f.svc.Lookup(ctx, models.PostTarget(f.post.ID))
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestFlaggedBy(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	other := testutil.CreatePost(t, f.db, f.students[0], f.module, "other")
	_, err := f.svc.ToggleFlag(ctx, f.students[0], models.PostTarget(other.ID))
	require.NoError(t, err)

	got, err := f.svc.FlaggedBy(ctx, f.students[0].ID, models.TargetPost, []uint{f.post.ID, other.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{other.ID: true}, got)
}
