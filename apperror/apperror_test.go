package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("task %d", 3)))
	assert.Equal(t, KindForbidden, KindOf(fmt.Errorf("wrapped: %w", Forbidden("nope"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindNotFound))
}

func TestFromDB(t *testing.T) {
	err := FromDB(gorm.ErrRecordNotFound, "Course")
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "Course not found: record not found", err.Error())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	other := errors.New("disk full")
	assert.Equal(t, other, FromDB(other, "Course"))
	assert.Nil(t, FromDB(nil, "Course"))
}
