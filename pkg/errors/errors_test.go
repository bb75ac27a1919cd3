package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsOriginalUntouched(t *testing.T) {
	clone := Clone(ErrNotFound, "tutor not found")
	assert.Equal(t, "tutor not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Equal(t, http.StatusNotFound, clone.Status)

	detailed := WithDetails(clone, map[string]int{"conflicts": 2})
	assert.Nil(t, clone.Details)
	assert.Equal(t, map[string]int{"conflicts": 2}, detailed.Details)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("commit: %w", Clone(ErrScheduleConflict, "blocked"))
	assert.Equal(t, "SCHEDULE_CONFLICT", FromError(wrapped).Code)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.EqualError(t, plain, "internal server error: boom")
}

func TestHasCode(t *testing.T) {
	inner := fmt.Errorf("redis: %w", ErrCacheMiss)
	outer := Wrap(inner, ErrInternal.Code, ErrInternal.Status, "summary")

	assert.True(t, HasCode(outer, ErrInternal.Code))
	assert.True(t, HasCode(outer, ErrCacheMiss.Code))
	assert.False(t, HasCode(outer, ErrNotFound.Code))
	assert.False(t, HasCode(errors.New("plain"), ErrInternal.Code))
	assert.False(t, HasCode(nil, ErrInternal.Code))
}
