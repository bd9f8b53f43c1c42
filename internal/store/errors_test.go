package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/listenupapp/kanban-server/internal/store"
)

func TestError_Message(t *testing.T) {
	assert.Equal(t, "not found", store.ErrNotFound.Error())
	assert.Equal(t, "concurrent modification: underlying error",
		store.ErrConflict.WithCause(errors.New("underlying error")).Error())
}

func TestError_Is(t *testing.T) {
	cause := errors.New("no rows")
	err := fmt.Errorf("get card: %w", store.ErrNotFound.WithCause(cause))

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, store.ErrAlreadyExists)
	assert.NotErrorIs(t, store.ErrConflict, store.ErrInvalidInput)
}

func TestError_WithCauseKeepsSentinel(t *testing.T) {
	_ = store.ErrInvalidInput.WithCause(errors.New("x"))
	assert.NoError(t, store.ErrInvalidInput.Err)
}
