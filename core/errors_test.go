package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	err := NewError(ErrInvalidState, "tutoring.not_active")
	wrapped := errors.Wrap(err, "completing tutoring")

	assert.True(t, errors.Is(wrapped, ErrInvalidState))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, err, errors.Cause(wrapped))
	assert.Equal(t, "invalid state: tutoring.not_active", err.Error())
	assert.Equal(t, "invalid state: tutoring.limit_reached [2]", NewError(ErrInvalidState, "tutoring.limit_reached", "2").Error())
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("bye"), "stopping")))
	assert.False(t, IsShutdown(errors.New("bye")))
}
