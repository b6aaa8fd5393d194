package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := Upstream("backend unavailable", cause)

	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestIs(t *testing.T) {
	wrapped := fmt.Errorf("load inbox: %w", Stale("inbox"))

	assert.True(t, Is(wrapped, "STALE_RESPONSE"))
	assert.False(t, Is(wrapped, "NOT_FOUND"))
	assert.False(t, Is(errors.New("plain"), "STALE_RESPONSE"))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "invalid conversation id", Message(Unresolved("conversation id")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Empty(t, Message(nil))
}
