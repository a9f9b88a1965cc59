package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		kind ErrorKind
		is   func(error) bool
	}{
		{"validation", NewValidationError("edit", ErrMissingEditData), KindValidation, IsValidation},
		{"not found", NewNotFoundError("load", "session", "42", nil), KindNotFound, IsNotFound},
		{"transient", NewTransientError("checkpoint put", cause), KindTransient, IsTransient},
		{"configuration", NewConfigurationError("route", errors.New("no handler")), KindConfiguration, IsConfiguration},
		{"model call", NewModelCallError("embed", "text-embedding-3-small", cause), KindModelCall, IsModelCall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.Equal(t, tt.kind, Kind(wrapped))
			assert.True(t, tt.is(wrapped))
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrorTaxonomy_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTransientError("checkpoint put", cause)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidation(err))
	assert.Equal(t, "checkpoint put: connection reset", err.Error())
}

func TestKind_OutermostWins(t *testing.T) {
	inner := NewTransientError("embed", errors.New("timeout"))
	outer := NewModelCallError("embed", "", inner)
	assert.Equal(t, KindModelCall, Kind(outer))
	assert.True(t, IsTransient(outer))
}

func TestKind_Unknown(t *testing.T) {
	assert.Equal(t, KindUnknown, Kind(errors.New("plain")))
	assert.Equal(t, KindUnknown, Kind(nil))
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "not_found", KindNotFound.String())
}

func TestNotFoundError_Message(t *testing.T) {
	err := NewNotFoundError("resume", "thread", "gen_1_abc", nil)
	assert.Equal(t, "resume: thread gen_1_abc not found", err.Error())
}
