package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_SnapshotIsDeep(t *testing.T) {
	s := NewSession("u", time.Now())
	s.Fields["a"] = "1"
	s.History = append(s.History, 0)
	s.Artifact = &Artifact{ID: "x"}

	cp := s.Snapshot()
	cp.Fields["a"] = "2"
	cp.History[0] = 9
	cp.Artifact.ID = "y"

	assert.Equal(t, "1", s.Fields["a"])
	assert.Equal(t, []int{0}, s.History)
	assert.Equal(t, "x", s.Artifact.ID)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := NewSession("u", now.Add(-2*time.Hour))

	assert.True(t, s.Expired(now, time.Hour))
	assert.False(t, s.Expired(now, 3*time.Hour))
	assert.False(t, s.Expired(now, 0), "non-positive ttl never expires")
}

func TestErrors_Taxonomy(t *testing.T) {
	fve := &FieldValidationError{FieldError{Field: "logoUrl", Code: "invalid_url", Reason: "must be an absolute URL"}}
	wrapped := fmt.Errorf("submit: %w", fve)

	assert.ErrorIs(t, wrapped, ErrFieldValidation)
	assert.Equal(t, []FieldError{fve.FieldError}, FieldErrors(wrapped))
	assert.True(t, Recoverable(wrapped))

	sve := &SessionValidationError{Errors: []FieldError{{Field: "a", Code: "required"}, {Field: "b", Code: "required"}}}
	assert.ErrorIs(t, sve, ErrSessionValidation)
	assert.Len(t, FieldErrors(sve), 2)

	gen := &GenerationError{Attempt: "1", Err: ErrGenerationSuperseded}
	assert.ErrorIs(t, gen, ErrGeneration)
	assert.ErrorIs(t, gen, ErrGenerationSuperseded)
	assert.True(t, Recoverable(gen))

	assert.ErrorIs(t, &TransitionError{Phase: PhaseIdle, Event: "confirm"}, ErrInvalidTransition)
	assert.False(t, Recoverable(errors.New("disk on fire")))
	assert.False(t, Recoverable(ErrSessionExpired))
}
