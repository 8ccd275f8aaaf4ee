package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned by stores when a user has no persisted session.
var ErrSessionNotFound = errors.New("session not found")

// ErrTemplateNotFound is returned by the registry for unknown template IDs.
var ErrTemplateNotFound = errors.New("template not found")

var (
	ErrInvalidTemplate      = errors.New("invalid template")
	ErrUnexpectedField      = errors.New("unexpected field")
	ErrFieldValidation      = errors.New("field validation failed")
	ErrSessionValidation    = errors.New("session validation failed")
	ErrFieldNotEditable     = errors.New("field not editable")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrSessionExpired       = errors.New("session expired")
	ErrGeneration           = errors.New("generation failed")
	ErrGenerationSuperseded = errors.New("generation superseded")
)

// FieldError describes why a single field was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// FieldValidationError is returned when a submitted value fails its rule.
type FieldValidationError struct {
	FieldError
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func (e *FieldValidationError) Is(target error) bool { return target == ErrFieldValidation }

// SessionValidationError lists every missing or invalid field found at confirmation.
type SessionValidationError struct {
	Errors []FieldError
}

func (e *SessionValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "session invalid: " + e.Errors[0].String()
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return fmt.Sprintf("session invalid: %d errors: %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *SessionValidationError) Is(target error) bool { return target == ErrSessionValidation }

// TransitionError reports an event that is not accepted in the current phase.
type TransitionError struct {
	Phase Phase
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s not allowed in phase %s", e.Event, e.Phase)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// GenerationError wraps a generator failure. It is retryable from PhaseConfirmed.
type GenerationError struct {
	Attempt string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (attempt %s): %v", e.Attempt, e.Err)
}

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

func (e *GenerationError) Unwrap() error { return e.Err }

// FieldErrors extracts the field-level errors carried by err, if any.
func FieldErrors(err error) []FieldError {
	var fve *FieldValidationError
	if errors.As(err, &fve) {
		return []FieldError{fve.FieldError}
	}
	var sve *SessionValidationError
	if errors.As(err, &sve) {
		return sve.Errors
	}
	return nil
}

// Recoverable reports whether err leaves the session untouched and can be
// shown to the user as a normal flow outcome.
func Recoverable(err error) bool {
	for _, target := range []error{
		ErrInvalidTemplate, ErrUnexpectedField, ErrFieldValidation, ErrSessionValidation,
		ErrFieldNotEditable, ErrInvalidTransition, ErrGeneration,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err rejects the input itself rather than the
// moment it was sent.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidTemplate, ErrUnexpectedField, ErrFieldValidation, ErrSessionValidation, ErrFieldNotEditable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
