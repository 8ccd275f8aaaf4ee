package http

import (
	"errors"
	"net/http"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
)

// Error codes returned in error bodies.
const (
	CodeBadRequest           = "bad_request"
	CodeNotFound             = "not_found"
	CodeSessionExpired       = "session_expired"
	CodeValidation           = "validation_failed"
	CodeInvalidTransition    = "invalid_transition"
	CodeGenerationSuperseded = "generation_superseded"
	CodeGenerationFailed     = "generation_failed"
	CodeInternal             = "internal"
)

// statusFor maps engine errors to HTTP statuses. Order matters: expired
// sessions also match ErrSessionNotFound and unknown templates also match
// ErrInvalidTemplate.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusGone, CodeSessionExpired
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrFieldValidation),
		errors.Is(err, domain.ErrSessionValidation),
		errors.Is(err, domain.ErrUnexpectedField),
		errors.Is(err, domain.ErrFieldNotEditable),
		errors.Is(err, domain.ErrInvalidTemplate):
		return http.StatusUnprocessableEntity, CodeValidation
	case errors.Is(err, domain.ErrGenerationSuperseded):
		return http.StatusConflict, CodeGenerationSuperseded
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, CodeInvalidTransition
	case errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway, CodeGenerationFailed
	}
	return http.StatusInternalServerError, CodeInternal
}
