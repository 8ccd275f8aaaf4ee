package domain

import (
	"context"
	"time"
)

// EventType names an inbound flow event.
type EventType string

const (
	EventStart          EventType = "start"
	EventSelectTemplate EventType = "select_template"
	EventSubmitField    EventType = "submit_field"
	EventEditField      EventType = "edit_field"
	EventConfirm        EventType = "confirm"
	EventGenerate       EventType = "generate"
	EventReset          EventType = "reset"
)

// Event is a single step request for one user.
type Event struct {
	Type       EventType `json:"type"`
	TemplateID string    `json:"template_id,omitempty"`
	Field      string    `json:"field,omitempty"`
	Value      string    `json:"value,omitempty"`

	// Attempt identifies a generation attempt (EventGenerate only).
	Attempt string `json:"attempt,omitempty"`
}

// TransitionEvent is emitted after every processed event, successful or not.
type TransitionEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"user_id"`
	TemplateID string    `json:"template_id,omitempty"`
	Event      EventType `json:"event"`
	From       Position  `json:"from"`
	To         Position  `json:"to"`
	Err        error     `json:"-"`
}

// ValidationEvent is emitted for each rejected field.
type ValidationEvent struct {
	Timestamp  time.Time  `json:"timestamp"`
	UserID     string     `json:"user_id"`
	TemplateID string     `json:"template_id"`
	Error      FieldError `json:"error"`
}

// GenerationEvent is emitted when a generator call returns.
type GenerationEvent struct {
	Timestamp  time.Time     `json:"timestamp"`
	UserID     string        `json:"user_id"`
	TemplateID string        `json:"template_id"`
	Attempt    string        `json:"attempt"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnValidation func(context.Context, *ValidationEvent)
	OnGenerate   func(context.Context, *GenerationEvent)
	OnExpire     func(context.Context, string)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnValidation: chain(h.OnValidation, other.OnValidation),
		OnGenerate:   chain(h.OnGenerate, other.OnGenerate),
		OnExpire:     chain(h.OnExpire, other.OnExpire),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
