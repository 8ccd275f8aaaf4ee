package ports

import (
	"context"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
)

// GenerateRequest is the input of a generation attempt.
type GenerateRequest struct {
	// Attempt identifies the generation attempt; generators may use it as an idempotency key.
	Attempt string `json:"attempt"`

	UserID     string `json:"user_id"`
	TemplateID string `json:"template_id"`

	// Fields are the normalized values exactly as stored in the session.
	Fields map[string]string `json:"fields"`

	// Values are Fields plus defaults and derived values.
	Values   map[string]string `json:"values"`
	Sections []string          `json:"sections,omitempty"`
}

// Generator turns a confirmed session into an artifact.
// It is called without any session lock held and may be slow.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*domain.Artifact, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (*domain.Artifact, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (*domain.Artifact, error) {
	return f(ctx, req)
}
