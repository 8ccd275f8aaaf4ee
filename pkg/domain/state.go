package domain

import (
	"slices"
	"time"
)

// Phase identifies the coarse position of a session in the customization flow.
type Phase string

const (
	PhaseIdle              Phase = "idle"               // No template chosen
	PhaseSelectingTemplate Phase = "selecting_template" // Template catalog presented
	PhaseCollecting        Phase = "collecting"         // Collecting the fields of Position.Step
	PhaseReviewing         Phase = "reviewing"          // Summary presented, awaiting confirm or edit
	PhaseConfirmed         Phase = "confirmed"          // Reviewed and accepted, ready to generate
	PhaseGenerated         Phase = "generated"          // Artifact produced
)

// Terminal reports whether the phase ends the customization part of the flow.
func (p Phase) Terminal() bool {
	return p == PhaseConfirmed || p == PhaseGenerated
}

// Position is the flow position of a session.
type Position struct {
	Phase Phase `json:"phase"`

	// Step is the index of the step being collected (PhaseCollecting only).
	Step int `json:"step"`

	// Editing names the field being re-entered from the review summary.
	// When set, a successful submission of that field returns to PhaseReviewing.
	Editing string `json:"editing,omitempty"`
}

// Session is the persisted progress of one user through the customization flow.
type Session struct {
	UserID     string            `json:"user_id"`
	TemplateID string            `json:"template_id,omitempty"`
	Position   Position          `json:"position"`
	Fields     map[string]string `json:"fields"`

	// History holds the indices of completed steps in completion order.
	// An index appears at most once.
	History []int `json:"history"`

	Confirmed bool      `json:"confirmed"`
	Artifact  *Artifact `json:"artifact,omitempty"`

	// PendingGeneration is the attempt ID of the generation in flight, if any.
	PendingGeneration string `json:"pending_generation,omitempty"`

	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`

	// Revision increases on every persisted mutation.
	Revision int64 `json:"revision"`
}

// NewSession creates an idle session for the given user.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:        userID,
		Position:      Position{Phase: PhaseIdle},
		Fields:        make(map[string]string),
		History:       []int{},
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		cp.Fields[k] = v
	}
	cp.History = slices.Clone(s.History)
	if cp.History == nil {
		cp.History = []int{}
	}
	if s.Artifact != nil {
		a := *s.Artifact
		cp.Artifact = &a
	}
	return &cp
}

// Completed reports whether the step index is recorded in History.
func (s *Session) Completed(step int) bool {
	return slices.Contains(s.History, step)
}

// Expired reports whether the session has been idle for longer than ttl.
// A non-positive ttl never expires.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.LastUpdatedAt) > ttl
}

// Artifact describes a generated site. The core treats it as opaque.
type Artifact struct {
	ID         string    `json:"id"`
	TemplateID string    `json:"template_id"`
	SiteHash   string    `json:"site_hash"`
	Hosting    string    `json:"hosting,omitempty"`
	RawURL     string    `json:"raw_url,omitempty"`
	PreviewURL string    `json:"preview_url,omitempty"`
	RepoURL    string    `json:"repo_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
