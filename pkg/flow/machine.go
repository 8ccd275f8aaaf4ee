package flow

import (
	"fmt"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/validation"
)

// Machine is the transition function of the customization flow.
// It is stateless and safe for concurrent use; sessions are passed in and out.
type Machine struct {
	registry *templates.Registry
	now      func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the time source used for fresh sessions.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// New creates a Machine over a template registry.
func New(registry *templates.Registry, opts ...Option) *Machine {
	m := &Machine{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the template registry.
func (m *Machine) Registry() *templates.Registry { return m.registry }

// Apply computes the session that results from ev.
// It never mutates s. On error the caller must keep s as is.
func (m *Machine) Apply(s *domain.Session, ev domain.Event) (*domain.Session, error) {
	switch ev.Type {
	case domain.EventReset:
		return m.reset(s), nil
	case domain.EventStart:
		return m.start(s)
	case domain.EventSelectTemplate:
		return m.selectTemplate(s, ev.TemplateID)
	case domain.EventSubmitField:
		return m.submitField(s, ev.Field, ev.Value)
	case domain.EventEditField:
		return m.editField(s, ev.Field)
	case domain.EventConfirm:
		return m.confirm(s)
	case domain.EventGenerate:
		return m.BeginGeneration(s, ev.Attempt)
	}
	return nil, reject(s, ev.Type)
}

func reject(s *domain.Session, ev domain.EventType) error {
	return &domain.TransitionError{Phase: s.Position.Phase, Event: string(ev)}
}

func (m *Machine) reset(s *domain.Session) *domain.Session {
	next := domain.NewSession(s.UserID, m.now())
	next.Revision = s.Revision
	return next
}

func (m *Machine) start(s *domain.Session) (*domain.Session, error) {
	switch s.Position.Phase {
	case domain.PhaseIdle, domain.PhaseSelectingTemplate:
	default:
		return nil, reject(s, domain.EventStart)
	}
	next := s.Snapshot()
	next.Position = domain.Position{Phase: domain.PhaseSelectingTemplate}
	return next, nil
}

func (m *Machine) selectTemplate(s *domain.Session, id string) (*domain.Session, error) {
	switch s.Position.Phase {
	case domain.PhaseIdle, domain.PhaseSelectingTemplate:
	default:
		return nil, reject(s, domain.EventSelectTemplate)
	}
	if _, err := m.registry.Get(id); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidTemplate, err)
	}

	next := s.Snapshot()
	next.TemplateID = id
	next.Fields = make(map[string]string)
	next.History = []int{}
	next.Confirmed = false
	next.Artifact = nil
	next.PendingGeneration = ""
	next.Position = domain.Position{Phase: domain.PhaseCollecting, Step: 0}
	return next, nil
}

func (m *Machine) definition(s *domain.Session) (*templates.Definition, error) {
	def, err := m.registry.Get(s.TemplateID)
	if err != nil {
		// A stored session outlived its template (catalog changed).
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidTemplate, err)
	}
	return def, nil
}

func (m *Machine) submitField(s *domain.Session, name, value string) (*domain.Session, error) {
	if s.Position.Phase != domain.PhaseCollecting {
		return nil, reject(s, domain.EventSubmitField)
	}
	def, err := m.definition(s)
	if err != nil {
		return nil, err
	}

	step, ok := def.StepFor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a field of template %s", domain.ErrUnexpectedField, name, def.ID)
	}
	if step != s.Position.Step {
		return nil, fmt.Errorf("%w: %q belongs to step %d, current step is %d", domain.ErrUnexpectedField, name, step, s.Position.Step)
	}

	spec, _ := def.Field(name)
	normalized, fe := validation.CheckField(spec, value)
	if fe != nil {
		return nil, &domain.FieldValidationError{FieldError: *fe}
	}

	next := s.Snapshot()
	next.Fields[name] = normalized

	if next.Position.Editing != "" {
		if name == next.Position.Editing {
			next.Position = domain.Position{Phase: domain.PhaseReviewing}
		}
		return next, nil
	}

	if !def.StepComplete(step, next.Fields) {
		return next, nil
	}
	if !next.Completed(step) {
		next.History = append(next.History, step)
	}
	if step+1 < def.StepCount() {
		next.Position = domain.Position{Phase: domain.PhaseCollecting, Step: step + 1}
	} else {
		next.Position = domain.Position{Phase: domain.PhaseReviewing}
	}
	return next, nil
}

func (m *Machine) editField(s *domain.Session, name string) (*domain.Session, error) {
	switch s.Position.Phase {
	case domain.PhaseReviewing, domain.PhaseConfirmed, domain.PhaseGenerated:
	default:
		return nil, reject(s, domain.EventEditField)
	}
	def, err := m.definition(s)
	if err != nil {
		return nil, err
	}

	step, ok := def.StepFor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a field of template %s", domain.ErrFieldNotEditable, name, def.ID)
	}
	if !s.Completed(step) {
		return nil, fmt.Errorf("%w: step %d of %q has not been completed", domain.ErrFieldNotEditable, step, name)
	}

	next := s.Snapshot()
	next.Position = domain.Position{Phase: domain.PhaseCollecting, Step: step, Editing: name}
	next.Confirmed = false
	next.PendingGeneration = "" // an in-flight generation no longer matches the fields
	return next, nil
}

func (m *Machine) confirm(s *domain.Session) (*domain.Session, error) {
	if s.Position.Phase != domain.PhaseReviewing {
		return nil, reject(s, domain.EventConfirm)
	}
	def, err := m.definition(s)
	if err != nil {
		return nil, err
	}
	if errs := def.Validate(s.Fields); len(errs) > 0 {
		return nil, &domain.SessionValidationError{Errors: errs}
	}

	next := s.Snapshot()
	next.Confirmed = true
	next.Position = domain.Position{Phase: domain.PhaseConfirmed}
	return next, nil
}

// BeginGeneration stamps a generation attempt on a confirmed session.
// A newer attempt supersedes any attempt still in flight.
func (m *Machine) BeginGeneration(s *domain.Session, attempt string) (*domain.Session, error) {
	if s.Position.Phase != domain.PhaseConfirmed || !s.Confirmed {
		return nil, reject(s, domain.EventGenerate)
	}
	if attempt == "" {
		return nil, fmt.Errorf("%w: empty attempt id", domain.ErrInvalidTransition)
	}

	next := s.Snapshot()
	next.PendingGeneration = attempt
	return next, nil
}

// CompleteGeneration records the artifact of attempt. It fails with a
// GenerationError wrapping domain.ErrGenerationSuperseded when the session no
// longer waits for that attempt.
func (m *Machine) CompleteGeneration(s *domain.Session, attempt string, artifact *domain.Artifact) (*domain.Session, error) {
	if s.PendingGeneration == "" || s.PendingGeneration != attempt || !s.Confirmed {
		return nil, &domain.GenerationError{Attempt: attempt, Err: domain.ErrGenerationSuperseded}
	}

	next := s.Snapshot()
	a := *artifact
	next.Artifact = &a
	next.PendingGeneration = ""
	next.Position = domain.Position{Phase: domain.PhaseGenerated}
	return next, nil
}

// FailGeneration clears the stamp of a failed attempt so the user can retry.
// It returns nil when the session no longer waits for attempt.
func (m *Machine) FailGeneration(s *domain.Session, attempt string) *domain.Session {
	if s.PendingGeneration != attempt {
		return nil
	}
	next := s.Snapshot()
	next.PendingGeneration = ""
	return next
}
