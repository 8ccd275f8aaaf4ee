package sitewizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/generator"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/memory"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/flow"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/session"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
	"github.com/google/uuid"
)

// Version is the library version reported by transports.
const Version = "0.4.0"

// DefaultGenerateTimeout bounds a single generator call.
const DefaultGenerateTimeout = 2 * time.Minute

// Response is the outcome of an engine operation.
type Response = flow.Response

// Engine is the entry point of the wizard. It wires the template registry,
// the session manager, the flow machine and the generator.
// All methods are safe for concurrent use.
type Engine struct {
	registry  *templates.Registry
	machine   *flow.Machine
	sessions  *session.Manager
	generator ports.Generator

	store      ports.SessionStore
	locker     ports.DistributedLocker
	ttl        time.Duration
	timeout    time.Duration
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time
	newAttempt func() string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry sets the template catalog (default: the built-in catalog).
func WithRegistry(r *templates.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithStore sets the session store (default: in memory).
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithLocker enables distributed per-user locks.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithSessionTTL expires sessions idle for longer than ttl.
func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.ttl = ttl }
}

// WithGenerator sets the site generator (default: local descriptors).
func WithGenerator(g ports.Generator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithGenerateTimeout bounds each generator call.
func WithGenerateTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = e.hooks.Merge(hooks) }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithAttemptIDs overrides how generation attempt IDs are minted.
func WithAttemptIDs(fn func() string) Option {
	return func(e *Engine) { e.newAttempt = fn }
}

// New initializes an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		timeout:    DefaultGenerateTimeout,
		now:        time.Now,
		newAttempt: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if e.registry == nil {
		r, err := templates.Builtin()
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in catalog: %w", err)
		}
		e.registry = r
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.generator == nil {
		g, err := generator.NewLocal(generator.LocalConfig{})
		if err != nil {
			return nil, err
		}
		e.generator = g
	}

	mgrOpts := []session.Option{
		session.WithTTL(e.ttl),
		session.WithClock(e.now),
		session.WithLogger(e.logger),
		session.WithExpireHook(e.expired),
	}
	if e.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, mgrOpts...)
	e.machine = flow.New(e.registry, flow.WithClock(e.now))
	return e, nil
}

// NewRegistry compiles the catalog exposed by a CatalogSource.
func NewRegistry(ctx context.Context, src ports.CatalogSource) (*templates.Registry, error) {
	doc, err := src.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return templates.Build(doc)
}

// Registry returns the template catalog.
func (e *Engine) Registry() *templates.Registry { return e.registry }

// Sessions returns the session manager, for maintenance tasks.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Templates lists the available templates.
func (e *Engine) Templates() []templates.Summary { return e.registry.List() }

// Themes lists the available color themes.
func (e *Engine) Themes() []templates.Theme { return e.registry.Themes() }

// Start opens the template menu, creating the session if needed.
func (e *Engine) Start(ctx context.Context, userID string) (*Response, error) {
	return e.apply(ctx, userID, domain.Event{Type: domain.EventStart}, true)
}

// SelectTemplate chooses the template and moves to its first step.
func (e *Engine) SelectTemplate(ctx context.Context, userID, templateID string) (*Response, error) {
	return e.apply(ctx, userID, domain.Event{Type: domain.EventSelectTemplate, TemplateID: templateID}, true)
}

// SubmitField records the value of a field of the current step.
func (e *Engine) SubmitField(ctx context.Context, userID, field, value string) (*Response, error) {
	return e.apply(ctx, userID, domain.Event{Type: domain.EventSubmitField, Field: field, Value: value}, false)
}

// EditField reopens a completed field from the review summary.
func (e *Engine) EditField(ctx context.Context, userID, field string) (*Response, error) {
	return e.apply(ctx, userID, domain.Event{Type: domain.EventEditField, Field: field}, false)
}

// Confirm validates the whole session and locks it for generation.
func (e *Engine) Confirm(ctx context.Context, userID string) (*Response, error) {
	return e.apply(ctx, userID, domain.Event{Type: domain.EventConfirm}, false)
}

// Reset discards the user's progress.
func (e *Engine) Reset(ctx context.Context, userID string) (*Response, error) {
	return e.apply(ctx, userID, domain.Event{Type: domain.EventReset}, true)
}

// State returns the current session and prompt without changing anything.
func (e *Engine) State(ctx context.Context, userID string) (*Response, error) {
	s, err := e.sessions.Load(ctx, userID)
	if err != nil {
		return nil, e.wrapMissing(err)
	}
	return e.respond(s, nil), nil
}

// Dispatch routes a generic event to the matching operation.
func (e *Engine) Dispatch(ctx context.Context, userID string, ev domain.Event) (*Response, error) {
	switch ev.Type {
	case domain.EventGenerate:
		return e.Generate(ctx, userID)
	case domain.EventStart, domain.EventSelectTemplate, domain.EventReset:
		return e.apply(ctx, userID, ev, true)
	case domain.EventSubmitField, domain.EventEditField, domain.EventConfirm:
		return e.apply(ctx, userID, ev, false)
	}
	return nil, fmt.Errorf("%w: unknown event %q", domain.ErrInvalidTransition, ev.Type)
}

// apply runs one transition under the user's lock.
// On a rejected event the response still describes the unchanged session.
func (e *Engine) apply(ctx context.Context, userID string, ev domain.Event, create bool) (*Response, error) {
	var from domain.Position
	update := e.sessions.Update
	if create {
		update = e.sessions.UpdateOrCreate
	}

	s, err := update(ctx, userID, func(current *domain.Session) (*domain.Session, error) {
		from = current.Position
		return e.machine.Apply(current, ev)
	})
	err = e.wrapMissing(err)
	e.observe(ctx, userID, ev.Type, s, from, err)
	if s == nil {
		return nil, err
	}
	return e.respond(s, err), err
}

// Generate runs the generator for a confirmed session. The session lock is
// held only to stamp the attempt and to record its outcome; a result that
// arrives after the session moved on is discarded.
func (e *Engine) Generate(ctx context.Context, userID string) (*Response, error) {
	attempt := e.newAttempt()

	var from domain.Position
	s, err := e.sessions.Update(ctx, userID, func(current *domain.Session) (*domain.Session, error) {
		from = current.Position
		return e.machine.BeginGeneration(current, attempt)
	})
	if err != nil {
		err = e.wrapMissing(err)
		e.observe(ctx, userID, domain.EventGenerate, s, from, err)
		if s == nil {
			return nil, err
		}
		return e.respond(s, err), err
	}

	artifact, genErr := e.run(ctx, s, attempt)

	var next *domain.Session
	if genErr != nil {
		genErr = &domain.GenerationError{Attempt: attempt, Err: genErr}
		next, err = e.sessions.Update(ctx, userID, func(current *domain.Session) (*domain.Session, error) {
			return e.machine.FailGeneration(current, attempt), nil
		})
		if err == nil {
			err = genErr
		}
	} else {
		next, err = e.sessions.Update(ctx, userID, func(current *domain.Session) (*domain.Session, error) {
			return e.machine.CompleteGeneration(current, attempt, artifact)
		})
	}

	err = e.wrapMissing(err)
	e.observe(ctx, userID, domain.EventGenerate, next, from, err)
	if next == nil {
		return nil, err
	}
	return e.respond(next, err), err
}

// run calls the generator with no lock held.
func (e *Engine) run(ctx context.Context, s *domain.Session, attempt string) (*domain.Artifact, error) {
	def, err := e.registry.Get(s.TemplateID)
	if err != nil {
		return nil, err
	}
	req := ports.GenerateRequest{
		Attempt:    attempt,
		UserID:     s.UserID,
		TemplateID: s.TemplateID,
		Fields:     s.Snapshot().Fields,
		Values:     def.Resolve(s.Fields, themeMap(e.registry)),
		Sections:   def.Sections(s.Fields),
	}

	gctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := e.now()
	e.logger.Debug("generating site", "user_id", s.UserID, "template_id", s.TemplateID, "attempt", attempt)
	artifact, err := e.generator.Generate(gctx, req)
	if err == nil && artifact == nil {
		err = errors.New("generator returned no artifact")
	}

	if e.hooks.OnGenerate != nil {
		e.hooks.OnGenerate(ctx, &domain.GenerationEvent{
			Timestamp:  e.now(),
			UserID:     s.UserID,
			TemplateID: s.TemplateID,
			Attempt:    attempt,
			Duration:   e.now().Sub(start),
			Err:        err,
		})
	}
	if err != nil {
		e.logger.Warn("generation failed", "user_id", s.UserID, "template_id", s.TemplateID, "attempt", attempt, "err", err)
	}
	return artifact, err
}

func themeMap(r *templates.Registry) map[string]templates.Theme {
	out := make(map[string]templates.Theme)
	for _, t := range r.Themes() {
		out[t.ID] = t
	}
	return out
}

// wrapMissing reports a vanished session as expired.
func (e *Engine) wrapMissing(err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}
	return err
}

func (e *Engine) respond(s *domain.Session, err error) *Response {
	return &Response{
		Session: s,
		Prompt:  e.machine.Prompt(s),
		Errors:  domain.FieldErrors(err),
	}
}

func (e *Engine) observe(ctx context.Context, userID string, ev domain.EventType, s *domain.Session, from domain.Position, err error) {
	var templateID string
	to := from
	if s != nil {
		templateID = s.TemplateID
		to = s.Position
	}

	log := e.logger.With("user_id", userID, "event", string(ev), "phase", string(to.Phase))
	switch {
	case err == nil:
		log.Debug("transition", "from", string(from.Phase))
	case domain.Recoverable(err):
		log.Info("event rejected", "err", err)
	default:
		log.Error("event failed", "err", err)
	}

	for _, fe := range domain.FieldErrors(err) {
		if e.hooks.OnValidation != nil {
			e.hooks.OnValidation(ctx, &domain.ValidationEvent{
				Timestamp:  e.now(),
				UserID:     userID,
				TemplateID: templateID,
				Error:      fe,
			})
		}
	}
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionEvent{
			Timestamp:  e.now(),
			UserID:     userID,
			TemplateID: templateID,
			Event:      ev,
			From:       from,
			To:         to,
			Err:        err,
		})
	}
}

func (e *Engine) expired(ctx context.Context, userID string) {
	if e.hooks.OnExpire != nil {
		e.hooks.OnExpire(ctx, userID)
	}
}
