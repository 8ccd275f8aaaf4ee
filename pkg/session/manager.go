package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/logging"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// Mutations of one user are serialized; different users never contend.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration

	ttl      time.Duration // Inactivity TTL, zero disables expiry
	now      func() time.Time
	onExpire func(context.Context, string)
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithTTL sets the inactivity TTL after which a session is considered expired.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithExpireHook registers a callback invoked with the user ID of every expired session.
func WithExpireHook(fn func(context.Context, string)) Option {
	return func(m *Manager) {
		m.onExpire = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		now:     time.Now,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(userID) after unlocking.
func (m *Manager) acquire(userID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		entry = &lockEntry{}
		m.locks[userID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, userID)
	}
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time { return m.now() }

// TTL returns the inactivity TTL.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore { return m.store }

// WithLock executes a function while holding the lock for the user.
func (m *Manager) WithLock(ctx context.Context, userID string, fn func(context.Context) error) error {
	entry := m.acquire(userID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(userID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, userID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"user_id", userID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// load reads a session, deleting it when its TTL has elapsed.
// The caller must hold the user's lock.
func (m *Manager) load(ctx context.Context, userID string) (*domain.Session, error) {
	s, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now(), m.ttl) {
		if err := m.store.Delete(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		m.expired(ctx, userID)
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) expired(ctx context.Context, userID string) {
	m.logger.Debug("session expired", "user_id", userID)
	if m.onExpire != nil {
		m.onExpire(ctx, userID)
	}
}

// Load retrieves the session of a user.
// Missing and expired sessions both yield domain.ErrSessionNotFound.
func (m *Manager) Load(ctx context.Context, userID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		var err error
		s, err = m.load(ctx, userID)
		return err
	})
	return s, err
}

// Save persists the session as given.
func (m *Manager) Save(ctx context.Context, s *domain.Session) error {
	return m.WithLock(ctx, s.UserID, func(ctx context.Context) error {
		return m.store.Save(ctx, s)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, userID string) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		return m.store.Delete(ctx, userID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Reset replaces the user's session with a fresh idle one.
// Resetting twice yields the same observable state as resetting once.
func (m *Manager) Reset(ctx context.Context, userID string) (*domain.Session, error) {
	return m.UpdateOrCreate(ctx, userID, func(*domain.Session) (*domain.Session, error) {
		return domain.NewSession(userID, m.now()), nil
	})
}

// UpdateFunc computes the next session from a private copy of the current one.
// Returning an error discards the change. Returning nil skips the write.
type UpdateFunc func(current *domain.Session) (*domain.Session, error)

// Update runs a locked read-modify-write on an existing session.
// It fails with domain.ErrSessionNotFound when the user has no live session.
// On error the returned session is the unmodified current state, when known.
func (m *Manager) Update(ctx context.Context, userID string, fn UpdateFunc) (*domain.Session, error) {
	return m.update(ctx, userID, false, fn)
}

// UpdateOrCreate is like Update but starts from a fresh idle session when the
// user has none.
func (m *Manager) UpdateOrCreate(ctx context.Context, userID string, fn UpdateFunc) (*domain.Session, error) {
	return m.update(ctx, userID, true, fn)
}

func (m *Manager) update(ctx context.Context, userID string, create bool, fn UpdateFunc) (*domain.Session, error) {
	var result *domain.Session
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		current, err := m.load(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound) && create:
			current = domain.NewSession(userID, m.now())
		case err != nil:
			return err
		}

		next, err := fn(current.Snapshot())
		if err != nil {
			result = current
			return err
		}
		if next == nil {
			result = current
			return nil
		}

		next.UserID = userID
		next.Revision = current.Revision + 1
		next.LastUpdatedAt = m.now()
		if err := m.store.Save(ctx, next); err != nil {
			result = current
			return fmt.Errorf("failed to save session: %w", err)
		}
		result = next
		return nil
	})
	return result.Snapshot(), err
}

// ExpireOlderThan deletes every session idle for longer than age and returns
// how many were removed. Each deletion holds that user's lock, so in-flight
// operations are never interrupted.
func (m *Manager) ExpireOlderThan(ctx context.Context, age time.Duration) (int, error) {
	users, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	removed := 0
	var errs []error
	for _, userID := range users {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		err := m.WithLock(ctx, userID, func(ctx context.Context) error {
			s, err := m.store.Load(ctx, userID)
			if errors.Is(err, domain.ErrSessionNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if !s.Expired(m.now(), age) {
				return nil
			}
			if err := m.store.Delete(ctx, userID); err != nil {
				return err
			}
			removed++
			m.expired(ctx, userID)
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("expire %s: %w", userID, err))
		}
	}
	return removed, errors.Join(errs...)
}
