package ports

import (
	"context"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
)

// SessionStore defines the interface for persisting wizard sessions.
// Implementations must be safe for concurrent use; callers serialize
// mutations of a single user through the session manager.
type SessionStore interface {
	// Save upserts the session keyed by its UserID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session of a user.
	// Returns domain.ErrSessionNotFound if the user has no session.
	Load(ctx context.Context, userID string) (*domain.Session, error)

	// Delete removes the session of a user. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID string) error

	// List returns the IDs of every user with a stored session.
	List(ctx context.Context) ([]string, error)
}
