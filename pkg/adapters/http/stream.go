package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
)

// StreamManager fans session diffs out to SSE subscribers.
// Diffs are computed against the last session broadcast for that user, so a
// new subscriber's first message carries the whole session.
type StreamManager struct {
	mu          sync.Mutex
	subscribers map[string]map[chan string]struct{} // UserID -> set of channels
	last        map[string]*domain.Session
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		last:        make(map[string]*domain.Session),
		logger:      logger,
	}
}

// Subscribe registers a listener for userID. The returned function
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(userID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[userID]; !ok {
		sm.subscribers[userID] = make(map[chan string]struct{})
	}
	sm.subscribers[userID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			subs := sm.subscribers[userID]
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, userID)
				delete(sm.last, userID)
			}
		})
	}
}

// Subscribers returns the number of listeners for userID.
func (sm *StreamManager) Subscribers(userID string) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.subscribers[userID])
}

// Publish sends the diff between the last published session and s.
// Nothing is computed when no one listens. Handlers publish after the session
// lock is released, so a session older than the last one sent is dropped.
func (sm *StreamManager) Publish(s *domain.Session) {
	if s == nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	subs := sm.subscribers[s.UserID]
	if len(subs) == 0 {
		return
	}
	last := sm.last[s.UserID]
	if stale(last, s) {
		return
	}
	diff := domain.Diff(last, s)
	sm.last[s.UserID] = s.Snapshot()
	if diff == nil {
		return
	}
	payload, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("failed to encode session diff", "user_id", s.UserID, "err", err)
		return
	}

	for ch := range subs {
		select {
		case ch <- string(payload):
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "user_id", s.UserID)
		}
	}
}

// Forget drops the last published session of userID. The next publish
// carries the whole session.
func (sm *StreamManager) Forget(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.last, userID)
}

// stale reports whether s was committed before last. Revisions restart when a
// session is deleted or expires, so a later creation time marks a new session.
func stale(last, s *domain.Session) bool {
	if last == nil {
		return false
	}
	if s.CreatedAt.Before(last.CreatedAt) {
		return true
	}
	return s.CreatedAt.Equal(last.CreatedAt) && s.Revision <= last.Revision
}

// matchesWatch reports whether a diff touches one of the watched sections.
func matchesWatch(payload string, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	var diff domain.SessionDiff
	if err := json.Unmarshal([]byte(payload), &diff); err != nil {
		return true
	}
	for _, w := range watch {
		switch strings.TrimSpace(w) {
		case "fields":
			if len(diff.Fields) > 0 {
				return true
			}
		case "position":
			if diff.Position != nil || diff.TemplateID != nil {
				return true
			}
		case "history":
			if diff.History != nil || len(diff.Appended) > 0 {
				return true
			}
		case "confirmed":
			if diff.Confirmed != nil {
				return true
			}
		case "artifact":
			if diff.Artifact != nil || diff.ClearedArtifact {
				return true
			}
		}
	}
	return false
}
