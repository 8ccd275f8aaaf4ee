package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/logging"
)

// Sweeper periodically removes sessions idle for longer than MaxAge.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper. A nil logger discards output.
func NewSweeper(m *Manager, interval, maxAge time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{manager: m, interval: interval, maxAge: maxAge, logger: logger}
}

// Sweep runs a single pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.manager.ExpireOlderThan(ctx, s.maxAge)
	if err != nil {
		s.logger.Warn("session sweep incomplete", "removed", n, "err", err)
		return n, err
	}
	if n > 0 {
		s.logger.Info("expired idle sessions", "removed", n)
	}
	return n, nil
}

// Run sweeps every interval until ctx is canceled.
// A non-positive interval or max age disables sweeping; Run then just waits.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 || s.maxAge <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}
