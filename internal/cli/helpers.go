package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// LoggingHooks traces the engine lifecycle at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			if e.Err != nil {
				logger.Debug("Transition rejected", "user_id", e.UserID, "event", string(e.Event), "err", e.Err)
				return
			}
			logger.Debug("Transition", "user_id", e.UserID, "event", string(e.Event),
				"from", string(e.From.Phase), "to", string(e.To.Phase), "step", e.To.Step)
		},
		OnValidation: func(ctx context.Context, e *domain.ValidationEvent) {
			logger.Debug("Field rejected", "user_id", e.UserID, "template_id", e.TemplateID,
				"field", e.Error.Field, "code", e.Error.Code)
		},
		OnGenerate: func(ctx context.Context, e *domain.GenerationEvent) {
			logger.Debug("Generation returned", "user_id", e.UserID, "attempt", e.Attempt,
				"duration", e.Duration, "failed", e.Err != nil)
		},
		OnExpire: func(ctx context.Context, userID string) {
			logger.Debug("Session expired", "user_id", userID)
		},
	}
}

// isInterrupted reports whether err comes from the user leaving the flow.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, terminal.InterruptErr) ||
		errors.Is(err, io.EOF)
}

// HandleExecutionError maps interruptions to a clean exit.
func HandleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
