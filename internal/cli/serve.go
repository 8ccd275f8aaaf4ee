package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	api "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/http"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/session"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

// NewRouter mounts the wizard API and, when enabled, /metrics.
func NewRouter(app *App) (http.Handler, error) {
	handler, err := api.NewHandler(app.Engine,
		api.WithLogger(app.Logger),
		api.WithDeleter(app.Engine.Sessions()),
	)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	if app.Metrics != nil {
		r.Handle("/metrics", app.Metrics.Handler())
	}
	r.Mount("/", handler)
	return r, nil
}

// Serve runs the HTTP server and the session sweeper until ctx is done.
func Serve(ctx context.Context, app *App, addr string) error {
	handler, err := NewRouter(app)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	sweeper := session.NewSweeper(app.Engine.Sessions(), app.Config.Session.SweepInterval, app.Config.Session.TTL, app.Logger)
	go sweeper.Run(sweepCtx)

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting sitewizard server", "address", addr, "store", app.Config.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		app.Logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		return nil
	}
}
