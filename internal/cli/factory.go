package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	sitewizard "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/config"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/logging"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/metrics"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/file"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/generator"
	loamcatalog "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/loam"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/memory"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/process"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/redis"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/persistence/middleware"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
)

// App bundles an engine with the adapters chosen by the configuration.
type App struct {
	Config  *config.Config
	Engine  *sitewizard.Engine
	Store   ports.SessionStore
	Metrics *metrics.Collector
	Logger  *slog.Logger

	closers []func() error
}

// NewApp wires an engine from cfg. Extra options are applied last.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...sitewizard.Option) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	app := &App{Config: cfg, Logger: logger}

	store, locker, err := app.buildStore()
	if err != nil {
		return nil, err
	}
	if store, err = sealStore(store, cfg.Store); err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Store = store

	gen, err := buildGenerator(cfg.Generator)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	registry, err := buildRegistry(ctx, cfg.Templates)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	hooks := LoggingHooks(logger)
	if cfg.Metrics.Enabled {
		if app.Metrics, err = metrics.New(nil); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		hooks = hooks.Merge(app.Metrics.Hooks())
	}

	opts := []sitewizard.Option{
		sitewizard.WithRegistry(registry),
		sitewizard.WithStore(store),
		sitewizard.WithSessionTTL(cfg.Session.TTL),
		sitewizard.WithGenerator(gen),
		sitewizard.WithGenerateTimeout(cfg.Generator.Timeout),
		sitewizard.WithLifecycleHooks(hooks),
		sitewizard.WithLogger(logger),
	}
	if locker != nil {
		opts = append(opts, sitewizard.WithLocker(locker))
	}

	engine, err := sitewizard.New(append(opts, extra...)...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = engine
	return app, nil
}

// Close releases the store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) buildStore() (ports.SessionStore, ports.DistributedLocker, error) {
	cfg := a.Config
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreFile:
		return file.New(cfg.Store.Path), nil, nil
	case config.StoreRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(redisKeyTTL(cfg.Session)),
		)
		a.closers = append(a.closers, store.Close)
		if !cfg.Redis.Lock {
			return store, nil, nil
		}
		return store, redis.NewLocker(store.Client(), cfg.Redis.Prefix), nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// redisKeyTTL keeps keys past the session TTL for one sweep interval, at
// least a minute, so lazy expiry or the sweeper sees a stale session before
// Redis drops it and the expiry hooks still fire. Sessions that are never
// loaded again while the sweeper is off are dropped by Redis silently.
func redisKeyTTL(cfg config.Session) time.Duration {
	if cfg.TTL <= 0 {
		return 0
	}
	return cfg.TTL + max(cfg.SweepInterval, time.Minute)
}

// sealStore wraps store with encryption when a key is configured.
func sealStore(store ports.SessionStore, cfg config.Store) (ports.SessionStore, error) {
	if cfg.EncryptionKey == "" {
		return store, nil
	}
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store encryption key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store fallback key: %w", err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryption(enc)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}

func buildGenerator(cfg config.Generator) (ports.Generator, error) {
	switch cfg.Kind {
	case config.GeneratorLocal:
		return generator.NewLocal(generator.LocalConfig{
			BaseURL:   cfg.BaseURL,
			Hosting:   cfg.Hosting,
			Owner:     cfg.Owner,
			OutputDir: cfg.OutputDir,
		})
	case config.GeneratorHTTP:
		return generator.NewHTTP(cfg.URL, generator.WithTimeout(cfg.Timeout))
	case config.GeneratorCommand:
		// Config keys are case-insensitive; environment names are not.
		env := make(map[string]string, len(cfg.Env))
		for k, v := range cfg.Env {
			env[strings.ToUpper(k)] = v
		}
		return process.NewGenerator(process.Config{
			Command: cfg.Command,
			Args:    cfg.Args,
			Dir:     cfg.Dir,
			Env:     env,
		})
	}
	return nil, fmt.Errorf("unknown generator kind %q", cfg.Kind)
}

func buildRegistry(ctx context.Context, cfg config.Templates) (*templates.Registry, error) {
	switch {
	case cfg.Path != "":
		return templates.LoadFile(cfg.Path)
	case cfg.LoamDir != "":
		src, err := loamcatalog.Open(cfg.LoamDir)
		if err != nil {
			return nil, err
		}
		return sitewizard.NewRegistry(ctx, src)
	}
	return templates.Builtin()
}

// NewLogger builds the command logger from the log section.
func NewLogger(w io.Writer, cfg config.Log) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(w, cfg.Format, level)
}
