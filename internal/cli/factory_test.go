package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/config"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/file"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/memory"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Log:       config.Log{Level: "info", Format: "text"},
		Store:     config.Store{Driver: config.StoreMemory},
		Session:   config.Session{TTL: time.Hour},
		Generator: config.Generator{Kind: config.GeneratorLocal, Timeout: time.Minute, Hosting: "local"},
	}
}

func TestRedisKeyTTL(t *testing.T) {
	assert.Equal(t, time.Duration(0), redisKeyTTL(config.Session{}))
	assert.Equal(t, time.Hour+time.Minute, redisKeyTTL(config.Session{TTL: time.Hour}))
	assert.Equal(t, time.Hour+time.Minute, redisKeyTTL(config.Session{TTL: time.Hour, SweepInterval: time.Second}))
	assert.Equal(t, 25*time.Hour, redisKeyTTL(config.Session{TTL: 24 * time.Hour, SweepInterval: time.Hour}))
}

func TestNewApp_Stores(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		app, err := NewApp(ctx, testConfig(), nil)
		require.NoError(t, err)
		defer app.Close()
		assert.IsType(t, &memory.Store{}, app.Store)
		assert.Nil(t, app.Metrics)
	})

	t.Run("file", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store = config.Store{Driver: config.StoreFile, Path: t.TempDir()}
		app, err := NewApp(ctx, cfg, nil)
		require.NoError(t, err)
		defer app.Close()
		assert.IsType(t, &file.Store{}, app.Store)

		_, err = app.Engine.Start(ctx, "u1")
		require.NoError(t, err)
		users, err := app.Store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"u1"}, users)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.Store.Driver = config.StoreRedis
		cfg.Redis = config.Redis{Addr: mr.Addr(), Prefix: "wiz:", Lock: true}
		app, err := NewApp(ctx, cfg, nil)
		require.NoError(t, err)
		defer app.Close()
		assert.IsType(t, &redis.Store{}, app.Store)

		_, err = app.Engine.SelectTemplate(ctx, "u1", "nft")
		require.NoError(t, err)
		assert.True(t, mr.Exists("wiz:session:u1"))
		assert.Equal(t, time.Hour+time.Minute, mr.TTL("wiz:session:u1"), "key outlives the session TTL")
	})

	t.Run("sealed", func(t *testing.T) {
		dir := t.TempDir()
		cfg := testConfig()
		cfg.Store = config.Store{Driver: config.StoreFile, Path: dir, EncryptionKey: strings.Repeat("ab", 32)}
		app, err := NewApp(ctx, cfg, nil)
		require.NoError(t, err)
		defer app.Close()

		_, err = app.Engine.SelectTemplate(ctx, "u1", "memecoin")
		require.NoError(t, err)
		_, err = app.Engine.SubmitField(ctx, "u1", "coinName", "SecretDoge")
		require.NoError(t, err)

		raw, err := file.New(dir).Load(ctx, "u1")
		require.NoError(t, err)
		assert.NotContains(t, raw.Fields, "coinName")

		resp, err := app.Engine.State(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "SecretDoge", resp.Session.Fields["coinName"])
	})

	t.Run("bad key", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store.EncryptionKey = "short"
		_, err := NewApp(ctx, cfg, nil)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store.Driver = "etcd"
		_, err := NewApp(ctx, cfg, nil)
		assert.Error(t, err)
	})
}

func TestNewApp_Catalogs(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - id: poll
    name: Poll
    steps:
      - id: question
        fields:
          - { name: question, label: Question, rule: text, required: true }
`), 0o644))
		cfg := testConfig()
		cfg.Templates.Path = path
		app, err := NewApp(ctx, cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"poll"}, app.Engine.Registry().IDs())
	})

	t.Run("builtin", func(t *testing.T) {
		app, err := NewApp(ctx, testConfig(), nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"memecoin", "nft", "defi"}, app.Engine.Registry().IDs())
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := testConfig()
		cfg.Templates.Path = filepath.Join(t.TempDir(), "nope.yaml")
		_, err := NewApp(ctx, cfg, nil)
		assert.Error(t, err)
	})
}

func TestNewApp_Generators(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.Generator.Kind = config.GeneratorHTTP
	cfg.Generator.URL = "http://render.local"
	_, err := NewApp(ctx, cfg, nil)
	require.NoError(t, err)

	cfg = testConfig()
	cfg.Generator.Hosting = "github"
	_, err = NewApp(ctx, cfg, nil)
	assert.Error(t, err, "github hosting needs an owner")

	cfg.Generator.Owner = "octo"
	_, err = NewApp(ctx, cfg, nil)
	assert.NoError(t, err)

	cfg = testConfig()
	cfg.Generator.Kind = config.GeneratorCommand
	cfg.Generator.Command = "no-such-render-command"
	_, err = NewApp(ctx, cfg, nil)
	assert.Error(t, err, "the command must resolve")
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(os.Stderr, config.Log{Level: "debug", Format: "json"})
	assert.NoError(t, err)
	_, err = NewLogger(os.Stderr, config.Log{Level: "debug", Format: "xml"})
	assert.Error(t, err)
	_, err = NewLogger(os.Stderr, config.Log{Level: "chatty"})
	assert.Error(t, err)
}
