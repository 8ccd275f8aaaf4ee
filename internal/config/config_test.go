package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, GeneratorLocal, cfg.Generator.Kind)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 2*time.Minute, cfg.Generator.Timeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.File)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitewizard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: redis
redis:
  addr: cache:6379
  db: 2
session:
  ttl: 30m
generator:
  kind: http
  url: http://render:9000
`), 0o644))

	t.Setenv("SITEWIZARD_REDIS_PREFIX", "wiz:")
	t.Setenv("SITEWIZARD_SESSION_TTL", "1h")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "wiz:", cfg.Redis.Prefix)
	assert.Equal(t, time.Hour, cfg.Session.TTL, "environment wins over the file")
	assert.Equal(t, "http://render:9000", cfg.Generator.URL)
}

func TestLoad_TOMLInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitewizard.toml"), []byte(`
[templates]
path = "catalog.yaml"

[log]
level = "debug"
`), 0o644))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "catalog.yaml", cfg.Templates.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBindFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SITEWIZARD_HTTP_ADDR", ":7000")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	flags.String("store", "memory", "")

	v := viper.New()
	require.NoError(t, BindFlags(v, flags, map[string]string{"http.addr": "addr", "store.driver": "store"}))
	require.NoError(t, flags.Parse([]string{"--store", "file"}))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr, "unset flag leaves the environment in charge")
	assert.Equal(t, StoreFile, cfg.Store.Driver)

	assert.Error(t, BindFlags(v, flags, map[string]string{"x": "missing"}))
}

func TestLoad_CommandGenerator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitewizard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generator:
  kind: command
  command: ./render.sh
  args: [--out, dist]
  env:
    RENDER_MODE: draft
store:
  encryption_key: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, GeneratorCommand, cfg.Generator.Kind)
	assert.Equal(t, []string{"--out", "dist"}, cfg.Generator.Args)
	assert.Equal(t, "draft", cfg.Generator.Env["render_mode"], "viper lower-cases map keys")
	assert.NotEmpty(t, cfg.Store.EncryptionKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "unknown store.driver"},
		{"file without path", func(c *Config) { c.Store.Driver = StoreFile; c.Store.Path = "" }, "store.path"},
		{"http without url", func(c *Config) { c.Generator.Kind = GeneratorHTTP }, "generator.url"},
		{"unknown generator", func(c *Config) { c.Generator.Kind = "ftp" }, "unknown generator.kind"},
		{"command without command", func(c *Config) { c.Generator.Kind = GeneratorCommand }, "generator.command"},
		{"short key", func(c *Config) { c.Store.EncryptionKey = "c2hvcnQ=" }, "32 bytes"},
		{"fallback without key", func(c *Config) { c.Store.FallbackKeys = []string{"x"} }, "needs store.encryption_key"},
		{"zero timeout", func(c *Config) { c.Generator.Timeout = 0 }, "generator.timeout"},
		{"two catalogs", func(c *Config) { c.Templates.Path = "a.yaml"; c.Templates.LoamDir = "b" }, "mutually exclusive"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Log:       Log{Level: "info"},
				Store:     Store{Driver: StoreMemory},
				Generator: Generator{Kind: GeneratorLocal, Timeout: time.Minute},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
