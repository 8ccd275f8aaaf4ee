// Package config loads the command line configuration from a file, the
// environment and command flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/internal/logging"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/generator"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/persistence/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "sitewizard"
	envPrefix  = "SITEWIZARD"
	homeDir    = ".sitewizard"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Generator kinds.
const (
	GeneratorLocal   = "local"
	GeneratorHTTP    = "http"
	GeneratorCommand = "command"
)

type HTTP struct {
	Addr string `mapstructure:"addr"`
}

type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Store struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	// EncryptionKey seals sessions at rest when set (32 bytes, base64 or hex).
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys still open sessions sealed before a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	Lock     bool   `mapstructure:"lock"`
}

type Session struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type Generator struct {
	Kind      string        `mapstructure:"kind"`
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	BaseURL   string        `mapstructure:"base_url"`
	Hosting   string        `mapstructure:"hosting"`
	Owner     string        `mapstructure:"owner"`
	OutputDir string        `mapstructure:"output_dir"`

	// Command generator.
	Command string            `mapstructure:"command"`
	Args    []string          `mapstructure:"args"`
	Dir     string            `mapstructure:"dir"`
	Env     map[string]string `mapstructure:"env"`
}

type Templates struct {
	Path    string `mapstructure:"path"`
	LoamDir string `mapstructure:"loam_dir"`
}

// Config is the resolved configuration of a command.
type Config struct {
	HTTP      HTTP      `mapstructure:"http"`
	Metrics   Metrics   `mapstructure:"metrics"`
	Log       Log       `mapstructure:"log"`
	Store     Store     `mapstructure:"store"`
	Redis     Redis     `mapstructure:"redis"`
	Session   Session   `mapstructure:"session"`
	Generator Generator `mapstructure:"generator"`
	Templates Templates `mapstructure:"templates"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// SetDefaults registers every key so the environment can override it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.path", filepath.Join(".sitewizard", "sessions"))
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "sitewizard:")
	v.SetDefault("redis.lock", true)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.sweep_interval", 10*time.Minute)
	v.SetDefault("generator.kind", GeneratorLocal)
	v.SetDefault("generator.url", "")
	v.SetDefault("generator.timeout", 2*time.Minute)
	v.SetDefault("generator.base_url", "http://localhost:8080")
	v.SetDefault("generator.hosting", generator.HostingLocal)
	v.SetDefault("generator.owner", "")
	v.SetDefault("generator.output_dir", "")
	v.SetDefault("generator.command", "")
	v.SetDefault("generator.args", []string{})
	v.SetDefault("generator.dir", "")
	v.SetDefault("templates.path", "")
	v.SetDefault("templates.loam_dir", "")
}

// Load reads the configuration. An explicit file must exist; otherwise
// sitewizard.{yaml,toml,json} is looked up in the working directory and
// in $HOME/.sitewizard, and a missing file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, homeDir))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BindFlags binds config keys to command flags. A flag only wins over the
// file and the environment when it was set on the command line.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q for key %s", name, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks the values that have a closed set of options.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreMemory, StoreRedis:
	case StoreFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the file driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	switch c.Generator.Kind {
	case GeneratorLocal:
	case GeneratorHTTP:
		if c.Generator.URL == "" {
			errs = append(errs, errors.New("generator.url is required for the http generator"))
		}
	case GeneratorCommand:
		if c.Generator.Command == "" {
			errs = append(errs, errors.New("generator.command is required for the command generator"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown generator.kind %q", c.Generator.Kind))
	}

	if c.Store.EncryptionKey != "" {
		for _, k := range append([]string{c.Store.EncryptionKey}, c.Store.FallbackKeys...) {
			if _, err := middleware.ParseKey(k); err != nil {
				errs = append(errs, fmt.Errorf("store encryption: %w", err))
			}
		}
	} else if len(c.Store.FallbackKeys) > 0 {
		errs = append(errs, errors.New("store.fallback_keys needs store.encryption_key"))
	}

	if c.Session.TTL < 0 {
		errs = append(errs, errors.New("session.ttl must not be negative"))
	}
	if c.Generator.Timeout <= 0 {
		errs = append(errs, errors.New("generator.timeout must be positive"))
	}
	if c.Templates.Path != "" && c.Templates.LoamDir != "" {
		errs = append(errs, errors.New("templates.path and templates.loam_dir are mutually exclusive"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
