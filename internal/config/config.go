// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package config loads warden configuration from defaults, an optional YAML
// file, the environment and command-line flags, in that order of precedence.
package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/wardenauth/warden/internal/auth"
	"github.com/wardenauth/warden/internal/store"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WARDEN_"

// DatabaseURLEnv is the unprefixed variable accepted for the database URL.
const DatabaseURLEnv = "DATABASE_URL"

// Default values outside the auth settings.
const (
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultMaxConns    = 10
)

// Config is the full warden configuration.
type Config struct {
	Auth     auth.Settings  `koanf:"auth" yaml:"auth" env:",prefix=AUTH_"`
	Database DatabaseConfig `koanf:"database" yaml:"database" env:",prefix=DATABASE_"`
	Log      LogConfig      `koanf:"log" yaml:"log" env:",prefix=LOG_"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics" env:",prefix=METRICS_"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL             string        `koanf:"url" yaml:"url" env:"URL,overwrite"`
	MaxConns        int32         `koanf:"max_conns" yaml:"max_conns" env:"MAX_CONNS,overwrite" jsonschema:"minimum=1"`
	ConnectAttempts uint64        `koanf:"connect_attempts" yaml:"connect_attempts" env:"CONNECT_ATTEMPTS,overwrite"`
	ConnectBackoff  time.Duration `koanf:"connect_backoff" yaml:"connect_backoff" env:"CONNECT_BACKOFF,overwrite"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" env:"FORMAT,overwrite" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" yaml:"level" env:"LEVEL,overwrite"`
}

// MetricsConfig configures the observability server. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr" env:"ADDR,overwrite"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Auth: auth.DefaultSettings(),
		Database: DatabaseConfig{
			MaxConns:        DefaultMaxConns,
			ConnectAttempts: store.DefaultConnectAttempts,
			ConnectBackoff:  store.DefaultConnectBackoff,
		},
		Log: LogConfig{
			Format: DefaultLogFormat,
			Level:  DefaultLogLevel,
		},
		Metrics: MetricsConfig{Addr: DefaultMetricsAddr},
	}
}

type loadOptions struct {
	file     string
	flags    *pflag.FlagSet
	lookuper envconfig.Lookuper
}

// Option configures Load.
type Option func(*loadOptions)

// WithFile loads the YAML file at path. An empty path is ignored.
func WithFile(path string) Option {
	return func(o *loadOptions) { o.file = path }
}

// WithFlags applies the flags registered by RegisterFlags that were set on
// the command line.
func WithFlags(flags *pflag.FlagSet) Option {
	return func(o *loadOptions) { o.flags = flags }
}

// WithLookuper replaces the process environment as the variable source.
func WithLookuper(l envconfig.Lookuper) Option {
	return func(o *loadOptions) { o.lookuper = l }
}

// Load builds a validated Config.
func Load(ctx context.Context, opts ...Option) (*Config, error) {
	o := loadOptions{lookuper: envconfig.OsLookuper()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()

	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", o.file).Wrap(err)
		}
		if err := ValidateDocument(data); err != nil {
			return nil, oops.With("path", o.file).Wrap(err)
		}
		k := koanf.New(".")
		if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", o.file).Wrap(err)
		}
		if err := unmarshal(k, &cfg); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", o.file).Wrap(err)
		}
	}

	if err := envconfig.ProcessWith(ctx, &cfg, envconfig.PrefixLookuper(EnvPrefix, o.lookuper)); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}
	if cfg.Database.URL == "" {
		if url, ok := o.lookuper.Lookup(DatabaseURLEnv); ok {
			cfg.Database.URL = url
		}
	}

	if o.flags != nil {
		k := koanf.New(".")
		if err := k.Load(posflag.ProviderWithFlag(o.flags, ".", nil, flagValue(o.flags)), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
		if err := unmarshal(k, &cfg); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func unmarshal(k *koanf.Koanf, cfg *Config) error {
	//nolint:wrapcheck // callers attach the code
	return k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"})
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").With("section", "auth").Wrap(err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("section", "log").
			With("format", c.Log.Format).
			Errorf("log format must be 'json' or 'text'")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").With("section", "log").Wrap(err)
	}
	if c.Database.MaxConns <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("section", "database").
			With("max_conns", c.Database.MaxConns).
			Errorf("max_conns must be positive")
	}
	if c.Database.ConnectAttempts == 0 {
		return oops.Code("CONFIG_INVALID").
			With("section", "database").
			Errorf("connect_attempts must be positive")
	}
	if c.Database.ConnectBackoff <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("section", "database").
			With("connect_backoff", c.Database.ConnectBackoff).
			Errorf("connect_backoff must be positive")
	}
	return nil
}

// RequireDatabase reports an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("section", "database").
			Errorf("database URL is required (set %s or %s%s)", DatabaseURLEnv, EnvPrefix, "DATABASE_URL")
	}
	return nil
}

// StoreOptions returns the connection options for store.Open.
func (c *Config) StoreOptions(logger *slog.Logger) []store.OpenOption {
	return []store.OpenOption{
		store.WithMaxConns(c.Database.MaxConns),
		store.WithConnectAttempts(c.Database.ConnectAttempts),
		store.WithConnectBackoff(c.Database.ConnectBackoff),
		store.WithLogger(logger),
	}
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, oops.Code("CONFIG_INVALID_LEVEL").With("level", name).Wrap(err)
	}
	return level, nil
}

// Write prints the configuration as YAML. The database password, if any,
// is masked.
func (c *Config) Write(w io.Writer) error {
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.view()); err != nil {
		return oops.Code("CONFIG_ENCODE_FAILED").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return oops.Code("CONFIG_ENCODE_FAILED").Wrap(err)
	}
	return nil
}

type authView struct {
	IdentityLoginLimit int    `yaml:"identity_login_limit"`
	OriginLoginLimit   int    `yaml:"origin_login_limit"`
	BanDuration        string `yaml:"ban_duration"`
	RememberCookieName string `yaml:"remember_cookie_name"`
	RememberLifetime   string `yaml:"remember_lifetime"`
	ResetLifetime      string `yaml:"reset_lifetime"`
	VerifyLifetime     string `yaml:"verify_lifetime"`
	TokenLength        int    `yaml:"token_length"`
	HashAlgorithm      string `yaml:"hash_algorithm"`
	BcryptCost         int    `yaml:"bcrypt_cost"`
	RequireActive      bool   `yaml:"require_active"`
	VerifyEmail        bool   `yaml:"verify_email"`
	OriginReset        string `yaml:"origin_reset"`
}

type databaseView struct {
	URL             string `yaml:"url"`
	MaxConns        int32  `yaml:"max_conns"`
	ConnectAttempts uint64 `yaml:"connect_attempts"`
	ConnectBackoff  string `yaml:"connect_backoff"`
}

type configView struct {
	Auth     authView      `yaml:"auth"`
	Database databaseView  `yaml:"database"`
	Log      LogConfig     `yaml:"log"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// view renders durations as strings so the output can be fed back to Load.
func (c *Config) view() configView {
	a := c.Auth
	return configView{
		Auth: authView{
			IdentityLoginLimit: a.IdentityLoginLimit,
			OriginLoginLimit:   a.OriginLoginLimit,
			BanDuration:        a.BanDuration.String(),
			RememberCookieName: a.RememberCookieName,
			RememberLifetime:   a.RememberLifetime.String(),
			ResetLifetime:      a.ResetLifetime.String(),
			VerifyLifetime:     a.VerifyLifetime.String(),
			TokenLength:        a.TokenLength,
			HashAlgorithm:      string(a.HashAlgorithm),
			BcryptCost:         a.BcryptCost,
			RequireActive:      a.RequireActive,
			VerifyEmail:        a.VerifyEmail,
			OriginReset:        string(a.OriginReset),
		},
		Database: databaseView{
			URL:             store.RedactURL(c.Database.URL),
			MaxConns:        c.Database.MaxConns,
			ConnectAttempts: c.Database.ConnectAttempts,
			ConnectBackoff:  c.Database.ConnectBackoff.String(),
		},
		Log:     c.Log,
		Metrics: c.Metrics,
	}
}
