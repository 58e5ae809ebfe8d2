// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package config_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenauth/warden/internal/auth"
	"github.com/wardenauth/warden/internal/config"
	"github.com/wardenauth/warden/pkg/errutil"
)

func emptyEnv() config.Option {
	return config.WithLookuper(envconfig.MapLookuper(map[string]string{}))
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(context.Background(), emptyEnv())
	require.NoError(t, err)

	assert.Equal(t, config.Default(), *cfg)
	assert.Equal(t, auth.DefaultSettings(), cfg.Auth)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
auth:
  identity_login_limit: 5
  ban_duration: 1m
  hash_algorithm: argon2id
  require_active: true
database:
  url: postgres://warden:secret@db:5432/warden
log:
  format: text
`)

	cfg, err := config.Load(context.Background(), emptyEnv(), config.WithFile(path))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Auth.IdentityLoginLimit)
	assert.Equal(t, time.Minute, cfg.Auth.BanDuration)
	assert.Equal(t, auth.HashArgon2id, cfg.Auth.HashAlgorithm)
	assert.True(t, cfg.Auth.RequireActive)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "postgres://warden:secret@db:5432/warden", cfg.Database.URL)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, auth.DefaultOriginLoginLimit, cfg.Auth.OriginLoginLimit)
	assert.Equal(t, auth.DefaultRememberLifetime, cfg.Auth.RememberLifetime)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(context.Background(), emptyEnv(), config.WithFile(filepath.Join(t.TempDir(), "absent.yaml")))
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_FAILED")
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "auth:\n  identity_login_limit: 5\nlog:\n  format: text\n")
	env := envconfig.MapLookuper(map[string]string{
		"WARDEN_AUTH_IDENTITY_LOGIN_LIMIT": "7",
		"WARDEN_AUTH_BAN_DURATION":         "30s",
		"WARDEN_LOG_LEVEL":                 "debug",
		"DATABASE_URL":                     "postgres://localhost/warden",
	})

	cfg, err := config.Load(context.Background(), config.WithLookuper(env), config.WithFile(path))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Auth.IdentityLoginLimit)
	assert.Equal(t, 30*time.Second, cfg.Auth.BanDuration)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres://localhost/warden", cfg.Database.URL)
}

func TestLoad_PrefixedDatabaseURLWins(t *testing.T) {
	env := envconfig.MapLookuper(map[string]string{
		"WARDEN_DATABASE_URL": "postgres://prefixed/warden",
		"DATABASE_URL":        "postgres://plain/warden",
	})

	cfg, err := config.Load(context.Background(), config.WithLookuper(env))
	require.NoError(t, err)
	assert.Equal(t, "postgres://prefixed/warden", cfg.Database.URL)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	env := envconfig.MapLookuper(map[string]string{
		"WARDEN_AUTH_IDENTITY_LOGIN_LIMIT": "7",
		"WARDEN_LOG_FORMAT":                "text",
	})
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--identity-login-limit=3", "--ban-duration=2m"}))

	cfg, err := config.Load(context.Background(), config.WithLookuper(env), config.WithFlags(fs))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Auth.IdentityLoginLimit)
	assert.Equal(t, 2*time.Minute, cfg.Auth.BanDuration)
	// Unset flags leave the environment value in place.
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		code    string
		section string
	}{
		{"zero identity limit", map[string]string{"WARDEN_AUTH_IDENTITY_LOGIN_LIMIT": "0"}, "AUTH_INVALID_SETTINGS", "auth"},
		{"unknown hash", map[string]string{"WARDEN_AUTH_HASH_ALGORITHM": "md5"}, "AUTH_INVALID_SETTINGS", "auth"},
		{"unknown log format", map[string]string{"WARDEN_LOG_FORMAT": "xml"}, "CONFIG_INVALID", "log"},
		{"unknown log level", map[string]string{"WARDEN_LOG_LEVEL": "loud"}, "CONFIG_INVALID_LEVEL", "log"},
		{"zero max conns", map[string]string{"WARDEN_DATABASE_MAX_CONNS": "0"}, "CONFIG_INVALID", "database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(context.Background(), config.WithLookuper(envconfig.MapLookuper(tt.env)))
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
			errutil.AssertErrorContext(t, err, "section", tt.section)
		})
	}
}

func TestLoad_MalformedEnvironment(t *testing.T) {
	env := envconfig.MapLookuper(map[string]string{"WARDEN_AUTH_BAN_DURATION": "soon"})
	_, err := config.Load(context.Background(), config.WithLookuper(env))
	errutil.AssertErrorCode(t, err, "CONFIG_ENV_FAILED")
}

func TestConfig_RequireDatabase(t *testing.T) {
	cfg := config.Default()
	errutil.AssertErrorCode(t, cfg.RequireDatabase(), "CONFIG_INVALID")

	cfg.Database.URL = "postgres://localhost/warden"
	assert.NoError(t, cfg.RequireDatabase())
}

func TestConfig_WriteRoundTrips(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.BanDuration = 45 * time.Second
	cfg.Database.URL = "postgres://warden:secret@db:5432/warden"

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "ban_duration: 45s")
	assert.NotContains(t, out, "secret")

	loaded, err := config.Load(context.Background(), emptyEnv(), config.WithFile(writeFile(t, out)))
	require.NoError(t, err)
	assert.Equal(t, cfg.Auth, loaded.Auth)
}

func TestParseLevel(t *testing.T) {
	level, err := config.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = config.ParseLevel("chatty")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID_LEVEL")
}
