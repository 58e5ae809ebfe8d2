// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package config

import (
	"github.com/knadh/koanf/providers/posflag"
	"github.com/spf13/pflag"
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"database-url":         "database.url",
	"log-format":           "log.format",
	"log-level":            "log.level",
	"metrics-addr":         "metrics.addr",
	"identity-login-limit": "auth.identity_login_limit",
	"origin-login-limit":   "auth.origin_login_limit",
	"ban-duration":         "auth.ban_duration",
	"require-active":       "auth.require_active",
	"hash-algorithm":       "auth.hash_algorithm",
}

// RegisterFlags adds the configuration flags to fs. Flags only override
// the file and environment when set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.Int("identity-login-limit", d.Auth.IdentityLoginLimit, "failed logins per account before a ban")
	fs.Int("origin-login-limit", d.Auth.OriginLoginLimit, "failed logins per origin before a ban")
	fs.Duration("ban-duration", d.Auth.BanDuration, "length of a login ban")
	fs.Bool("require-active", d.Auth.RequireActive, "reject logins to inactive accounts")
	fs.String("hash-algorithm", string(d.Auth.HashAlgorithm), "password hash algorithm (bcrypt or argon2id)")
}

func flagValue(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}
