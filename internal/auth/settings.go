// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"time"

	"github.com/samber/oops"
)

// Default engine settings.
const (
	DefaultIdentityLoginLimit  = 10
	DefaultOriginLoginLimit    = 10
	DefaultBanDuration         = 10 * time.Second
	DefaultRememberCookieName  = "warden_remember_me_tk"
	DefaultRememberLifetime    = 30 * 24 * time.Hour
	DefaultResetLifetime       = 3 * time.Minute
	DefaultVerifyLifetime      = 3 * time.Minute
	DefaultTokenLength         = 32
	DefaultBcryptCost          = 10
	DefaultHashAlgorithm       = HashBcrypt
	DefaultOriginResetPolicy   = OriginResetAny
	minimumTokenLength         = 16
	maximumBcryptPasswordBytes = 72
)

// OriginResetPolicy controls which origin counters a successful login clears.
type OriginResetPolicy string

const (
	// OriginResetAny clears the counter of the origin a success came from,
	// whichever account that origin was failing against.
	OriginResetAny OriginResetPolicy = "any"

	// OriginResetNever leaves origin counters to expire with the ban window.
	OriginResetNever OriginResetPolicy = "never"
)

// Settings holds the tunables of the engine. It is passed to each component
// at construction; nothing reads it from ambient state.
type Settings struct {
	IdentityLoginLimit int               `koanf:"identity_login_limit" yaml:"identity_login_limit" env:"IDENTITY_LOGIN_LIMIT,overwrite" jsonschema:"minimum=1"`
	OriginLoginLimit   int               `koanf:"origin_login_limit" yaml:"origin_login_limit" env:"ORIGIN_LOGIN_LIMIT,overwrite" jsonschema:"minimum=1"`
	BanDuration        time.Duration     `koanf:"ban_duration" yaml:"ban_duration" env:"BAN_DURATION,overwrite"`
	RememberCookieName string            `koanf:"remember_cookie_name" yaml:"remember_cookie_name" env:"REMEMBER_COOKIE_NAME,overwrite"`
	RememberLifetime   time.Duration     `koanf:"remember_lifetime" yaml:"remember_lifetime" env:"REMEMBER_LIFETIME,overwrite"`
	ResetLifetime      time.Duration     `koanf:"reset_lifetime" yaml:"reset_lifetime" env:"RESET_LIFETIME,overwrite"`
	VerifyLifetime     time.Duration     `koanf:"verify_lifetime" yaml:"verify_lifetime" env:"VERIFY_LIFETIME,overwrite"`
	TokenLength        int               `koanf:"token_length" yaml:"token_length" env:"TOKEN_LENGTH,overwrite"`
	HashAlgorithm      HashAlgorithm     `koanf:"hash_algorithm" yaml:"hash_algorithm" env:"HASH_ALGORITHM,overwrite" jsonschema:"enum=bcrypt,enum=argon2id"`
	BcryptCost         int               `koanf:"bcrypt_cost" yaml:"bcrypt_cost" env:"BCRYPT_COST,overwrite"`
	RequireActive      bool              `koanf:"require_active" yaml:"require_active" env:"REQUIRE_ACTIVE,overwrite"`
	VerifyEmail        bool              `koanf:"verify_email" yaml:"verify_email" env:"VERIFY_EMAIL,overwrite"`
	OriginReset        OriginResetPolicy `koanf:"origin_reset" yaml:"origin_reset" env:"ORIGIN_RESET,overwrite" jsonschema:"enum=any,enum=never"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		IdentityLoginLimit: DefaultIdentityLoginLimit,
		OriginLoginLimit:   DefaultOriginLoginLimit,
		BanDuration:        DefaultBanDuration,
		RememberCookieName: DefaultRememberCookieName,
		RememberLifetime:   DefaultRememberLifetime,
		ResetLifetime:      DefaultResetLifetime,
		VerifyLifetime:     DefaultVerifyLifetime,
		TokenLength:        DefaultTokenLength,
		HashAlgorithm:      DefaultHashAlgorithm,
		BcryptCost:         DefaultBcryptCost,
		OriginReset:        DefaultOriginResetPolicy,
	}
}

// Validate checks that every limit and lifetime is usable.
func (s Settings) Validate() error {
	errb := oops.Code("AUTH_INVALID_SETTINGS")
	switch {
	case s.IdentityLoginLimit <= 0:
		return errb.With("identity_login_limit", s.IdentityLoginLimit).Wrapf(ErrInvalidArgument, "identity login limit must be positive")
	case s.OriginLoginLimit <= 0:
		return errb.With("origin_login_limit", s.OriginLoginLimit).Wrapf(ErrInvalidArgument, "origin login limit must be positive")
	case s.BanDuration <= 0:
		return errb.With("ban_duration", s.BanDuration).Wrapf(ErrInvalidArgument, "ban duration must be positive")
	case s.RememberCookieName == "":
		return errb.Wrapf(ErrInvalidArgument, "remember cookie name cannot be empty")
	case s.RememberLifetime <= 0:
		return errb.With("remember_lifetime", s.RememberLifetime).Wrapf(ErrInvalidArgument, "remember lifetime must be positive")
	case s.ResetLifetime <= 0:
		return errb.With("reset_lifetime", s.ResetLifetime).Wrapf(ErrInvalidArgument, "reset lifetime must be positive")
	case s.VerifyLifetime <= 0:
		return errb.With("verify_lifetime", s.VerifyLifetime).Wrapf(ErrInvalidArgument, "verify lifetime must be positive")
	case s.TokenLength < minimumTokenLength:
		return errb.With("token_length", s.TokenLength).Wrapf(ErrInvalidArgument, "token length must be at least %d", minimumTokenLength)
	}
	switch s.HashAlgorithm {
	case HashBcrypt:
		if s.TokenLength > maximumBcryptPasswordBytes {
			return errb.With("token_length", s.TokenLength).
				With("hash_algorithm", s.HashAlgorithm).
				Wrapf(ErrInvalidArgument, "token length cannot exceed %d with bcrypt", maximumBcryptPasswordBytes)
		}
	case HashArgon2id:
	default:
		return errb.With("hash_algorithm", s.HashAlgorithm).Wrapf(ErrInvalidArgument, "unsupported hash algorithm")
	}
	switch s.OriginReset {
	case OriginResetAny, OriginResetNever:
	default:
		return errb.With("origin_reset", s.OriginReset).Wrapf(ErrInvalidArgument, "unsupported origin reset policy")
	}
	return nil
}
