// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenauth/warden/internal/auth"
	"github.com/wardenauth/warden/pkg/errutil"
)

func TestDefaultSettings(t *testing.T) {
	s := auth.DefaultSettings()
	require.NoError(t, s.Validate())

	assert.Equal(t, 10, s.IdentityLoginLimit)
	assert.Equal(t, 10, s.OriginLoginLimit)
	assert.Equal(t, 10*time.Second, s.BanDuration)
	assert.Equal(t, 30*24*time.Hour, s.RememberLifetime)
	assert.Equal(t, 3*time.Minute, s.ResetLifetime)
	assert.Equal(t, 32, s.TokenLength)
	assert.Equal(t, auth.HashBcrypt, s.HashAlgorithm)
	assert.Equal(t, auth.OriginResetAny, s.OriginReset)
	assert.False(t, s.RequireActive)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*auth.Settings)
	}{
		{"zero identity limit", func(s *auth.Settings) { s.IdentityLoginLimit = 0 }},
		{"negative origin limit", func(s *auth.Settings) { s.OriginLoginLimit = -1 }},
		{"zero ban duration", func(s *auth.Settings) { s.BanDuration = 0 }},
		{"empty cookie name", func(s *auth.Settings) { s.RememberCookieName = "" }},
		{"zero remember lifetime", func(s *auth.Settings) { s.RememberLifetime = 0 }},
		{"zero reset lifetime", func(s *auth.Settings) { s.ResetLifetime = 0 }},
		{"zero verify lifetime", func(s *auth.Settings) { s.VerifyLifetime = 0 }},
		{"short tokens", func(s *auth.Settings) { s.TokenLength = 8 }},
		{"tokens longer than bcrypt input", func(s *auth.Settings) { s.TokenLength = 100 }},
		{"unknown hash", func(s *auth.Settings) { s.HashAlgorithm = "sha1" }},
		{"unknown reset policy", func(s *auth.Settings) { s.OriginReset = "sometimes" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := auth.DefaultSettings()
			tt.mutate(&s)
			errutil.AssertErrorIs(t, s.Validate(), auth.ErrInvalidArgument, "AUTH_INVALID_SETTINGS")
		})
	}
}

func TestSettings_Validate_LongTokensWithArgon2id(t *testing.T) {
	s := auth.DefaultSettings()
	s.HashAlgorithm = auth.HashArgon2id
	s.TokenLength = 100

	assert.NoError(t, s.Validate())
}
