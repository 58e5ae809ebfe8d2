// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package authtest

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wardenauth/warden/internal/auth"
)

// Epoch is the default start time of fixture clocks.
var Epoch = time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

// Settings returns the default settings with the cheapest bcrypt cost.
func Settings() auth.Settings {
	s := auth.DefaultSettings()
	s.BcryptCost = bcrypt.MinCost
	return s
}

// Engine wires every auth component over one in-memory Store.
type Engine struct {
	Store         *Store
	Clock         *FakeClock
	Settings      auth.Settings
	Hasher        auth.PasswordHasher
	Limiter       *auth.Limiter
	Tokens        *auth.TokenManager
	Authenticator *auth.Authenticator
	Accounts      *auth.AccountService
}

// NewEngine builds an Engine from settings. It panics on invalid settings,
// which only happens when a test is wrong.
func NewEngine(settings auth.Settings) *Engine {
	store := NewStore()
	clock := NewFakeClock(Epoch)
	hasher, err := auth.NewPasswordHasher(settings)
	if err != nil {
		panic(err)
	}
	limiter, err := auth.NewLimiter(store.Accounts(), store.Origins(), settings, clock)
	if err != nil {
		panic(err)
	}
	tokens, err := auth.NewTokenManager(store.Accounts(), store.RememberTokens(), hasher, settings, clock)
	if err != nil {
		panic(err)
	}
	authenticator, err := auth.NewAuthenticator(auth.AuthenticatorConfig{
		Accounts: store.Accounts(),
		Groups:   store.Groups(),
		Limiter:  limiter,
		Tokens:   tokens,
		Hasher:   hasher,
		Settings: settings,
	})
	if err != nil {
		panic(err)
	}
	accounts, err := auth.NewAccountService(store.Accounts(), tokens, hasher, settings, clock)
	if err != nil {
		panic(err)
	}
	return &Engine{
		Store:         store,
		Clock:         clock,
		Settings:      settings,
		Hasher:        hasher,
		Limiter:       limiter,
		Tokens:        tokens,
		Authenticator: authenticator,
		Accounts:      accounts,
	}
}
