// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Verdict is the outcome of a lockout check.
type Verdict int

// Lockout verdicts.
const (
	VerdictAllowed Verdict = iota
	VerdictIdentityBanned
	VerdictOriginBanned
)

func (v Verdict) String() string {
	switch v {
	case VerdictIdentityBanned:
		return "identity_banned"
	case VerdictOriginBanned:
		return "origin_banned"
	default:
		return "allowed"
	}
}

// Limiter enforces the two independent lockout windows: one per account and
// one per network origin. It keeps no state of its own.
type Limiter struct {
	accounts AccountRepository
	origins  OriginAttemptRepository
	settings Settings
	clock    Clock
	logger   *slog.Logger
}

// NewLimiter creates a Limiter.
func NewLimiter(accounts AccountRepository, origins OriginAttemptRepository, settings Settings, clock Clock) (*Limiter, error) {
	return NewLimiterWithLogger(accounts, origins, settings, clock, slog.Default())
}

// NewLimiterWithLogger creates a Limiter that logs best-effort failures to logger.
func NewLimiterWithLogger(accounts AccountRepository, origins OriginAttemptRepository, settings Settings, clock Clock, logger *slog.Logger) (*Limiter, error) {
	if accounts == nil {
		return nil, oops.Code("LIMITER_INVALID_CONFIG").Errorf("account repository is required")
	}
	if origins == nil {
		return nil, oops.Code("LIMITER_INVALID_CONFIG").Errorf("origin repository is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		accounts: accounts,
		origins:  origins,
		settings: settings,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Check evaluates both lockout windows for a login attempt. When the
// account's failure counter has reached the limit, Check stores a new ban
// and resets the counter before reporting VerdictIdentityBanned. An empty
// origin skips the origin window.
func (l *Limiter) Check(ctx context.Context, account *Account, origin string) (Verdict, error) {
	if account == nil {
		return VerdictAllowed, oops.Code("LIMITER_INVALID_ARGUMENT").Wrapf(ErrInvalidArgument, "account is required")
	}
	now := l.clock.Now()

	if account.IsBannedAt(now) {
		return VerdictIdentityBanned, nil
	}
	if account.FailedLogins >= l.settings.IdentityLoginLimit {
		until := now.Add(l.settings.BanDuration)
		if err := l.accounts.Ban(ctx, account.ID, until); err != nil {
			return VerdictAllowed, oops.Code("LIMITER_BAN_FAILED").
				With("account_id", account.ID.String()).
				With("operation", "ban account").
				Wrap(err)
		}
		account.BanUntil = &until
		account.FailedLogins = 0
		return VerdictIdentityBanned, nil
	}

	if origin == "" {
		return VerdictAllowed, nil
	}
	attempt, err := l.origins.Get(ctx, origin)
	if errors.Is(err, ErrNotFound) {
		return VerdictAllowed, nil
	}
	if err != nil {
		return VerdictAllowed, oops.Code("LIMITER_CHECK_FAILED").
			With("origin", origin).
			With("operation", "get origin attempts").
			Wrap(err)
	}
	if attempt.BannedAt(now, l.settings.OriginLoginLimit, l.settings.BanDuration) {
		return VerdictOriginBanned, nil
	}
	return VerdictAllowed, nil
}

// RecordFailure counts a failed password against the account and the origin.
func (l *Limiter) RecordFailure(ctx context.Context, accountID ulid.ULID, origin string) error {
	if err := l.accounts.IncrementFailedLogins(ctx, accountID); err != nil {
		return oops.Code("LIMITER_RECORD_FAILED").
			With("account_id", accountID.String()).
			With("operation", "increment failed logins").
			Wrap(err)
	}
	if origin == "" {
		return nil
	}
	if err := l.origins.RecordFailure(ctx, origin, l.clock.Now()); err != nil {
		return oops.Code("LIMITER_RECORD_FAILED").
			With("origin", origin).
			With("operation", "record origin failure").
			Wrap(err)
	}
	return nil
}

// RecordSuccess clears the account counter and, depending on the origin
// reset policy, the origin counter. Failing to clear the origin counter is
// logged and not returned; the counter expires with the ban window anyway.
func (l *Limiter) RecordSuccess(ctx context.Context, account *Account, origin string) error {
	if account == nil {
		return oops.Code("LIMITER_INVALID_ARGUMENT").Wrapf(ErrInvalidArgument, "account is required")
	}
	if account.FailedLogins != 0 {
		if err := l.accounts.ResetFailedLogins(ctx, account.ID); err != nil {
			return oops.Code("LIMITER_RESET_FAILED").
				With("account_id", account.ID.String()).
				With("operation", "reset failed logins").
				Wrap(err)
		}
		account.FailedLogins = 0
	}

	if origin == "" || l.settings.OriginReset == OriginResetNever {
		return nil
	}
	if err := l.origins.Reset(ctx, origin); err != nil {
		l.logger.WarnContext(ctx, "best-effort origin counter reset failed",
			"origin", origin,
			"operation", "reset origin attempts",
			"error", err)
	}
	return nil
}
