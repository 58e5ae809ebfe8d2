// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxEmailLength bounds the identity column.
const MaxEmailLength = 254

// Account represents a credential holder. Accounts are never hard-deleted
// by the engine; Active is flipped instead.
type Account struct {
	ID                        ulid.ULID
	Email                     string
	PasswordHash              string
	GroupID                   *ulid.ULID
	Active                    bool
	FailedLogins              int
	BanUntil                  *time.Time
	EmailVerificationHash     string
	EmailVerificationIssuedAt *time.Time
	PasswordResetHash         string
	PasswordResetIssuedAt     *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// IsBannedAt reports whether the identity ban is active at now. A ban is
// active only while BanUntil is strictly after now.
func (a *Account) IsBannedAt(now time.Time) bool {
	return a.BanUntil != nil && a.BanUntil.After(now)
}

// TokenDigest returns the stored digest and issue time for a single-use
// token kind. The digest is empty when none is outstanding.
func (a *Account) TokenDigest(kind TokenKind) (string, *time.Time) {
	switch kind {
	case KindEmailVerification:
		return a.EmailVerificationHash, a.EmailVerificationIssuedAt
	case KindPasswordReset:
		return a.PasswordResetHash, a.PasswordResetIssuedAt
	default:
		return "", nil
	}
}

// NormalizeEmail trims surrounding space and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address of acceptable length.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Wrapf(ErrInvalidArgument, "email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Wrapf(ErrInvalidArgument, "email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Wrapf(ErrInvalidArgument, "email is not a valid address")
	}
	return nil
}

// AccountRepository manages account persistence. Counter updates must be
// atomic in the store.
type AccountRepository interface {
	// Create stores a new account. Returns ErrConflict if the email is taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// IncrementFailedLogins adds one to the failed-login counter.
	IncrementFailedLogins(ctx context.Context, id ulid.ULID) error

	// ResetFailedLogins sets the failed-login counter to zero.
	ResetFailedLogins(ctx context.Context, id ulid.ULID) error

	// Ban stores the ban-until instant and resets the failed-login counter.
	Ban(ctx context.Context, id ulid.ULID, until time.Time) error

	// SetActive flips the active flag.
	SetActive(ctx context.Context, id ulid.ULID, active bool) error

	// SetGroup assigns the account to a group, or removes it from any group when groupID is nil.
	SetGroup(ctx context.Context, id ulid.ULID, groupID *ulid.ULID) error

	// UpdatePassword stores a new password digest and clears any password reset digest.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// SetToken stores the digest of a single-use token, replacing any previous one.
	SetToken(ctx context.Context, id ulid.ULID, kind TokenKind, digest string, issuedAt time.Time) error

	// ClearToken removes the digest of a single-use token if it still equals
	// digest. It returns ErrNotFound when the account is missing or the
	// digest was already cleared or replaced.
	ClearToken(ctx context.Context, id ulid.ULID, kind TokenKind, digest string) error
}
