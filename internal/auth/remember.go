// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// RememberToken is one persisted remember-me credential. An account may
// hold several (one per device). Only the digest is stored.
type RememberToken struct {
	ID        ulid.ULID // connection id
	AccountID ulid.ULID
	TokenHash string
	CreatedAt time.Time
}

// RememberTokenRepository manages remember-me token persistence.
type RememberTokenRepository interface {
	// Create stores a new token record.
	Create(ctx context.Context, token *RememberToken) error

	// ListByAccount returns every token record of an account.
	ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*RememberToken, error)

	// Delete removes a token record. Returns ErrNotFound if it was already
	// gone, which lets concurrent consumers detect that they lost the race.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteByAccount removes all token records of an account.
	DeleteByAccount(ctx context.Context, accountID ulid.ULID) error

	// DeleteCreatedBefore removes records issued before cutoff and returns the count.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
