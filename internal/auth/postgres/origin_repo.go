// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/wardenauth/warden/internal/auth"
)

// OriginAttemptRepository implements auth.OriginAttemptRepository using PostgreSQL.
type OriginAttemptRepository struct {
	pool poolIface
}

// NewOriginAttemptRepository creates a new OriginAttemptRepository.
func NewOriginAttemptRepository(pool poolIface) *OriginAttemptRepository {
	return &OriginAttemptRepository{pool: pool}
}

// Get retrieves the failure record of an origin.
func (r *OriginAttemptRepository) Get(ctx context.Context, origin string) (*auth.OriginAttempt, error) {
	var attempt auth.OriginAttempt
	err := r.pool.QueryRow(ctx, `
		SELECT origin, failures, last_failure_at
		FROM origin_attempts
		WHERE origin = $1
	`, origin).Scan(&attempt.Origin, &attempt.Failures, &attempt.LastFailureAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ORIGIN_NOT_FOUND").
			With("origin", origin).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ORIGIN_GET_FAILED").
			With("operation", "get origin attempts").
			With("origin", origin).
			Wrap(err)
	}
	return &attempt, nil
}

// RecordFailure upserts the origin and increments its counter atomically.
func (r *OriginAttemptRepository) RecordFailure(ctx context.Context, origin string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO origin_attempts (origin, failures, last_failure_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (origin) DO UPDATE SET
			failures = origin_attempts.failures + 1,
			last_failure_at = EXCLUDED.last_failure_at
	`, origin, at)
	if err != nil {
		return oops.Code("ORIGIN_RECORD_FAILED").
			With("operation", "record origin failure").
			With("origin", origin).
			Wrap(err)
	}
	return nil
}

// Reset zeroes an origin's counter. Unknown origins are left alone.
func (r *OriginAttemptRepository) Reset(ctx context.Context, origin string) error {
	_, err := r.pool.Exec(ctx, `UPDATE origin_attempts SET failures = 0 WHERE origin = $1`, origin)
	if err != nil {
		return oops.Code("ORIGIN_RESET_FAILED").
			With("operation", "reset origin attempts").
			With("origin", origin).
			Wrap(err)
	}
	return nil
}
