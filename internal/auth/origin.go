// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"context"
	"time"
)

// OriginAttempt tracks failed logins from one network origin. There is no
// stored ban-until; a ban is recomputed from Failures and LastFailureAt.
type OriginAttempt struct {
	Origin        string
	Failures      int
	LastFailureAt time.Time
}

// BannedAt reports whether the origin is locked out at now.
func (o *OriginAttempt) BannedAt(now time.Time, limit int, window time.Duration) bool {
	return o.Failures >= limit && o.LastFailureAt.Add(window).After(now)
}

// OriginAttemptRepository manages origin failure counters.
type OriginAttemptRepository interface {
	// Get retrieves the record for an origin. Returns ErrNotFound if the
	// origin never failed.
	Get(ctx context.Context, origin string) (*OriginAttempt, error)

	// RecordFailure inserts the origin with one failure, or increments its
	// counter and refreshes LastFailureAt.
	RecordFailure(ctx context.Context, origin string, at time.Time) error

	// Reset sets the origin's counter to zero. Unknown origins are not an error.
	Reset(ctx context.Context, origin string) error
}
