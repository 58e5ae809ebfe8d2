// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import "time"

// Clock supplies the current time. Ban windows and token expiry are computed
// against it so tests can advance time deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
