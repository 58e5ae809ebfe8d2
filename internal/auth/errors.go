// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"errors"
)

// Sentinel errors. Services wrap them with oops codes so callers can use
// either errors.Is or the code.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint would be violated.
	ErrConflict = errors.New("already exists")

	// ErrBanned is returned when an identity or origin lockout is active.
	ErrBanned = errors.New("temporarily banned")

	// ErrInvalidCredentials is returned for an unknown identity or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired is returned when a token's lifetime has elapsed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMismatch is returned when no stored digest matches a presented token.
	ErrTokenMismatch = errors.New("token mismatch")

	// ErrInvalidArgument is returned for malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Kind classifies an error returned by this package.
type Kind string

// Error kinds.
const (
	KindNone                Kind = ""
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindBanned              Kind = "banned"
	KindInvalidCredentials  Kind = "invalid_credentials"
	KindTokenExpired        Kind = "token_expired"
	KindTokenMismatch       Kind = "token_mismatch"
	KindInvalidArgument     Kind = "invalid_argument"
	KindCollaboratorFailure Kind = "collaborator_failure"
)

var kindSentinels = []struct {
	kind Kind
	err  error
}{
	{KindNotFound, ErrNotFound},
	{KindConflict, ErrConflict},
	{KindBanned, ErrBanned},
	{KindInvalidCredentials, ErrInvalidCredentials},
	{KindTokenExpired, ErrTokenExpired},
	{KindTokenMismatch, ErrTokenMismatch},
	{KindInvalidArgument, ErrInvalidArgument},
}

// KindOf classifies err. Any error that does not wrap one of the package
// sentinels is a store or hasher fault and reports KindCollaboratorFailure.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindCollaboratorFailure
}

// IsCollaboratorFailure reports whether err came from a store or hasher
// rather than from a rejected request.
func IsCollaboratorFailure(err error) bool {
	return KindOf(err) == KindCollaboratorFailure
}
