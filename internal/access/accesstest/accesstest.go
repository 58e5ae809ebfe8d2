// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package accesstest wires an access.Service over the in-memory auth store.
package accesstest

import (
	"github.com/wardenauth/warden/internal/access"
	"github.com/wardenauth/warden/internal/auth/authtest"
)

// NewService creates a Service over store using the store's repositories.
// It panics on error, which only happens when a test is wrong.
func NewService(store *authtest.Store, opts ...access.Option) *access.Service {
	svc, err := access.NewService(store.Accounts(), store.Groups(), store.Privileges(), opts...)
	if err != nil {
		panic(err)
	}
	return svc
}
