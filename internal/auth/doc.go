// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package auth provides credential verification and token lifecycle for Warden.
//
// # Domain Types
//
// Accounts are created through AccountService.CreateAccount, which validates
// the email and password and enforces email uniqueness. Repository
// implementations receive pre-validated types.
//
// Every secret the engine hands out (passwords, remember-me tokens, email
// verification and password reset tokens) is persisted only as a salted,
// self-describing digest. Because the digest is different on every call,
// tokens are verified by scanning the digests stored for one subject and
// asking the PasswordHasher to check each of them.
//
// # Services
//
//   - Limiter - identity and origin lockouts
//   - TokenManager - issue, verify, rotate and revoke tokens
//   - Authenticator - login, logout, session resolution
//   - AccountService - registration, activation, password reset and email verification
//
// Services are created with New* constructors that validate dependencies.
package auth
