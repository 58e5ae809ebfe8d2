// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package access implements the two-layer authorization model. A group
// grants a set of privileges to its members and an account may also hold
// privileges directly. The service exposes both layers separately and
// leaves their union to the caller.
package access
