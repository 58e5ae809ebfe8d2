// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Group is a named set of privileges. Every account belongs to at most one.
type Group struct {
	ID          ulid.ULID
	Name        string
	Description string
	IsAdmin     bool
	CreatedAt   time.Time
}

// Privilege is a named capability.
type Privilege struct {
	ID          ulid.ULID
	Name        string
	Description string
	CreatedAt   time.Time
}

// GroupGrant is one row of the group/privilege relation joined with names.
type GroupGrant struct {
	GroupID       ulid.ULID
	GroupName     string
	PrivilegeID   ulid.ULID
	PrivilegeName string
}

// GroupRepository manages group persistence.
type GroupRepository interface {
	// Create stores a new group. Returns ErrConflict if the name is taken.
	Create(ctx context.Context, group *Group) error

	// GetByID retrieves a group by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Group, error)

	// GetByName retrieves a group by name.
	GetByName(ctx context.Context, name string) (*Group, error)

	// List returns every group ordered by name.
	List(ctx context.Context) ([]*Group, error)
}

// PrivilegeRepository manages privileges and both grant relations.
type PrivilegeRepository interface {
	// Create stores a new privilege. Returns ErrConflict if the name is taken.
	Create(ctx context.Context, privilege *Privilege) error

	// GetByID retrieves a privilege by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Privilege, error)

	// GetByName retrieves a privilege by name.
	GetByName(ctx context.Context, name string) (*Privilege, error)

	// List returns every privilege ordered by name.
	List(ctx context.Context) ([]*Privilege, error)

	// GrantToGroup links a privilege to a group. Returns ErrConflict for an
	// existing pair and ErrNotFound when either side does not exist.
	GrantToGroup(ctx context.Context, groupID, privilegeID ulid.ULID) error

	// RevokeFromGroup removes a group grant. Returns ErrNotFound if absent.
	RevokeFromGroup(ctx context.Context, groupID, privilegeID ulid.ULID) error

	// GrantToAccount links a privilege directly to an account. Returns
	// ErrConflict for an existing pair and ErrNotFound when either side does not exist.
	GrantToAccount(ctx context.Context, accountID, privilegeID ulid.ULID) error

	// RevokeFromAccount removes a direct grant. Returns ErrNotFound if absent.
	RevokeFromAccount(ctx context.Context, accountID, privilegeID ulid.ULID) error

	// ListGroupGrants returns the whole group/privilege relation.
	ListGroupGrants(ctx context.Context) ([]GroupGrant, error)

	// ListByGroup returns the privileges granted to a group.
	ListByGroup(ctx context.Context, groupID ulid.ULID) ([]*Privilege, error)

	// ListByAccount returns the privileges granted directly to an account.
	ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*Privilege, error)
}
