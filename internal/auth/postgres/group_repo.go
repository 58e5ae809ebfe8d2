// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/wardenauth/warden/internal/auth"
)

// GroupRepository implements auth.GroupRepository using PostgreSQL.
type GroupRepository struct {
	pool poolIface
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool poolIface) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// Create stores a new group.
func (r *GroupRepository) Create(ctx context.Context, group *auth.Group) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO groups (id, name, description, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, group.ID.String(), group.Name, nullableString(group.Description), group.IsAdmin, group.CreatedAt)
	if isUniqueViolation(err) {
		return oops.Code("GROUP_NAME_TAKEN").
			With("name", group.Name).
			Wrap(auth.ErrConflict)
	}
	if err != nil {
		return oops.Code("GROUP_CREATE_FAILED").
			With("operation", "insert group").
			With("name", group.Name).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Group, error) {
	group, err := scanGroup(r.pool.QueryRow(ctx, `
		SELECT id, name, description, is_admin, created_at FROM groups WHERE id = $1
	`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("GROUP_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("GROUP_GET_FAILED").
			With("operation", "get group by id").
			With("id", id.String()).
			Wrap(err)
	}
	return group, nil
}

// GetByName retrieves a group by name.
func (r *GroupRepository) GetByName(ctx context.Context, name string) (*auth.Group, error) {
	group, err := scanGroup(r.pool.QueryRow(ctx, `
		SELECT id, name, description, is_admin, created_at FROM groups WHERE name = $1
	`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("GROUP_NOT_FOUND").With("name", name).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("GROUP_GET_FAILED").
			With("operation", "get group by name").
			With("name", name).
			Wrap(err)
	}
	return group, nil
}

// List returns every group ordered by name.
func (r *GroupRepository) List(ctx context.Context) ([]*auth.Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, is_admin, created_at FROM groups ORDER BY name
	`)
	if err != nil {
		return nil, oops.Code("GROUP_LIST_FAILED").With("operation", "list groups").Wrap(err)
	}
	defer rows.Close()

	var groups []*auth.Group
	for rows.Next() {
		group, scanErr := scanGroup(rows)
		if scanErr != nil {
			return nil, oops.Code("GROUP_LIST_FAILED").With("operation", "scan group").Wrap(scanErr)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("GROUP_LIST_FAILED").With("operation", "iterate groups").Wrap(err)
	}
	return groups, nil
}

func scanGroup(row pgx.Row) (*auth.Group, error) {
	var (
		idStr       string
		description *string
		group       auth.Group
	)
	if err := row.Scan(&idStr, &group.Name, &description, &group.IsAdmin, &group.CreatedAt); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("GROUP_INVALID_ID").With("id", idStr).Wrap(err)
	}
	group.ID = id
	group.Description = derefString(description)
	return &group, nil
}
