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

// PrivilegeRepository implements auth.PrivilegeRepository using PostgreSQL.
type PrivilegeRepository struct {
	pool poolIface
}

// NewPrivilegeRepository creates a new PrivilegeRepository.
func NewPrivilegeRepository(pool poolIface) *PrivilegeRepository {
	return &PrivilegeRepository{pool: pool}
}

// Create stores a new privilege.
func (r *PrivilegeRepository) Create(ctx context.Context, privilege *auth.Privilege) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO privileges (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
	`, privilege.ID.String(), privilege.Name, nullableString(privilege.Description), privilege.CreatedAt)
	if isUniqueViolation(err) {
		return oops.Code("PRIVILEGE_NAME_TAKEN").
			With("name", privilege.Name).
			Wrap(auth.ErrConflict)
	}
	if err != nil {
		return oops.Code("PRIVILEGE_CREATE_FAILED").
			With("operation", "insert privilege").
			With("name", privilege.Name).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a privilege by ID.
func (r *PrivilegeRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Privilege, error) {
	privilege, err := scanPrivilege(r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM privileges WHERE id = $1
	`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRIVILEGE_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PRIVILEGE_GET_FAILED").
			With("operation", "get privilege by id").
			With("id", id.String()).
			Wrap(err)
	}
	return privilege, nil
}

// GetByName retrieves a privilege by name.
func (r *PrivilegeRepository) GetByName(ctx context.Context, name string) (*auth.Privilege, error) {
	privilege, err := scanPrivilege(r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM privileges WHERE name = $1
	`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRIVILEGE_NOT_FOUND").With("name", name).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PRIVILEGE_GET_FAILED").
			With("operation", "get privilege by name").
			With("name", name).
			Wrap(err)
	}
	return privilege, nil
}

// List returns every privilege ordered by name.
func (r *PrivilegeRepository) List(ctx context.Context) ([]*auth.Privilege, error) {
	return r.queryPrivileges(ctx, "list privileges", `
		SELECT id, name, description, created_at FROM privileges ORDER BY name
	`)
}

// GrantToGroup links a privilege to a group.
func (r *PrivilegeRepository) GrantToGroup(ctx context.Context, groupID, privilegeID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_privileges (group_id, privilege_id) VALUES ($1, $2)
	`, groupID.String(), privilegeID.String())
	return grantError(err, "grant privilege to group", "group_id", groupID, privilegeID)
}

// RevokeFromGroup removes a group grant.
func (r *PrivilegeRepository) RevokeFromGroup(ctx context.Context, groupID, privilegeID ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM group_privileges WHERE group_id = $1 AND privilege_id = $2
	`, groupID.String(), privilegeID.String())
	return revokeError(result.RowsAffected(), err, "revoke privilege from group", "group_id", groupID, privilegeID)
}

// GrantToAccount links a privilege directly to an account.
func (r *PrivilegeRepository) GrantToAccount(ctx context.Context, accountID, privilegeID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO account_privileges (account_id, privilege_id) VALUES ($1, $2)
	`, accountID.String(), privilegeID.String())
	return grantError(err, "grant privilege to account", "account_id", accountID, privilegeID)
}

// RevokeFromAccount removes a direct grant.
func (r *PrivilegeRepository) RevokeFromAccount(ctx context.Context, accountID, privilegeID ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM account_privileges WHERE account_id = $1 AND privilege_id = $2
	`, accountID.String(), privilegeID.String())
	return revokeError(result.RowsAffected(), err, "revoke privilege from account", "account_id", accountID, privilegeID)
}

// ListGroupGrants returns the whole group/privilege relation joined with names.
func (r *PrivilegeRepository) ListGroupGrants(ctx context.Context) ([]auth.GroupGrant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name, p.id, p.name
		FROM group_privileges gp
		JOIN groups g ON g.id = gp.group_id
		JOIN privileges p ON p.id = gp.privilege_id
		ORDER BY g.name, p.name
	`)
	if err != nil {
		return nil, oops.Code("GRANT_LIST_FAILED").With("operation", "list group grants").Wrap(err)
	}
	defer rows.Close()

	var grants []auth.GroupGrant
	for rows.Next() {
		var (
			groupIDStr, privilegeIDStr string
			grant                      auth.GroupGrant
		)
		if scanErr := rows.Scan(&groupIDStr, &grant.GroupName, &privilegeIDStr, &grant.PrivilegeName); scanErr != nil {
			return nil, oops.Code("GRANT_LIST_FAILED").With("operation", "scan group grant").Wrap(scanErr)
		}
		if grant.GroupID, err = ulid.Parse(groupIDStr); err != nil {
			return nil, oops.Code("GROUP_INVALID_ID").With("id", groupIDStr).Wrap(err)
		}
		if grant.PrivilegeID, err = ulid.Parse(privilegeIDStr); err != nil {
			return nil, oops.Code("PRIVILEGE_INVALID_ID").With("id", privilegeIDStr).Wrap(err)
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("GRANT_LIST_FAILED").With("operation", "iterate group grants").Wrap(err)
	}
	return grants, nil
}

// ListByGroup returns the privileges granted to a group.
func (r *PrivilegeRepository) ListByGroup(ctx context.Context, groupID ulid.ULID) ([]*auth.Privilege, error) {
	return r.queryPrivileges(ctx, "list privileges by group", `
		SELECT p.id, p.name, p.description, p.created_at
		FROM privileges p
		JOIN group_privileges gp ON gp.privilege_id = p.id
		WHERE gp.group_id = $1
		ORDER BY p.name
	`, groupID.String())
}

// ListByAccount returns the privileges granted directly to an account.
func (r *PrivilegeRepository) ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*auth.Privilege, error) {
	return r.queryPrivileges(ctx, "list privileges by account", `
		SELECT p.id, p.name, p.description, p.created_at
		FROM privileges p
		JOIN account_privileges ap ON ap.privilege_id = p.id
		WHERE ap.account_id = $1
		ORDER BY p.name
	`, accountID.String())
}

func (r *PrivilegeRepository) queryPrivileges(ctx context.Context, operation, sql string, args ...any) ([]*auth.Privilege, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, oops.Code("PRIVILEGE_LIST_FAILED").With("operation", operation).Wrap(err)
	}
	defer rows.Close()

	var privileges []*auth.Privilege
	for rows.Next() {
		privilege, scanErr := scanPrivilege(rows)
		if scanErr != nil {
			return nil, oops.Code("PRIVILEGE_LIST_FAILED").With("operation", operation).Wrap(scanErr)
		}
		privileges = append(privileges, privilege)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("PRIVILEGE_LIST_FAILED").With("operation", operation).Wrap(err)
	}
	return privileges, nil
}

func grantError(err error, operation, holderKey string, holderID, privilegeID ulid.ULID) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return oops.Code("GRANT_EXISTS").
			With(holderKey, holderID.String()).
			With("privilege_id", privilegeID.String()).
			Wrap(auth.ErrConflict)
	case isForeignKeyViolation(err):
		return oops.Code("GRANT_TARGET_NOT_FOUND").
			With(holderKey, holderID.String()).
			With("privilege_id", privilegeID.String()).
			Wrap(auth.ErrNotFound)
	default:
		return oops.Code("GRANT_FAILED").
			With("operation", operation).
			With(holderKey, holderID.String()).
			With("privilege_id", privilegeID.String()).
			Wrap(err)
	}
}

func revokeError(affected int64, err error, operation, holderKey string, holderID, privilegeID ulid.ULID) error {
	if err != nil {
		return oops.Code("REVOKE_FAILED").
			With("operation", operation).
			With(holderKey, holderID.String()).
			With("privilege_id", privilegeID.String()).
			Wrap(err)
	}
	if affected == 0 {
		return oops.Code("GRANT_NOT_FOUND").
			With(holderKey, holderID.String()).
			With("privilege_id", privilegeID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanPrivilege(row pgx.Row) (*auth.Privilege, error) {
	var (
		idStr       string
		description *string
		privilege   auth.Privilege
	)
	if err := row.Scan(&idStr, &privilege.Name, &description, &privilege.CreatedAt); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PRIVILEGE_INVALID_ID").With("id", idStr).Wrap(err)
	}
	privilege.ID = id
	privilege.Description = derefString(description)
	return &privilege, nil
}
