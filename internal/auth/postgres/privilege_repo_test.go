// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenauth/warden/internal/auth"
	"github.com/wardenauth/warden/pkg/errutil"
)

func TestGroupRepository_Create(t *testing.T) {
	group := &auth.Group{
		ID:        ulid.Make(),
		Name:      "staff",
		IsAdmin:   true,
		CreatedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("empty description stored as null", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`INSERT INTO groups`).
			WithArgs(group.ID.String(), "staff", (*string)(nil), true, group.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewGroupRepository(mock).Create(context.Background(), group))
	})

	t.Run("duplicate name", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`INSERT INTO groups`).
			WithArgs(group.ID.String(), "staff", (*string)(nil), true, group.CreatedAt).
			WillReturnError(pgError(pgerrcode.UniqueViolation))

		err := NewGroupRepository(mock).Create(context.Background(), group)
		errutil.AssertErrorIs(t, err, auth.ErrConflict, "GROUP_NAME_TAKEN")
	})
}

func TestGroupRepository_Lookups(t *testing.T) {
	id := ulid.Make()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{"id", "name", "description", "is_admin", "created_at"}

	t.Run("by name", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM groups WHERE name = \$1`).
			WithArgs("staff").
			WillReturnRows(pgxmock.NewRows(columns).AddRow(id.String(), "staff", strPtr("Staff"), true, at))

		got, err := NewGroupRepository(mock).GetByName(context.Background(), "staff")
		require.NoError(t, err)
		assert.Equal(t, &auth.Group{ID: id, Name: "staff", Description: "Staff", IsAdmin: true, CreatedAt: at}, got)
	})

	t.Run("by id missing", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM groups WHERE id = \$1`).
			WithArgs(id.String()).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewGroupRepository(mock).GetByID(context.Background(), id)
		errutil.AssertErrorIs(t, err, auth.ErrNotFound, "GROUP_NOT_FOUND")
	})

	t.Run("list", func(t *testing.T) {
		mock := newMockPool(t)
		other := ulid.Make()
		mock.ExpectQuery(`FROM groups ORDER BY name`).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(id.String(), "admins", (*string)(nil), true, at).
				AddRow(other.String(), "members", (*string)(nil), false, at))

		got, err := NewGroupRepository(mock).List(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "admins", got[0].Name)
		assert.False(t, got[1].IsAdmin)
	})

	t.Run("list failure", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM groups`).WillReturnError(errors.New("connection refused"))

		_, err := NewGroupRepository(mock).List(context.Background())
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "GROUP_LIST_FAILED")
	})
}

func TestPrivilegeRepository_Create(t *testing.T) {
	privilege := &auth.Privilege{
		ID:          ulid.Make(),
		Name:        "forum.post",
		Description: "Post to the forum",
		CreatedAt:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	mock := newMockPool(t)
	mock.ExpectExec(`INSERT INTO privileges`).
		WithArgs(privilege.ID.String(), "forum.post", strPtr("Post to the forum"), privilege.CreatedAt).
		WillReturnError(pgError(pgerrcode.UniqueViolation))

	err := NewPrivilegeRepository(mock).Create(context.Background(), privilege)
	errutil.AssertErrorIs(t, err, auth.ErrConflict, "PRIVILEGE_NAME_TAKEN")
}

func TestPrivilegeRepository_Grants(t *testing.T) {
	groupID, privilegeID := ulid.Make(), ulid.Make()
	ctx := context.Background()

	tests := []struct {
		name     string
		execErr  error
		wantIs   error
		wantCode string
	}{
		{name: "granted"},
		{name: "duplicate pair", execErr: pgError(pgerrcode.UniqueViolation), wantIs: auth.ErrConflict, wantCode: "GRANT_EXISTS"},
		{name: "missing side", execErr: pgError(pgerrcode.ForeignKeyViolation), wantIs: auth.ErrNotFound, wantCode: "GRANT_TARGET_NOT_FOUND"},
		{name: "database error", execErr: errors.New("connection refused"), wantCode: "GRANT_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			exp := mock.ExpectExec(`INSERT INTO group_privileges`).WithArgs(groupID.String(), privilegeID.String())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := NewPrivilegeRepository(mock).GrantToGroup(ctx, groupID, privilegeID)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}

	t.Run("account grant", func(t *testing.T) {
		mock := newMockPool(t)
		accountID := ulid.Make()
		mock.ExpectExec(`INSERT INTO account_privileges`).
			WithArgs(accountID.String(), privilegeID.String()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewPrivilegeRepository(mock).GrantToAccount(ctx, accountID, privilegeID))
	})
}

func TestPrivilegeRepository_Revokes(t *testing.T) {
	holderID, privilegeID := ulid.Make(), ulid.Make()
	ctx := context.Background()

	t.Run("absent group grant", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM group_privileges`).
			WithArgs(holderID.String(), privilegeID.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := NewPrivilegeRepository(mock).RevokeFromGroup(ctx, holderID, privilegeID)
		errutil.AssertErrorIs(t, err, auth.ErrNotFound, "GRANT_NOT_FOUND")
	})

	t.Run("account grant removed", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM account_privileges`).
			WithArgs(holderID.String(), privilegeID.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, NewPrivilegeRepository(mock).RevokeFromAccount(ctx, holderID, privilegeID))
	})

	t.Run("database error", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM account_privileges`).
			WithArgs(holderID.String(), privilegeID.String()).
			WillReturnError(errors.New("connection refused"))

		err := NewPrivilegeRepository(mock).RevokeFromAccount(ctx, holderID, privilegeID)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "REVOKE_FAILED")
		errutil.AssertErrorContext(t, err, "account_id", holderID.String())
	})
}

func TestPrivilegeRepository_Listings(t *testing.T) {
	groupID, privilegeID := ulid.Make(), ulid.Make()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("group grants", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM group_privileges gp`).
			WillReturnRows(pgxmock.NewRows([]string{"g.id", "g.name", "p.id", "p.name"}).
				AddRow(groupID.String(), "staff", privilegeID.String(), "forum.post"))

		got, err := NewPrivilegeRepository(mock).ListGroupGrants(ctx)
		require.NoError(t, err)
		assert.Equal(t, []auth.GroupGrant{{
			GroupID: groupID, GroupName: "staff", PrivilegeID: privilegeID, PrivilegeName: "forum.post",
		}}, got)
	})

	t.Run("by group", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`WHERE gp.group_id = \$1`).
			WithArgs(groupID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "created_at"}).
				AddRow(privilegeID.String(), "forum.post", (*string)(nil), at))

		got, err := NewPrivilegeRepository(mock).ListByGroup(ctx, groupID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "forum.post", got[0].Name)
		assert.Empty(t, got[0].Description)
	})

	t.Run("by account failure", func(t *testing.T) {
		mock := newMockPool(t)
		accountID := ulid.Make()
		mock.ExpectQuery(`WHERE ap.account_id = \$1`).
			WithArgs(accountID.String()).
			WillReturnError(errors.New("connection refused"))

		_, err := NewPrivilegeRepository(mock).ListByAccount(ctx, accountID)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "PRIVILEGE_LIST_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "list privileges by account")
	})
}
