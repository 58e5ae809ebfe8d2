// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package access_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wardenauth/warden/internal/access"
	"github.com/wardenauth/warden/internal/access/accesstest"
	"github.com/wardenauth/warden/internal/auth"
	"github.com/wardenauth/warden/internal/auth/authtest"
	"github.com/wardenauth/warden/internal/auth/mocks"
	"github.com/wardenauth/warden/pkg/errutil"
)

type fixture struct {
	engine *authtest.Engine
	access *access.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine := authtest.NewEngine(authtest.Settings())
	return &fixture{
		engine: engine,
		access: accesstest.NewService(engine.Store, access.WithClock(engine.Clock)),
	}
}

func (f *fixture) account(t *testing.T, email string) *auth.Account {
	t.Helper()
	account, _, err := f.engine.Accounts.CreateAccount(context.Background(), auth.NewAccount{
		Email:    email,
		Password: "correct horse",
		Active:   true,
	})
	require.NoError(t, err)
	return account
}

func names(privileges []*auth.Privilege) []string {
	out := make([]string, 0, len(privileges))
	for _, p := range privileges {
		out = append(out, p.Name)
	}
	return out
}

func TestNewService_Validation(t *testing.T) {
	store := authtest.NewStore()

	_, err := access.NewService(nil, store.Groups(), store.Privileges())
	errutil.AssertErrorCode(t, err, "ACCESS_INVALID_CONFIG")
	_, err = access.NewService(store.Accounts(), nil, store.Privileges())
	errutil.AssertErrorCode(t, err, "ACCESS_INVALID_CONFIG")
	_, err = access.NewService(store.Accounts(), store.Groups(), nil)
	errutil.AssertErrorCode(t, err, "ACCESS_INVALID_CONFIG")
}

func TestService_CreateGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	group, err := f.access.CreateGroup(ctx, "  staff ", "Staff members", true)
	require.NoError(t, err)
	assert.Equal(t, "staff", group.Name)
	assert.True(t, group.IsAdmin)
	assert.Equal(t, authtest.Epoch, group.CreatedAt)

	_, err = f.access.CreateGroup(ctx, "staff", "", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrConflict)
	assert.Equal(t, auth.KindConflict, auth.KindOf(err))

	_, err = f.access.CreateGroup(ctx, "   ", "", false)
	errutil.AssertErrorIs(t, err, auth.ErrInvalidArgument, "ACCESS_INVALID_NAME")

	groups, err := f.access.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestService_CreatePrivilege(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.access.CreatePrivilege(ctx, "reports.view", "View reports")
	require.NoError(t, err)
	_, err = f.access.CreatePrivilege(ctx, "reports.view", "again")
	assert.ErrorIs(t, err, auth.ErrConflict)
	_, err = f.access.CreatePrivilege(ctx, "", "")
	errutil.AssertErrorIs(t, err, auth.ErrInvalidArgument, "ACCESS_INVALID_NAME")

	got, err := f.access.PrivilegeByName(ctx, "reports.view")
	require.NoError(t, err)
	assert.Equal(t, "View reports", got.Description)

	_, err = f.access.PrivilegeByName(ctx, "missing")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestService_Grants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	group, err := f.access.CreateGroup(ctx, "editors", "", false)
	require.NoError(t, err)
	privilege, err := f.access.CreatePrivilege(ctx, "articles.edit", "")
	require.NoError(t, err)
	account := f.account(t, "ed@example.com")

	require.NoError(t, f.access.GrantGroupPrivilege(ctx, group.ID, privilege.ID))
	err = f.access.GrantGroupPrivilege(ctx, group.ID, privilege.ID)
	errutil.AssertErrorIs(t, err, auth.ErrConflict, "ACCESS_GRANT_FAILED")
	err = f.access.GrantGroupPrivilege(ctx, ulid.Make(), privilege.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)

	require.NoError(t, f.access.GrantAccountPrivilege(ctx, account.ID, privilege.ID))
	assert.ErrorIs(t, f.access.GrantAccountPrivilege(ctx, account.ID, privilege.ID), auth.ErrConflict)
	assert.ErrorIs(t, f.access.GrantAccountPrivilege(ctx, account.ID, ulid.Make()), auth.ErrNotFound)

	grants, err := f.access.ListGroupPrivileges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []auth.GroupGrant{{
		GroupID: group.ID, GroupName: "editors", PrivilegeID: privilege.ID, PrivilegeName: "articles.edit",
	}}, grants)

	require.NoError(t, f.access.RevokeGroupPrivilege(ctx, group.ID, privilege.ID))
	err = f.access.RevokeGroupPrivilege(ctx, group.ID, privilege.ID)
	errutil.AssertErrorIs(t, err, auth.ErrNotFound, "ACCESS_REVOKE_FAILED")
	require.NoError(t, f.access.RevokeAccountPrivilege(ctx, account.ID, privilege.ID))
	assert.ErrorIs(t, f.access.RevokeAccountPrivilege(ctx, account.ID, privilege.ID), auth.ErrNotFound)

	byGroup, err := f.access.GroupPrivileges(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, byGroup)
}

func TestService_GroupMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admins, err := f.access.CreateGroup(ctx, "admins", "", true)
	require.NoError(t, err)
	members, err := f.access.CreateGroup(ctx, "members", "", false)
	require.NoError(t, err)
	account := f.account(t, "grace@example.com")

	t.Run("no group", func(t *testing.T) {
		_, err := f.access.AccountGroup(ctx, account.ID)
		errutil.AssertErrorIs(t, err, auth.ErrNotFound, "ACCESS_NO_GROUP")

		in, err := f.access.InGroup(ctx, account.ID, admins.ID)
		require.NoError(t, err)
		assert.False(t, in)

		admin, err := f.access.IsAdmin(ctx, account.ID)
		require.NoError(t, err)
		assert.False(t, admin)
	})

	t.Run("admin group", func(t *testing.T) {
		require.NoError(t, f.access.AssignGroup(ctx, account.ID, &admins.ID))

		group, err := f.access.AccountGroup(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, admins.ID, group.ID)

		in, err := f.access.InGroup(ctx, account.ID, admins.ID)
		require.NoError(t, err)
		assert.True(t, in)
		in, err = f.access.InGroup(ctx, account.ID, members.ID)
		require.NoError(t, err)
		assert.False(t, in)

		admin, err := f.access.IsAdmin(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, admin)
	})

	t.Run("moved to a plain group", func(t *testing.T) {
		require.NoError(t, f.access.AssignGroup(ctx, account.ID, &members.ID))
		admin, err := f.access.IsAdmin(ctx, account.ID)
		require.NoError(t, err)
		assert.False(t, admin)
	})

	t.Run("removed from group", func(t *testing.T) {
		require.NoError(t, f.access.AssignGroup(ctx, account.ID, nil))
		_, err := f.access.AccountGroup(ctx, account.ID)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("unknown group or account", func(t *testing.T) {
		missing := ulid.Make()
		err := f.access.AssignGroup(ctx, account.ID, &missing)
		errutil.AssertErrorIs(t, err, auth.ErrNotFound, "ACCESS_ASSIGN_GROUP_FAILED")

		_, err = f.access.IsAdmin(ctx, ulid.Make())
		assert.ErrorIs(t, err, auth.ErrNotFound)
		_, err = f.access.InGroup(ctx, ulid.Make(), admins.ID)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestService_EffectivePrivileges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	group, err := f.access.CreateGroup(ctx, "analysts", "", false)
	require.NoError(t, err)
	reportsView, err := f.access.CreatePrivilege(ctx, "reports.view", "")
	require.NoError(t, err)
	reportsExport, err := f.access.CreatePrivilege(ctx, "reports.export", "")
	require.NoError(t, err)
	account := f.account(t, "ana@example.com")
	require.NoError(t, f.access.AssignGroup(ctx, account.ID, &group.ID))
	require.NoError(t, f.access.GrantGroupPrivilege(ctx, group.ID, reportsView.ID))

	t.Run("distinct group and direct privileges", func(t *testing.T) {
		require.NoError(t, f.access.GrantAccountPrivilege(ctx, account.ID, reportsExport.ID))
		t.Cleanup(func() { _ = f.access.RevokeAccountPrivilege(ctx, account.ID, reportsExport.ID) })

		got, err := f.access.EffectivePrivileges(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"reports.view", "reports.export"}, names(got))
		assert.Equal(t, names(got), names(access.Dedupe(got)))
	})

	t.Run("same privilege both ways", func(t *testing.T) {
		require.NoError(t, f.access.GrantAccountPrivilege(ctx, account.ID, reportsView.ID))

		got, err := f.access.EffectivePrivileges(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"reports.view", "reports.view"}, names(got))
		assert.Equal(t, []string{"reports.view"}, names(access.Dedupe(got)))

		viaGroup, err := f.access.GroupPrivilegesForAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"reports.view"}, names(viaGroup))
		direct, err := f.access.AccountPrivileges(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"reports.view"}, names(direct))
	})

	t.Run("account without group holds only direct grants", func(t *testing.T) {
		loner := f.account(t, "loner@example.com")
		require.NoError(t, f.access.GrantAccountPrivilege(ctx, loner.ID, reportsExport.ID))

		viaGroup, err := f.access.GroupPrivilegesForAccount(ctx, loner.ID)
		require.NoError(t, err)
		assert.Empty(t, viaGroup)
		got, err := f.access.EffectivePrivileges(ctx, loner.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"reports.export"}, names(got))
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := f.access.EffectivePrivileges(ctx, ulid.Make())
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestService_HasPrivilege(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	privilege, err := f.access.CreatePrivilege(ctx, "reports.sales.view", "")
	require.NoError(t, err)
	account := f.account(t, "hp@example.com")
	require.NoError(t, f.access.GrantAccountPrivilege(ctx, account.ID, privilege.ID))

	tests := []struct {
		pattern string
		want    bool
	}{
		{"reports.sales.view", true},
		{"reports.*.view", true},
		{"reports.**", true},
		{"reports.*", false},
		{"billing.**", false},
		{"reports.{sales,hr}.view", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := f.access.HasPrivilege(ctx, account.ID, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := f.access.HasPrivilege(ctx, account.ID, "reports.[")
		errutil.AssertErrorIs(t, err, auth.ErrInvalidArgument, "ACCESS_INVALID_PATTERN")
		_, err = f.access.HasPrivilege(ctx, account.ID, " ")
		errutil.AssertErrorIs(t, err, auth.ErrInvalidArgument, "ACCESS_INVALID_PATTERN")
	})
}

func TestDedupe_KeepsFirstOccurrenceOrder(t *testing.T) {
	a := &auth.Privilege{ID: ulid.Make(), Name: "a"}
	b := &auth.Privilege{ID: ulid.Make(), Name: "b"}
	assert.Equal(t, []*auth.Privilege{b, a}, access.Dedupe([]*auth.Privilege{b, a, b, a}))
	assert.Empty(t, access.Dedupe(nil))
}

func TestService_CollaboratorFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	accountID := ulid.Make()
	groupID := ulid.Make()

	t.Run("list failure is not a domain error", func(t *testing.T) {
		privileges := mocks.NewMockPrivilegeRepository(t)
		privileges.On("List", mock.Anything).Return(nil, boom)
		svc, err := access.NewService(mocks.NewMockAccountRepository(t), mocks.NewMockGroupRepository(t), privileges)
		require.NoError(t, err)

		_, err = svc.ListPrivileges(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.True(t, auth.IsCollaboratorFailure(err))
		errutil.AssertErrorContext(t, err, "operation", "list privileges")
	})

	t.Run("group lookup failure during admin check", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		groups := mocks.NewMockGroupRepository(t)
		accounts.On("GetByID", mock.Anything, accountID).Return(&auth.Account{ID: accountID, GroupID: &groupID}, nil)
		groups.On("GetByID", mock.Anything, groupID).Return(nil, boom)
		svc, err := access.NewService(accounts, groups, mocks.NewMockPrivilegeRepository(t))
		require.NoError(t, err)

		_, err = svc.IsAdmin(ctx, accountID)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCESS_GROUP_LOOKUP_FAILED")
		assert.True(t, auth.IsCollaboratorFailure(err))
	})

	t.Run("dangling group reference is logged and not admin", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		accounts := mocks.NewMockAccountRepository(t)
		groups := mocks.NewMockGroupRepository(t)
		accounts.On("GetByID", mock.Anything, accountID).Return(&auth.Account{ID: accountID, GroupID: &groupID}, nil)
		groups.On("GetByID", mock.Anything, groupID).Return(nil, auth.ErrNotFound)
		svc, err := access.NewService(accounts, groups, mocks.NewMockPrivilegeRepository(t), access.WithLogger(logger))
		require.NoError(t, err)

		admin, err := svc.IsAdmin(ctx, accountID)
		require.NoError(t, err)
		assert.False(t, admin)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "account references a missing group", entry["msg"])
		assert.Equal(t, groupID.String(), entry["group_id"])
	})
}
