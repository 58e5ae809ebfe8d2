// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/wardenauth/warden/internal/auth"
)

// Service manages groups, privileges and both grant relations, and answers
// membership and permission questions about accounts.
//
// The service holds no state of its own beyond a cache of compiled
// privilege patterns, so it is safe for concurrent use whenever the
// repositories are.
type Service struct {
	accounts   auth.AccountRepository
	groups     auth.GroupRepository
	privileges auth.PrivilegeRepository
	clock      auth.Clock
	logger     *slog.Logger
	patterns   *patternCache
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for best-effort warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock sets the clock used to stamp new groups and privileges.
func WithClock(clock auth.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService creates a Service over the given repositories.
func NewService(accounts auth.AccountRepository, groups auth.GroupRepository, privileges auth.PrivilegeRepository, opts ...Option) (*Service, error) {
	switch {
	case accounts == nil:
		return nil, oops.Code("ACCESS_INVALID_CONFIG").Errorf("account repository is required")
	case groups == nil:
		return nil, oops.Code("ACCESS_INVALID_CONFIG").Errorf("group repository is required")
	case privileges == nil:
		return nil, oops.Code("ACCESS_INVALID_CONFIG").Errorf("privilege repository is required")
	}

	s := &Service{
		accounts:   accounts,
		groups:     groups,
		privileges: privileges,
		clock:      auth.SystemClock{},
		logger:     slog.Default(),
		patterns:   newPatternCache(maxCachedPatterns),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateGroup stores a new group. Names are unique.
func (s *Service) CreateGroup(ctx context.Context, name, description string, isAdmin bool) (*auth.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code("ACCESS_INVALID_NAME").
			With("entity", "group").
			Wrapf(auth.ErrInvalidArgument, "group name is empty")
	}

	group := &auth.Group{
		ID:          ulid.Make(),
		Name:        name,
		Description: description,
		IsAdmin:     isAdmin,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, oops.Code("ACCESS_CREATE_GROUP_FAILED").With("name", name).Wrap(err)
	}
	return group, nil
}

// CreatePrivilege stores a new privilege. Names are unique.
func (s *Service) CreatePrivilege(ctx context.Context, name, description string) (*auth.Privilege, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code("ACCESS_INVALID_NAME").
			With("entity", "privilege").
			Wrapf(auth.ErrInvalidArgument, "privilege name is empty")
	}

	privilege := &auth.Privilege{
		ID:          ulid.Make(),
		Name:        name,
		Description: description,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.privileges.Create(ctx, privilege); err != nil {
		return nil, oops.Code("ACCESS_CREATE_PRIVILEGE_FAILED").With("name", name).Wrap(err)
	}
	return privilege, nil
}

// GroupByName looks a group up by name.
func (s *Service) GroupByName(ctx context.Context, name string) (*auth.Group, error) {
	group, err := s.groups.GetByName(ctx, name)
	if err != nil {
		return nil, oops.Code("ACCESS_GROUP_LOOKUP_FAILED").With("name", name).Wrap(err)
	}
	return group, nil
}

// PrivilegeByName looks a privilege up by name.
func (s *Service) PrivilegeByName(ctx context.Context, name string) (*auth.Privilege, error) {
	privilege, err := s.privileges.GetByName(ctx, name)
	if err != nil {
		return nil, oops.Code("ACCESS_PRIVILEGE_LOOKUP_FAILED").With("name", name).Wrap(err)
	}
	return privilege, nil
}

// GrantGroupPrivilege attaches a privilege to a group. A pair that already
// exists is a conflict, not an upsert.
func (s *Service) GrantGroupPrivilege(ctx context.Context, groupID, privilegeID ulid.ULID) error {
	if err := s.privileges.GrantToGroup(ctx, groupID, privilegeID); err != nil {
		return oops.Code("ACCESS_GRANT_FAILED").
			With("group_id", groupID.String()).
			With("privilege_id", privilegeID.String()).
			Wrap(err)
	}
	return nil
}

// RevokeGroupPrivilege detaches a privilege from a group.
func (s *Service) RevokeGroupPrivilege(ctx context.Context, groupID, privilegeID ulid.ULID) error {
	if err := s.privileges.RevokeFromGroup(ctx, groupID, privilegeID); err != nil {
		return oops.Code("ACCESS_REVOKE_FAILED").
			With("group_id", groupID.String()).
			With("privilege_id", privilegeID.String()).
			Wrap(err)
	}
	return nil
}

// GrantAccountPrivilege attaches a privilege directly to an account.
func (s *Service) GrantAccountPrivilege(ctx context.Context, accountID, privilegeID ulid.ULID) error {
	if err := s.privileges.GrantToAccount(ctx, accountID, privilegeID); err != nil {
		return oops.Code("ACCESS_GRANT_FAILED").
			With("account_id", accountID.String()).
			With("privilege_id", privilegeID.String()).
			Wrap(err)
	}
	return nil
}

// RevokeAccountPrivilege detaches a direct privilege from an account.
func (s *Service) RevokeAccountPrivilege(ctx context.Context, accountID, privilegeID ulid.ULID) error {
	if err := s.privileges.RevokeFromAccount(ctx, accountID, privilegeID); err != nil {
		return oops.Code("ACCESS_REVOKE_FAILED").
			With("account_id", accountID.String()).
			With("privilege_id", privilegeID.String()).
			Wrap(err)
	}
	return nil
}

// AssignGroup moves an account into a group. A nil groupID removes the
// account from its group.
func (s *Service) AssignGroup(ctx context.Context, accountID ulid.ULID, groupID *ulid.ULID) error {
	if err := s.accounts.SetGroup(ctx, accountID, groupID); err != nil {
		builder := oops.Code("ACCESS_ASSIGN_GROUP_FAILED").With("account_id", accountID.String())
		if groupID != nil {
			builder = builder.With("group_id", groupID.String())
		}
		return builder.Wrap(err)
	}
	return nil
}

// AccountGroup returns the account's group. An account without a group
// reports ErrNotFound.
func (s *Service) AccountGroup(ctx context.Context, accountID ulid.ULID) (*auth.Group, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, oops.Code("ACCESS_ACCOUNT_LOOKUP_FAILED").With("account_id", accountID.String()).Wrap(err)
	}
	if account.GroupID == nil {
		return nil, oops.Code("ACCESS_NO_GROUP").
			With("account_id", accountID.String()).
			Wrap(auth.ErrNotFound)
	}
	group, err := s.groups.GetByID(ctx, *account.GroupID)
	if err != nil {
		return nil, oops.Code("ACCESS_GROUP_LOOKUP_FAILED").
			With("account_id", accountID.String()).
			With("group_id", account.GroupID.String()).
			Wrap(err)
	}
	return group, nil
}

// InGroup reports whether the account belongs to groupID.
func (s *Service) InGroup(ctx context.Context, accountID, groupID ulid.ULID) (bool, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return false, oops.Code("ACCESS_ACCOUNT_LOOKUP_FAILED").With("account_id", accountID.String()).Wrap(err)
	}
	return account.GroupID != nil && *account.GroupID == groupID, nil
}

// IsAdmin reports whether the account's group carries the admin flag.
// Accounts without a group, or whose group no longer exists, are not admins.
func (s *Service) IsAdmin(ctx context.Context, accountID ulid.ULID) (bool, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return false, oops.Code("ACCESS_ACCOUNT_LOOKUP_FAILED").With("account_id", accountID.String()).Wrap(err)
	}
	if account.GroupID == nil {
		return false, nil
	}
	group, err := s.groups.GetByID(ctx, *account.GroupID)
	if errors.Is(err, auth.ErrNotFound) {
		s.logger.WarnContext(ctx, "account references a missing group",
			"account_id", accountID.String(),
			"group_id", account.GroupID.String())
		return false, nil
	}
	if err != nil {
		return false, oops.Code("ACCESS_GROUP_LOOKUP_FAILED").
			With("account_id", accountID.String()).
			With("group_id", account.GroupID.String()).
			Wrap(err)
	}
	return group.IsAdmin, nil
}

// ListGroups returns every group ordered by name.
func (s *Service) ListGroups(ctx context.Context) ([]*auth.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, oops.Code("ACCESS_LIST_FAILED").With("operation", "list groups").Wrap(err)
	}
	return groups, nil
}

// ListPrivileges returns every privilege ordered by name.
func (s *Service) ListPrivileges(ctx context.Context) ([]*auth.Privilege, error) {
	privileges, err := s.privileges.List(ctx)
	if err != nil {
		return nil, oops.Code("ACCESS_LIST_FAILED").With("operation", "list privileges").Wrap(err)
	}
	return privileges, nil
}

// ListGroupPrivileges returns every group/privilege pair with names.
func (s *Service) ListGroupPrivileges(ctx context.Context) ([]auth.GroupGrant, error) {
	grants, err := s.privileges.ListGroupGrants(ctx)
	if err != nil {
		return nil, oops.Code("ACCESS_LIST_FAILED").With("operation", "list group grants").Wrap(err)
	}
	return grants, nil
}

// GroupPrivileges returns the privileges granted to a group.
func (s *Service) GroupPrivileges(ctx context.Context, groupID ulid.ULID) ([]*auth.Privilege, error) {
	privileges, err := s.privileges.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, oops.Code("ACCESS_LIST_FAILED").
			With("operation", "list group privileges").
			With("group_id", groupID.String()).
			Wrap(err)
	}
	return privileges, nil
}

// AccountPrivileges returns the privileges granted directly to an account.
func (s *Service) AccountPrivileges(ctx context.Context, accountID ulid.ULID) ([]*auth.Privilege, error) {
	privileges, err := s.privileges.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, oops.Code("ACCESS_LIST_FAILED").
			With("operation", "list account privileges").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return privileges, nil
}

// GroupPrivilegesForAccount returns the privileges the account holds
// through its group. An account without a group holds none this way.
func (s *Service) GroupPrivilegesForAccount(ctx context.Context, accountID ulid.ULID) ([]*auth.Privilege, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, oops.Code("ACCESS_ACCOUNT_LOOKUP_FAILED").With("account_id", accountID.String()).Wrap(err)
	}
	if account.GroupID == nil {
		return nil, nil
	}
	return s.GroupPrivileges(ctx, *account.GroupID)
}

// EffectivePrivileges returns the group privileges of the account followed
// by its direct privileges. A privilege held both ways appears twice; pass
// the result through Dedupe for a set.
func (s *Service) EffectivePrivileges(ctx context.Context, accountID ulid.ULID) ([]*auth.Privilege, error) {
	viaGroup, err := s.GroupPrivilegesForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	direct, err := s.AccountPrivileges(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return append(viaGroup, direct...), nil
}

// HasPrivilege reports whether any effective privilege of the account
// matches pattern. Patterns use '.' as the segment separator: "*" matches
// within a segment and "**" across segments.
func (s *Service) HasPrivilege(ctx context.Context, accountID ulid.ULID, pattern string) (bool, error) {
	g, err := s.patterns.compile(pattern)
	if err != nil {
		return false, err
	}
	privileges, err := s.EffectivePrivileges(ctx, accountID)
	if err != nil {
		return false, err
	}
	for _, p := range privileges {
		if g.Match(p.Name) {
			return true, nil
		}
	}
	s.logger.DebugContext(ctx, "privilege check denied",
		"account_id", accountID.String(),
		"pattern", pattern)
	return false, nil
}

// Dedupe removes repeated privileges, keeping the first occurrence of each ID.
func Dedupe(privileges []*auth.Privilege) []*auth.Privilege {
	seen := make(map[ulid.ULID]struct{}, len(privileges))
	out := make([]*auth.Privilege, 0, len(privileges))
	for _, p := range privileges {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
