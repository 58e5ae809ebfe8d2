// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package authtest provides in-memory implementations of the auth
// repositories, a controllable clock and map-backed carriers.
package authtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wardenauth/warden/internal/auth"
)

// Store is an in-memory credential store. It implements every repository
// interface of package auth and is safe for concurrent use.
type Store struct {
	mu              sync.Mutex
	accounts        map[ulid.ULID]*auth.Account
	origins         map[string]*auth.OriginAttempt
	remember        map[ulid.ULID]*auth.RememberToken
	groups          map[ulid.ULID]*auth.Group
	privileges      map[ulid.ULID]*auth.Privilege
	groupGrants     map[[2]ulid.ULID]struct{}
	accountGrants   map[[2]ulid.ULID]struct{}
	accountGrantSeq [][2]ulid.ULID
	groupGrantSeq   [][2]ulid.ULID
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:      make(map[ulid.ULID]*auth.Account),
		origins:       make(map[string]*auth.OriginAttempt),
		remember:      make(map[ulid.ULID]*auth.RememberToken),
		groups:        make(map[ulid.ULID]*auth.Group),
		privileges:    make(map[ulid.ULID]*auth.Privilege),
		groupGrants:   make(map[[2]ulid.ULID]struct{}),
		accountGrants: make(map[[2]ulid.ULID]struct{}),
	}
}

// Accounts returns the store as an AccountRepository.
func (s *Store) Accounts() auth.AccountRepository { return accountRepo{s} }

// Origins returns the store as an OriginAttemptRepository.
func (s *Store) Origins() auth.OriginAttemptRepository { return originRepo{s} }

// RememberTokens returns the store as a RememberTokenRepository.
func (s *Store) RememberTokens() auth.RememberTokenRepository { return rememberRepo{s} }

// Groups returns the store as a GroupRepository.
func (s *Store) Groups() auth.GroupRepository { return groupRepo{s} }

// Privileges returns the store as a PrivilegeRepository.
func (s *Store) Privileges() auth.PrivilegeRepository { return privilegeRepo{s} }

// AccountCount returns the number of stored accounts.
func (s *Store) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// RememberTokenCount returns the number of stored remember tokens of an account.
func (s *Store) RememberTokenCount(accountID ulid.ULID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.remember {
		if t.AccountID == accountID {
			n++
		}
	}
	return n
}

func cloneAccount(a *auth.Account) *auth.Account {
	c := *a
	if a.GroupID != nil {
		g := *a.GroupID
		c.GroupID = &g
	}
	if a.BanUntil != nil {
		t := *a.BanUntil
		c.BanUntil = &t
	}
	if a.EmailVerificationIssuedAt != nil {
		t := *a.EmailVerificationIssuedAt
		c.EmailVerificationIssuedAt = &t
	}
	if a.PasswordResetIssuedAt != nil {
		t := *a.PasswordResetIssuedAt
		c.PasswordResetIssuedAt = &t
	}
	return &c
}

type accountRepo struct{ s *Store }

func (r accountRepo) Create(_ context.Context, account *auth.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return auth.ErrConflict
		}
	}
	r.s.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r accountRepo) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r accountRepo) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if strings.EqualFold(a.Email, email) {
			return cloneAccount(a), nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r accountRepo) update(id ulid.ULID, fn func(a *auth.Account)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	fn(a)
	return nil
}

func (r accountRepo) IncrementFailedLogins(_ context.Context, id ulid.ULID) error {
	return r.update(id, func(a *auth.Account) { a.FailedLogins++ })
}

func (r accountRepo) ResetFailedLogins(_ context.Context, id ulid.ULID) error {
	return r.update(id, func(a *auth.Account) { a.FailedLogins = 0 })
}

func (r accountRepo) Ban(_ context.Context, id ulid.ULID, until time.Time) error {
	return r.update(id, func(a *auth.Account) {
		a.BanUntil = &until
		a.FailedLogins = 0
	})
}

func (r accountRepo) SetActive(_ context.Context, id ulid.ULID, active bool) error {
	return r.update(id, func(a *auth.Account) { a.Active = active })
}

func (r accountRepo) SetGroup(_ context.Context, id ulid.ULID, groupID *ulid.ULID) error {
	r.s.mu.Lock()
	if groupID != nil {
		if _, ok := r.s.groups[*groupID]; !ok {
			r.s.mu.Unlock()
			return auth.ErrNotFound
		}
	}
	r.s.mu.Unlock()
	return r.update(id, func(a *auth.Account) {
		if groupID == nil {
			a.GroupID = nil
			return
		}
		g := *groupID
		a.GroupID = &g
	})
}

func (r accountRepo) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	return r.update(id, func(a *auth.Account) {
		a.PasswordHash = passwordHash
		a.PasswordResetHash = ""
		a.PasswordResetIssuedAt = nil
	})
}

func (r accountRepo) SetToken(_ context.Context, id ulid.ULID, kind auth.TokenKind, digest string, issuedAt time.Time) error {
	return r.update(id, func(a *auth.Account) {
		switch kind {
		case auth.KindEmailVerification:
			a.EmailVerificationHash = digest
			a.EmailVerificationIssuedAt = &issuedAt
		case auth.KindPasswordReset:
			a.PasswordResetHash = digest
			a.PasswordResetIssuedAt = &issuedAt
		}
	})
}

func (r accountRepo) ClearToken(_ context.Context, id ulid.ULID, kind auth.TokenKind, digest string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	if current, _ := a.TokenDigest(kind); current == "" || current != digest {
		return auth.ErrNotFound
	}
	switch kind {
	case auth.KindEmailVerification:
		a.EmailVerificationHash = ""
		a.EmailVerificationIssuedAt = nil
	case auth.KindPasswordReset:
		a.PasswordResetHash = ""
		a.PasswordResetIssuedAt = nil
	}
	return nil
}

type originRepo struct{ s *Store }

func (r originRepo) Get(_ context.Context, origin string) (*auth.OriginAttempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.origins[origin]
	if !ok {
		return nil, auth.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (r originRepo) RecordFailure(_ context.Context, origin string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.origins[origin]
	if !ok {
		r.s.origins[origin] = &auth.OriginAttempt{Origin: origin, Failures: 1, LastFailureAt: at}
		return nil
	}
	o.Failures++
	o.LastFailureAt = at
	return nil
}

func (r originRepo) Reset(_ context.Context, origin string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.origins[origin]; ok {
		o.Failures = 0
	}
	return nil
}

type rememberRepo struct{ s *Store }

func (r rememberRepo) Create(_ context.Context, token *auth.RememberToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *token
	r.s.remember[token.ID] = &c
	return nil
}

func (r rememberRepo) ListByAccount(_ context.Context, accountID ulid.ULID) ([]*auth.RememberToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*auth.RememberToken
	for _, t := range r.s.remember {
		if t.AccountID == accountID {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return out, nil
}

func (r rememberRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.remember[id]; !ok {
		return auth.ErrNotFound
	}
	delete(r.s.remember, id)
	return nil
}

func (r rememberRepo) DeleteByAccount(_ context.Context, accountID ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.remember {
		if t.AccountID == accountID {
			delete(r.s.remember, id)
		}
	}
	return nil
}

func (r rememberRepo) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.remember {
		if t.CreatedAt.Before(cutoff) {
			delete(r.s.remember, id)
			n++
		}
	}
	return n, nil
}

type groupRepo struct{ s *Store }

func (r groupRepo) Create(_ context.Context, group *auth.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.Name == group.Name {
			return auth.ErrConflict
		}
	}
	c := *group
	r.s.groups[group.ID] = &c
	return nil
}

func (r groupRepo) GetByID(_ context.Context, id ulid.ULID) (*auth.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (r groupRepo) GetByName(_ context.Context, name string) (*auth.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.Name == name {
			c := *g
			return &c, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r groupRepo) List(_ context.Context) ([]*auth.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*auth.Group, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		c := *g
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type privilegeRepo struct{ s *Store }

func (r privilegeRepo) Create(_ context.Context, privilege *auth.Privilege) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.privileges {
		if p.Name == privilege.Name {
			return auth.ErrConflict
		}
	}
	c := *privilege
	r.s.privileges[privilege.ID] = &c
	return nil
}

func (r privilegeRepo) GetByID(_ context.Context, id ulid.ULID) (*auth.Privilege, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.privileges[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r privilegeRepo) GetByName(_ context.Context, name string) (*auth.Privilege, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.privileges {
		if p.Name == name {
			c := *p
			return &c, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r privilegeRepo) List(_ context.Context) ([]*auth.Privilege, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*auth.Privilege, 0, len(r.s.privileges))
	for _, p := range r.s.privileges {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r privilegeRepo) GrantToGroup(_ context.Context, groupID, privilegeID ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.groups[groupID]; !ok {
		return auth.ErrNotFound
	}
	if _, ok := r.s.privileges[privilegeID]; !ok {
		return auth.ErrNotFound
	}
	key := [2]ulid.ULID{groupID, privilegeID}
	if _, ok := r.s.groupGrants[key]; ok {
		return auth.ErrConflict
	}
	r.s.groupGrants[key] = struct{}{}
	r.s.groupGrantSeq = append(r.s.groupGrantSeq, key)
	return nil
}

func (r privilegeRepo) RevokeFromGroup(_ context.Context, groupID, privilegeID ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := [2]ulid.ULID{groupID, privilegeID}
	if _, ok := r.s.groupGrants[key]; !ok {
		return auth.ErrNotFound
	}
	delete(r.s.groupGrants, key)
	r.s.groupGrantSeq = removeKey(r.s.groupGrantSeq, key)
	return nil
}

func (r privilegeRepo) GrantToAccount(_ context.Context, accountID, privilegeID ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[accountID]; !ok {
		return auth.ErrNotFound
	}
	if _, ok := r.s.privileges[privilegeID]; !ok {
		return auth.ErrNotFound
	}
	key := [2]ulid.ULID{accountID, privilegeID}
	if _, ok := r.s.accountGrants[key]; ok {
		return auth.ErrConflict
	}
	r.s.accountGrants[key] = struct{}{}
	r.s.accountGrantSeq = append(r.s.accountGrantSeq, key)
	return nil
}

func (r privilegeRepo) RevokeFromAccount(_ context.Context, accountID, privilegeID ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := [2]ulid.ULID{accountID, privilegeID}
	if _, ok := r.s.accountGrants[key]; !ok {
		return auth.ErrNotFound
	}
	delete(r.s.accountGrants, key)
	r.s.accountGrantSeq = removeKey(r.s.accountGrantSeq, key)
	return nil
}

func (r privilegeRepo) ListGroupGrants(_ context.Context) ([]auth.GroupGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]auth.GroupGrant, 0, len(r.s.groupGrantSeq))
	for _, key := range r.s.groupGrantSeq {
		g := r.s.groups[key[0]]
		p := r.s.privileges[key[1]]
		out = append(out, auth.GroupGrant{
			GroupID:       g.ID,
			GroupName:     g.Name,
			PrivilegeID:   p.ID,
			PrivilegeName: p.Name,
		})
	}
	return out, nil
}

func (r privilegeRepo) ListByGroup(_ context.Context, groupID ulid.ULID) ([]*auth.Privilege, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*auth.Privilege
	for _, key := range r.s.groupGrantSeq {
		if key[0] == groupID {
			c := *r.s.privileges[key[1]]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r privilegeRepo) ListByAccount(_ context.Context, accountID ulid.ULID) ([]*auth.Privilege, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*auth.Privilege
	for _, key := range r.s.accountGrantSeq {
		if key[0] == accountID {
			c := *r.s.privileges[key[1]]
			out = append(out, &c)
		}
	}
	return out, nil
}

func removeKey(seq [][2]ulid.ULID, key [2]ulid.ULID) [][2]ulid.ULID {
	out := seq[:0]
	for _, k := range seq {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
