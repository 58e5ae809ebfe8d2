// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package postgres provides PostgreSQL implementations of the auth repositories.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
)

// poolIface is the subset of pgxpool.Pool the repositories use. It lets
// tests substitute pgxmock.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every repository over one pool.
type Repositories struct {
	Accounts       *AccountRepository
	Origins        *OriginAttemptRepository
	RememberTokens *RememberTokenRepository
	Groups         *GroupRepository
	Privileges     *PrivilegeRepository
}

// NewRepositories creates every repository over pool.
func NewRepositories(pool poolIface) *Repositories {
	return &Repositories{
		Accounts:       NewAccountRepository(pool),
		Origins:        NewOriginAttemptRepository(pool),
		RememberTokens: NewRememberTokenRepository(pool),
		Groups:         NewGroupRepository(pool),
		Privileges:     NewPrivilegeRepository(pool),
	}
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgerrcode.ForeignKeyViolation
}

func nullableULID(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseNullableULID(s *string) (*ulid.ULID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := ulid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
