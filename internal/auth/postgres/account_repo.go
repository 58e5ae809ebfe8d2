// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/wardenauth/warden/internal/auth"
)

const accountColumns = `id, email, password_hash, group_id, active, failed_logins, ban_until,
		       email_verification_hash, email_verification_issued_at,
		       password_reset_hash, password_reset_issued_at, created_at, updated_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, email, password_hash, group_id, active, failed_logins, ban_until,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		account.ID.String(),
		account.Email,
		account.PasswordHash,
		nullableULID(account.GroupID),
		account.Active,
		account.FailedLogins,
		account.BanUntil,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("ACCOUNT_EMAIL_TAKEN").
			With("email", account.Email).
			Wrap(auth.ErrConflict)
	}
	if isForeignKeyViolation(err) {
		return oops.Code("GROUP_NOT_FOUND").
			With("group_id", nullableULID(account.GroupID)).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("email", account.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// IncrementFailedLogins adds one to the failed-login counter in a single statement.
func (r *AccountRepository) IncrementFailedLogins(ctx context.Context, id ulid.ULID) error {
	return r.exec(ctx, "increment failed logins", id, `
		UPDATE accounts SET failed_logins = failed_logins + 1, updated_at = $2
		WHERE id = $1
	`, id.String(), time.Now())
}

// ResetFailedLogins sets the failed-login counter to zero.
func (r *AccountRepository) ResetFailedLogins(ctx context.Context, id ulid.ULID) error {
	return r.exec(ctx, "reset failed logins", id, `
		UPDATE accounts SET failed_logins = 0, updated_at = $2
		WHERE id = $1
	`, id.String(), time.Now())
}

// Ban stores the ban-until instant and resets the counter in one statement.
func (r *AccountRepository) Ban(ctx context.Context, id ulid.ULID, until time.Time) error {
	return r.exec(ctx, "ban account", id, `
		UPDATE accounts SET ban_until = $2, failed_logins = 0, updated_at = $3
		WHERE id = $1
	`, id.String(), until, time.Now())
}

// SetActive flips the active flag.
func (r *AccountRepository) SetActive(ctx context.Context, id ulid.ULID, active bool) error {
	return r.exec(ctx, "set active", id, `
		UPDATE accounts SET active = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), active, time.Now())
}

// SetGroup assigns the account to a group, or clears the assignment.
func (r *AccountRepository) SetGroup(ctx context.Context, id ulid.ULID, groupID *ulid.ULID) error {
	err := r.exec(ctx, "set group", id, `
		UPDATE accounts SET group_id = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), nullableULID(groupID), time.Now())
	if isForeignKeyViolation(err) {
		return oops.Code("GROUP_NOT_FOUND").
			With("group_id", nullableULID(groupID)).
			Wrap(auth.ErrNotFound)
	}
	return err
}

// UpdatePassword stores a new password digest and clears any reset digest.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	return r.exec(ctx, "update password", id, `
		UPDATE accounts SET
			password_hash = $2,
			password_reset_hash = NULL,
			password_reset_issued_at = NULL,
			updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, time.Now())
}

// SetToken stores the digest of a single-use token.
func (r *AccountRepository) SetToken(ctx context.Context, id ulid.ULID, kind auth.TokenKind, digest string, issuedAt time.Time) error {
	hashCol, issuedCol, err := tokenColumns(kind)
	if err != nil {
		return err
	}
	//nolint:gosec // G202: column names come from a fixed switch, never from input.
	sql := `UPDATE accounts SET ` + hashCol + ` = $2, ` + issuedCol + ` = $3, updated_at = $4 WHERE id = $1`
	return r.exec(ctx, "set "+string(kind)+" token", id, sql, id.String(), digest, issuedAt, time.Now())
}

// ClearToken removes the digest of a single-use token if it still equals
// digest. Zero affected rows means another request consumed it first.
func (r *AccountRepository) ClearToken(ctx context.Context, id ulid.ULID, kind auth.TokenKind, digest string) error {
	hashCol, issuedCol, err := tokenColumns(kind)
	if err != nil {
		return err
	}
	//nolint:gosec // G202: column names come from a fixed switch, never from input.
	sql := `UPDATE accounts SET ` + hashCol + ` = NULL, ` + issuedCol + ` = NULL, updated_at = $3
		WHERE id = $1 AND ` + hashCol + ` = $2`
	return r.exec(ctx, "clear "+string(kind)+" token", id, sql, id.String(), digest, time.Now())
}

// exec runs a single-row update and maps zero affected rows to ErrNotFound.
func (r *AccountRepository) exec(ctx context.Context, operation string, id ulid.ULID, sql string, args ...any) error {
	result, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return err
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", operation).
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func tokenColumns(kind auth.TokenKind) (string, string, error) {
	switch kind {
	case auth.KindEmailVerification:
		return "email_verification_hash", "email_verification_issued_at", nil
	case auth.KindPasswordReset:
		return "password_reset_hash", "password_reset_issued_at", nil
	default:
		return "", "", oops.Code("ACCOUNT_TOKEN_KIND_INVALID").
			With("kind", kind).
			Wrapf(auth.ErrInvalidArgument, "token kind is not stored on accounts")
	}
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr            string
		groupIDStr       *string
		verificationHash *string
		resetHash        *string
		account          auth.Account
	)
	err := row.Scan(
		&idStr,
		&account.Email,
		&account.PasswordHash,
		&groupIDStr,
		&account.Active,
		&account.FailedLogins,
		&account.BanUntil,
		&verificationHash,
		&account.EmailVerificationIssuedAt,
		&resetHash,
		&account.PasswordResetIssuedAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").With("id", idStr).Wrap(err)
	}
	account.ID = id

	groupID, err := parseNullableULID(groupIDStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_GROUP_ID").With("group_id", *groupIDStr).Wrap(err)
	}
	account.GroupID = groupID
	account.EmailVerificationHash = derefString(verificationHash)
	account.PasswordResetHash = derefString(resetHash)
	return &account, nil
}
