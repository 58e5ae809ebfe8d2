// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/wardenauth/warden/internal/auth"
)

// RememberTokenRepository implements auth.RememberTokenRepository using PostgreSQL.
type RememberTokenRepository struct {
	pool poolIface
}

// NewRememberTokenRepository creates a new RememberTokenRepository.
func NewRememberTokenRepository(pool poolIface) *RememberTokenRepository {
	return &RememberTokenRepository{pool: pool}
}

// Create stores a token record.
func (r *RememberTokenRepository) Create(ctx context.Context, token *auth.RememberToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO remember_tokens (id, account_id, token_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, token.ID.String(), token.AccountID.String(), token.TokenHash, token.CreatedAt)
	if isForeignKeyViolation(err) {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("account_id", token.AccountID.String()).
			Wrap(auth.ErrNotFound)
	}
	if isUniqueViolation(err) {
		return oops.Code("REMEMBER_TOKEN_EXISTS").
			With("id", token.ID.String()).
			Wrap(auth.ErrConflict)
	}
	if err != nil {
		return oops.Code("REMEMBER_TOKEN_CREATE_FAILED").
			With("operation", "insert remember token").
			With("account_id", token.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// ListByAccount returns an account's token records, newest first.
func (r *RememberTokenRepository) ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*auth.RememberToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, token_hash, created_at
		FROM remember_tokens
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID.String())
	if err != nil {
		return nil, oops.Code("REMEMBER_TOKEN_LIST_FAILED").
			With("operation", "list remember tokens").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var tokens []*auth.RememberToken
	for rows.Next() {
		token, scanErr := scanRememberToken(rows)
		if scanErr != nil {
			return nil, oops.Code("REMEMBER_TOKEN_LIST_FAILED").
				With("operation", "scan remember token").
				With("account_id", accountID.String()).
				Wrap(scanErr)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("REMEMBER_TOKEN_LIST_FAILED").
			With("operation", "iterate remember tokens").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return tokens, nil
}

// Delete removes one record. Zero affected rows means another caller
// consumed it first.
func (r *RememberTokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM remember_tokens WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("REMEMBER_TOKEN_DELETE_FAILED").
			With("operation", "delete remember token").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("REMEMBER_TOKEN_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteByAccount removes every record of an account.
func (r *RememberTokenRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM remember_tokens WHERE account_id = $1`, accountID.String())
	if err != nil {
		return oops.Code("REMEMBER_TOKEN_DELETE_FAILED").
			With("operation", "delete remember tokens by account").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return nil
}

// DeleteCreatedBefore removes records created before cutoff.
func (r *RememberTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM remember_tokens WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, oops.Code("REMEMBER_TOKEN_PURGE_FAILED").
			With("operation", "delete expired remember tokens").
			With("cutoff", cutoff).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanRememberToken(rows pgx.Rows) (*auth.RememberToken, error) {
	var (
		idStr, accountIDStr string
		token               auth.RememberToken
	)
	if err := rows.Scan(&idStr, &accountIDStr, &token.TokenHash, &token.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if token.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("id", idStr).Wrap(err)
	}
	if token.AccountID, err = ulid.Parse(accountIDStr); err != nil {
		return nil, oops.With("account_id", accountIDStr).Wrap(err)
	}
	return &token, nil
}
