// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// tokenRecord is one stored digest of a subject.
type tokenRecord struct {
	ref      ulid.ULID
	digest   string
	issuedAt time.Time
}

// tokenStore persists the digests of one token kind.
type tokenStore interface {
	insert(ctx context.Context, subject ulid.ULID, digest string, issuedAt time.Time) (ulid.ULID, error)
	candidates(ctx context.Context, subject ulid.ULID) ([]tokenRecord, error)
	// remove returns ErrNotFound if the record was already consumed.
	remove(ctx context.Context, subject ulid.ULID, rec tokenRecord) error
}

// rememberStore keeps one row per issued remember token.
type rememberStore struct {
	repo RememberTokenRepository
}

func (s rememberStore) insert(ctx context.Context, subject ulid.ULID, digest string, issuedAt time.Time) (ulid.ULID, error) {
	token := &RememberToken{
		ID:        ulid.Make(),
		AccountID: subject,
		TokenHash: digest,
		CreatedAt: issuedAt,
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return ulid.ULID{}, err
	}
	return token.ID, nil
}

func (s rememberStore) candidates(ctx context.Context, subject ulid.ULID) ([]tokenRecord, error) {
	tokens, err := s.repo.ListByAccount(ctx, subject)
	if err != nil {
		return nil, err
	}
	records := make([]tokenRecord, 0, len(tokens))
	for _, t := range tokens {
		records = append(records, tokenRecord{ref: t.ID, digest: t.TokenHash, issuedAt: t.CreatedAt})
	}
	return records, nil
}

func (s rememberStore) remove(ctx context.Context, _ ulid.ULID, rec tokenRecord) error {
	return s.repo.Delete(ctx, rec.ref)
}

// accountTokenStore keeps a single digest of one kind on the account row.
// Issuing overwrites the previous digest.
type accountTokenStore struct {
	accounts AccountRepository
	kind     TokenKind
}

func (s accountTokenStore) insert(ctx context.Context, subject ulid.ULID, digest string, issuedAt time.Time) (ulid.ULID, error) {
	if err := s.accounts.SetToken(ctx, subject, s.kind, digest, issuedAt); err != nil {
		return ulid.ULID{}, err
	}
	return subject, nil
}

func (s accountTokenStore) candidates(ctx context.Context, subject ulid.ULID) ([]tokenRecord, error) {
	account, err := s.accounts.GetByID(ctx, subject)
	if err != nil {
		return nil, err
	}
	digest, issuedAt := account.TokenDigest(s.kind)
	if digest == "" || issuedAt == nil {
		return nil, nil
	}
	return []tokenRecord{{ref: subject, digest: digest, issuedAt: *issuedAt}}, nil
}

func (s accountTokenStore) remove(ctx context.Context, subject ulid.ULID, rec tokenRecord) error {
	return s.accounts.ClearToken(ctx, subject, s.kind, rec.digest)
}

// tokenProtocol binds a store to its lifetime.
type tokenProtocol struct {
	kind     TokenKind
	lifetime time.Duration
	store    tokenStore
}

// TokenManager issues, verifies, rotates and revokes the three token kinds.
// Plaintext tokens leave the manager exactly once, at issue time; only
// digests are stored.
type TokenManager struct {
	protocols map[TokenKind]tokenProtocol
	remember  RememberTokenRepository
	hasher    PasswordHasher
	settings  Settings
	clock     Clock
	random    io.Reader
	logger    *slog.Logger
}

// TokenManagerOption configures a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithTokenRandom sets the randomness source. Tests use it for determinism.
func WithTokenRandom(r io.Reader) TokenManagerOption {
	return func(m *TokenManager) { m.random = r }
}

// WithTokenLogger sets the logger for best-effort failures.
func WithTokenLogger(logger *slog.Logger) TokenManagerOption {
	return func(m *TokenManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(
	accounts AccountRepository,
	remember RememberTokenRepository,
	hasher PasswordHasher,
	settings Settings,
	clock Clock,
	opts ...TokenManagerOption,
) (*TokenManager, error) {
	if accounts == nil {
		return nil, oops.Code("TOKEN_INVALID_CONFIG").Errorf("account repository is required")
	}
	if remember == nil {
		return nil, oops.Code("TOKEN_INVALID_CONFIG").Errorf("remember token repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("TOKEN_INVALID_CONFIG").Errorf("hasher is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}

	m := &TokenManager{
		protocols: map[TokenKind]tokenProtocol{
			KindRemember: {
				kind:     KindRemember,
				lifetime: settings.RememberLifetime,
				store:    rememberStore{repo: remember},
			},
			KindEmailVerification: {
				kind:     KindEmailVerification,
				lifetime: settings.VerifyLifetime,
				store:    accountTokenStore{accounts: accounts, kind: KindEmailVerification},
			},
			KindPasswordReset: {
				kind:     KindPasswordReset,
				lifetime: settings.ResetLifetime,
				store:    accountTokenStore{accounts: accounts, kind: KindPasswordReset},
			},
		},
		remember: remember,
		hasher:   hasher,
		settings: settings,
		clock:    clock,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *TokenManager) protocol(kind TokenKind) (tokenProtocol, error) {
	p, ok := m.protocols[kind]
	if !ok {
		return tokenProtocol{}, oops.Code("TOKEN_UNKNOWN_KIND").
			With("kind", kind).
			Wrapf(ErrInvalidArgument, "unknown token kind")
	}
	return p, nil
}

// Issue generates a token of kind for subject, stores its digest and
// returns the plaintext.
func (m *TokenManager) Issue(ctx context.Context, kind TokenKind, subject ulid.ULID) (string, error) {
	p, err := m.protocol(kind)
	if err != nil {
		return "", err
	}
	plaintext, _, err := m.issue(ctx, p, subject)
	return plaintext, err
}

func (m *TokenManager) issue(ctx context.Context, p tokenProtocol, subject ulid.ULID) (string, ulid.ULID, error) {
	plaintext, err := GenerateToken(m.random, m.settings.TokenLength)
	if err != nil {
		return "", ulid.ULID{}, err
	}
	digest, err := m.hasher.Hash(plaintext)
	if err != nil {
		return "", ulid.ULID{}, oops.Code("TOKEN_ISSUE_FAILED").
			With("kind", p.kind).
			With("operation", "hash token").
			Wrap(err)
	}
	ref, err := p.store.insert(ctx, subject, digest, m.clock.Now())
	if err != nil {
		return "", ulid.ULID{}, oops.Code("TOKEN_ISSUE_FAILED").
			With("kind", p.kind).
			With("subject", subject.String()).
			With("operation", "store token digest").
			Wrap(err)
	}
	recordTokenIssued(p.kind)
	return plaintext, ref, nil
}

// Verify checks plaintext against every stored digest of subject. It returns
// ErrTokenMismatch when nothing matches and ErrTokenExpired when the match
// is older than the kind's lifetime.
func (m *TokenManager) Verify(ctx context.Context, kind TokenKind, subject ulid.ULID, plaintext string) error {
	p, err := m.protocol(kind)
	if err != nil {
		return err
	}
	_, err = m.verify(ctx, p, subject, plaintext)
	return err
}

func (m *TokenManager) verify(ctx context.Context, p tokenProtocol, subject ulid.ULID, plaintext string) (tokenRecord, error) {
	if plaintext == "" {
		return tokenRecord{}, oops.Code("TOKEN_MISMATCH").
			With("kind", p.kind).
			Wrapf(ErrTokenMismatch, "token cannot be empty")
	}
	records, err := p.store.candidates(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return tokenRecord{}, oops.Code("TOKEN_SUBJECT_NOT_FOUND").
				With("kind", p.kind).
				With("subject", subject.String()).
				Wrap(err)
		}
		return tokenRecord{}, oops.Code("TOKEN_VERIFY_FAILED").
			With("kind", p.kind).
			With("subject", subject.String()).
			With("operation", "list token digests").
			Wrap(err)
	}

	for _, rec := range records {
		ok, err := m.hasher.Verify(plaintext, rec.digest)
		if err != nil {
			return tokenRecord{}, oops.Code("TOKEN_VERIFY_FAILED").
				With("kind", p.kind).
				With("subject", subject.String()).
				With("operation", "compare token digest").
				Wrap(err)
		}
		if !ok {
			continue
		}
		if m.clock.Now().After(rec.issuedAt.Add(p.lifetime)) {
			return rec, oops.Code("TOKEN_EXPIRED").
				With("kind", p.kind).
				With("issued_at", rec.issuedAt).
				Wrap(ErrTokenExpired)
		}
		return rec, nil
	}
	return tokenRecord{}, oops.Code("TOKEN_MISMATCH").
		With("kind", p.kind).
		Wrap(ErrTokenMismatch)
}

// Consume verifies plaintext and removes the matched digest so the token
// cannot be used again.
func (m *TokenManager) Consume(ctx context.Context, kind TokenKind, subject ulid.ULID, plaintext string) error {
	p, err := m.protocol(kind)
	if err != nil {
		return err
	}
	rec, err := m.verify(ctx, p, subject, plaintext)
	if err != nil {
		return err
	}
	return m.consume(ctx, p, subject, rec)
}

func (m *TokenManager) consume(ctx context.Context, p tokenProtocol, subject ulid.ULID, rec tokenRecord) error {
	err := p.store.remove(ctx, subject, rec)
	if errors.Is(err, ErrNotFound) {
		// Another request consumed the same record first.
		return oops.Code("TOKEN_ALREADY_CONSUMED").
			With("kind", p.kind).
			With("subject", subject.String()).
			Wrap(ErrTokenMismatch)
	}
	if err != nil {
		return oops.Code("TOKEN_CONSUME_FAILED").
			With("kind", p.kind).
			With("subject", subject.String()).
			With("operation", "remove token digest").
			Wrap(err)
	}
	return nil
}

// IssueRememberToken issues a remember-me token and returns the cookie value.
func (m *TokenManager) IssueRememberToken(ctx context.Context, accountID ulid.ULID) (string, error) {
	plaintext, err := m.Issue(ctx, KindRemember, accountID)
	if err != nil {
		return "", err
	}
	return RememberCookieValue(accountID, plaintext), nil
}

// RotateRememberToken verifies the remember token, consumes its record and
// issues a replacement. It returns the new cookie value. Of two concurrent
// rotations of the same token at most one succeeds.
func (m *TokenManager) RotateRememberToken(ctx context.Context, accountID ulid.ULID, plaintext string) (string, error) {
	p := m.protocols[KindRemember]
	rec, err := m.verify(ctx, p, accountID, plaintext)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			m.discard(ctx, p, accountID, rec)
		}
		return "", err
	}
	if err := m.consume(ctx, p, accountID, rec); err != nil {
		return "", err
	}
	next, _, err := m.issue(ctx, p, accountID)
	if err != nil {
		return "", err
	}
	return RememberCookieValue(accountID, next), nil
}

// RevokeRememberToken deletes the record matching plaintext. A token that
// matches nothing is not an error.
func (m *TokenManager) RevokeRememberToken(ctx context.Context, accountID ulid.ULID, plaintext string) error {
	p := m.protocols[KindRemember]
	rec, err := m.verify(ctx, p, accountID, plaintext)
	switch {
	case err == nil, errors.Is(err, ErrTokenExpired):
	case errors.Is(err, ErrTokenMismatch), errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
	if err := p.store.remove(ctx, accountID, rec); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("TOKEN_REVOKE_FAILED").
			With("account_id", accountID.String()).
			With("operation", "delete remember token").
			Wrap(err)
	}
	return nil
}

// RevokeAllRememberTokens deletes every remember token of an account.
func (m *TokenManager) RevokeAllRememberTokens(ctx context.Context, accountID ulid.ULID) error {
	if err := m.remember.DeleteByAccount(ctx, accountID); err != nil {
		return oops.Code("TOKEN_REVOKE_FAILED").
			With("account_id", accountID.String()).
			With("operation", "delete remember tokens").
			Wrap(err)
	}
	return nil
}

// PurgeExpiredRememberTokens deletes remember tokens older than the
// remember lifetime and returns how many were removed.
func (m *TokenManager) PurgeExpiredRememberTokens(ctx context.Context) (int64, error) {
	cutoff := m.clock.Now().Add(-m.settings.RememberLifetime)
	n, err := m.remember.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, oops.Code("TOKEN_PURGE_FAILED").
			With("cutoff", cutoff).
			With("operation", "delete expired remember tokens").
			Wrap(err)
	}
	return n, nil
}

// discard removes a record after a failed verification. Failures are logged.
func (m *TokenManager) discard(ctx context.Context, p tokenProtocol, subject ulid.ULID, rec tokenRecord) {
	if err := p.store.remove(ctx, subject, rec); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.WarnContext(ctx, "best-effort token cleanup failed",
			"kind", string(p.kind),
			"subject", subject.String(),
			"operation", "remove token digest",
			"error", err)
	}
}
