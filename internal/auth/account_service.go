// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Notifier delivers plaintext tokens to account holders, typically by email.
type Notifier interface {
	Notify(ctx context.Context, account *Account, kind TokenKind, token string) error
}

// NewAccount describes an account to register.
type NewAccount struct {
	Email    string
	Password string
	GroupID  *ulid.ULID
	Active   bool
}

// AccountService handles registration, activation and the email
// verification and password reset flows.
type AccountService struct {
	accounts AccountRepository
	tokens   *TokenManager
	hasher   PasswordHasher
	settings Settings
	clock    Clock
	notifier Notifier
	logger   *slog.Logger
}

// AccountServiceOption configures an AccountService.
type AccountServiceOption func(*AccountService)

// WithNotifier sets the notifier that receives issued tokens.
func WithNotifier(n Notifier) AccountServiceOption {
	return func(s *AccountService) { s.notifier = n }
}

// WithAccountLogger sets the logger for best-effort failures.
func WithAccountLogger(logger *slog.Logger) AccountServiceOption {
	return func(s *AccountService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAccountService creates an AccountService.
func NewAccountService(
	accounts AccountRepository,
	tokens *TokenManager,
	hasher PasswordHasher,
	settings Settings,
	clock Clock,
	opts ...AccountServiceOption,
) (*AccountService, error) {
	if accounts == nil {
		return nil, oops.Code("ACCOUNT_INVALID_CONFIG").Errorf("account repository is required")
	}
	if tokens == nil {
		return nil, oops.Code("ACCOUNT_INVALID_CONFIG").Errorf("token manager is required")
	}
	if hasher == nil {
		return nil, oops.Code("ACCOUNT_INVALID_CONFIG").Errorf("hasher is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	s := &AccountService{
		accounts: accounts,
		tokens:   tokens,
		hasher:   hasher,
		settings: settings,
		clock:    clock,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateAccount registers a new account. When email verification is
// enabled a verification token is issued and returned; otherwise the
// returned token is empty.
func (s *AccountService) CreateAccount(ctx context.Context, req NewAccount) (*Account, string, error) {
	email := NormalizeEmail(req.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if req.Password == "" {
		return nil, "", ErrEmptyPassword
	}

	_, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", oops.Code("ACCOUNT_EMAIL_TAKEN").
			With("email", email).
			Wrapf(ErrConflict, "email is already registered")
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, "", oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "check email availability").
			Wrap(err)
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, "", oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := s.clock.Now()
	account := &Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: digest,
		GroupID:      req.GroupID,
		Active:       req.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, "", oops.Code("ACCOUNT_EMAIL_TAKEN").
				With("email", email).
				Wrap(err)
		}
		return nil, "", oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	if !s.settings.VerifyEmail {
		return account, "", nil
	}
	token, err := s.issue(ctx, account, KindEmailVerification)
	if err != nil {
		return account, "", err
	}
	return account, token, nil
}

// Activate marks an account active.
func (s *AccountService) Activate(ctx context.Context, accountID ulid.ULID) error {
	return s.setActive(ctx, accountID, true)
}

// Deactivate marks an account inactive.
func (s *AccountService) Deactivate(ctx context.Context, accountID ulid.ULID) error {
	return s.setActive(ctx, accountID, false)
}

func (s *AccountService) setActive(ctx context.Context, accountID ulid.ULID, active bool) error {
	if err := s.accounts.SetActive(ctx, accountID, active); err != nil {
		return oops.Code("ACCOUNT_SET_ACTIVE_FAILED").
			With("account_id", accountID.String()).
			With("active", active).
			Wrap(err)
	}
	return nil
}

// RequestEmailVerification issues a fresh verification token, replacing any
// outstanding one.
func (s *AccountService) RequestEmailVerification(ctx context.Context, accountID ulid.ULID) (string, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", oops.Code("ACCOUNT_VERIFY_REQUEST_FAILED").
			With("account_id", accountID.String()).
			With("operation", "get account").
			Wrap(err)
	}
	return s.issue(ctx, account, KindEmailVerification)
}

// ConfirmEmail verifies the token, activates the account and clears the
// verification digest.
func (s *AccountService) ConfirmEmail(ctx context.Context, accountID ulid.ULID, token string) error {
	if err := s.tokens.Consume(ctx, KindEmailVerification, accountID, token); err != nil {
		return err
	}
	return s.setActive(ctx, accountID, true)
}

// RequestPasswordReset issues a reset token for the account registered
// under email.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (ulid.ULID, string, error) {
	account, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return ulid.ULID{}, "", oops.Code("ACCOUNT_RESET_REQUEST_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	token, err := s.issue(ctx, account, KindPasswordReset)
	if err != nil {
		return ulid.ULID{}, "", err
	}
	return account.ID, token, nil
}

// VerifyPasswordReset checks a reset token without consuming it.
func (s *AccountService) VerifyPasswordReset(ctx context.Context, accountID ulid.ULID, token string) error {
	return s.tokens.Verify(ctx, KindPasswordReset, accountID, token)
}

// ResetPassword consumes the reset token, stores the new password and
// revokes every remember-me token of the account. Of two concurrent resets
// with the same token at most one succeeds.
func (s *AccountService) ResetPassword(ctx context.Context, accountID ulid.ULID, token, newPassword string) error {
	if newPassword == "" {
		return ErrEmptyPassword
	}
	if err := s.tokens.Consume(ctx, KindPasswordReset, accountID, token); err != nil {
		return err
	}
	if err := s.ChangePassword(ctx, accountID, newPassword); err != nil {
		return err
	}
	return s.tokens.RevokeAllRememberTokens(ctx, accountID)
}

// ChangePassword stores a new password without a token and clears any
// outstanding reset digest.
func (s *AccountService) ChangePassword(ctx context.Context, accountID ulid.ULID, newPassword string) error {
	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("ACCOUNT_PASSWORD_CHANGE_FAILED").
			With("account_id", accountID.String()).
			With("operation", "hash password").
			Wrap(err)
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, digest); err != nil {
		return oops.Code("ACCOUNT_PASSWORD_CHANGE_FAILED").
			With("account_id", accountID.String()).
			With("operation", "update password").
			Wrap(err)
	}
	return nil
}

func (s *AccountService) issue(ctx context.Context, account *Account, kind TokenKind) (string, error) {
	token, err := s.tokens.Issue(ctx, kind, account.ID)
	if err != nil {
		return "", err
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, account, kind, token); err != nil {
			s.logger.WarnContext(ctx, "best-effort token notification failed",
				"account_id", account.ID.String(),
				"kind", string(kind),
				"operation", "notify",
				"error", err)
		}
	}
	return token, nil
}
