// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("warden/auth")

// dummySecret is hashed once per Authenticator. Unknown identities are
// verified against the result so the response time does not reveal whether
// the email exists.
//
//nolint:gosec // G101: not a credential, never matches any stored digest.
const dummySecret = "warden-dummy-secret-for-unknown-identities"

// LoginRequest carries the credentials of one login attempt.
type LoginRequest struct {
	Email    string
	Password string
	// Origin is the network origin of the request. Empty disables origin throttling.
	Origin string
	// Remember asks for a remember-me cookie on success.
	Remember bool
}

// Authenticator runs the login flow and resolves per-request sessions.
type Authenticator struct {
	accounts    AccountRepository
	groups      GroupRepository
	limiter     *Limiter
	tokens      *TokenManager
	hasher      PasswordHasher
	settings    Settings
	logger      *slog.Logger
	dummyDigest string
}

// AuthenticatorConfig holds the collaborators of an Authenticator.
type AuthenticatorConfig struct {
	Accounts AccountRepository
	Groups   GroupRepository
	Limiter  *Limiter
	Tokens   *TokenManager
	Hasher   PasswordHasher
	Settings Settings
	Logger   *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	switch {
	case cfg.Accounts == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("account repository is required")
	case cfg.Groups == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("group repository is required")
	case cfg.Limiter == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("limiter is required")
	case cfg.Tokens == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token manager is required")
	case cfg.Hasher == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("hasher is required")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := cfg.Hasher.Hash(dummySecret)
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").
			With("operation", "hash dummy secret").
			Wrap(err)
	}
	return &Authenticator{
		accounts:    cfg.Accounts,
		groups:      cfg.Groups,
		limiter:     cfg.Limiter,
		tokens:      cfg.Tokens,
		hasher:      cfg.Hasher,
		settings:    cfg.Settings,
		logger:      logger,
		dummyDigest: dummy,
	}, nil
}

// Login verifies credentials and, on success, writes the session and
// optionally a remember-me cookie. Checks run in this order: identity
// lockout, origin lockout, password.
func (a *Authenticator) Login(ctx context.Context, req LoginRequest, sessions SessionCarrier, cookies CookieCarrier) (session *Session, err error) {
	ctx, span := tracer.Start(ctx, "auth.login",
		trace.WithAttributes(attribute.Bool("auth.remember", req.Remember)),
	)
	outcome := OutcomeError
	defer func() {
		span.SetAttributes(attribute.String("auth.outcome", outcome))
		if err != nil && outcome == OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		RecordLoginAttempt(outcome)
	}()

	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_ARGUMENT").Wrapf(ErrInvalidArgument, "session carrier is required")
	}
	if req.Remember && cookies == nil {
		return nil, oops.Code("AUTH_INVALID_ARGUMENT").Wrapf(ErrInvalidArgument, "cookie carrier is required to remember a login")
	}

	email := NormalizeEmail(req.Email)
	account, err := a.accounts.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		//nolint:errcheck // result is discarded; the call only equalizes timing
		_, _ = a.hasher.Verify(req.Password, a.dummyDigest)
		outcome = OutcomeInvalidCredentials
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrapf(ErrInvalidCredentials, "invalid email or password")
	}
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	span.SetAttributes(attribute.String("auth.account_id", account.ID.String()))

	verdict, err := a.limiter.Check(ctx, account, req.Origin)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("account_id", account.ID.String()).
			With("operation", "check lockout").
			Wrap(err)
	}
	switch verdict {
	case VerdictIdentityBanned:
		outcome = OutcomeIdentityBanned
		return nil, oops.Code("AUTH_IDENTITY_BANNED").
			With("account_id", account.ID.String()).
			With("ban_until", account.BanUntil).
			Wrapf(ErrBanned, "too many failed logins for this account")
	case VerdictOriginBanned:
		outcome = OutcomeOriginBanned
		return nil, oops.Code("AUTH_ORIGIN_BANNED").
			With("origin", req.Origin).
			Wrapf(ErrBanned, "too many failed logins from this origin")
	}

	ok, err := a.hasher.Verify(req.Password, account.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("account_id", account.ID.String()).
			With("operation", "verify password").
			Wrap(err)
	}
	if !ok {
		if err := a.limiter.RecordFailure(ctx, account.ID, req.Origin); err != nil {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("account_id", account.ID.String()).
				With("operation", "record failure").
				Wrap(err)
		}
		outcome = OutcomeInvalidCredentials
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrapf(ErrInvalidCredentials, "invalid email or password")
	}

	if a.settings.RequireActive && !account.Active {
		outcome = OutcomeInactive
		return nil, oops.Code("AUTH_ACCOUNT_INACTIVE").
			With("account_id", account.ID.String()).
			Wrapf(ErrInvalidCredentials, "account is not active")
	}

	if err := a.limiter.RecordSuccess(ctx, account, req.Origin); err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("account_id", account.ID.String()).
			With("operation", "record success").
			Wrap(err)
	}
	a.upgradeDigest(ctx, account, req.Password)

	isAdmin, err := a.resolveAdmin(ctx, account)
	if err != nil {
		return nil, err
	}

	session = &Session{AccountID: account.ID, IsAdmin: isAdmin, ViaPassword: true}
	session.write(sessions)

	if req.Remember {
		value, err := a.tokens.IssueRememberToken(ctx, account.ID)
		if err != nil {
			a.logger.WarnContext(ctx, "best-effort remember token issue failed",
				"account_id", account.ID.String(),
				"operation", "issue remember token",
				"error", err)
		} else {
			cookies.SetCookie(a.settings.RememberCookieName, value, a.settings.RememberLifetime)
		}
	}

	outcome = OutcomeSuccess
	return session, nil
}

// upgradeDigest rehashes the password when the stored digest uses an older
// scheme or cost. Failures are logged; the login has already succeeded.
func (a *Authenticator) upgradeDigest(ctx context.Context, account *Account, password string) {
	if !a.hasher.NeedsUpgrade(account.PasswordHash) {
		return
	}
	digest, err := a.hasher.Hash(password)
	if err == nil {
		err = a.accounts.UpdatePassword(ctx, account.ID, digest)
	}
	if err != nil {
		a.logger.WarnContext(ctx, "best-effort password digest upgrade failed",
			"account_id", account.ID.String(),
			"operation", "upgrade password digest",
			"error", err)
		return
	}
	account.PasswordHash = digest
}

// resolveAdmin reports whether the account's group is an admin group. An
// account without a group, or whose group no longer exists, is not an admin.
func (a *Authenticator) resolveAdmin(ctx context.Context, account *Account) (bool, error) {
	if account.GroupID == nil {
		return false, nil
	}
	group, err := a.groups.GetByID(ctx, *account.GroupID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("AUTH_RESOLVE_ADMIN_FAILED").
			With("account_id", account.ID.String()).
			With("group_id", account.GroupID.String()).
			With("operation", "get group").
			Wrap(err)
	}
	return group.IsAdmin, nil
}

// Logout destroys the session and forgets the remember-me cookie along with
// its stored record.
func (a *Authenticator) Logout(ctx context.Context, sessions SessionCarrier, cookies CookieCarrier) error {
	if sessions != nil {
		sessions.Destroy()
	}
	if cookies == nil {
		return nil
	}
	value, ok := cookies.Cookie(a.settings.RememberCookieName)
	if !ok {
		return nil
	}
	cookies.ClearCookie(a.settings.RememberCookieName)

	accountID, plaintext, err := ParseRememberCookie(value)
	if err != nil {
		return nil
	}
	if err := a.tokens.RevokeRememberToken(ctx, accountID, plaintext); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("account_id", accountID.String()).
			With("operation", "revoke remember token").
			Wrap(err)
	}
	return nil
}

// ResolveSession determines how the request is authenticated. An existing
// session wins. Otherwise a remember-me cookie is verified, rotated and
// turned into a session with ViaPassword false. An invalid cookie is
// cleared and the request resolves as anonymous without an error; only
// collaborator failures are returned.
func (a *Authenticator) ResolveSession(ctx context.Context, sessions SessionCarrier, cookies CookieCarrier) (SessionState, error) {
	anonymous := SessionState{Kind: SessionAnonymous}
	if sessions == nil {
		return anonymous, oops.Code("AUTH_INVALID_ARGUMENT").Wrapf(ErrInvalidArgument, "session carrier is required")
	}

	if s := readSession(sessions); s != nil {
		if s.ViaPassword {
			return SessionState{Kind: SessionPassword, Session: s}, nil
		}
		return SessionState{Kind: SessionRemembered, Session: s}, nil
	}

	if cookies == nil {
		return anonymous, nil
	}
	value, ok := cookies.Cookie(a.settings.RememberCookieName)
	if !ok {
		return anonymous, nil
	}

	accountID, plaintext, err := ParseRememberCookie(value)
	if err != nil {
		recordRememberResolution("malformed")
		cookies.ClearCookie(a.settings.RememberCookieName)
		return anonymous, nil
	}

	next, err := a.tokens.RotateRememberToken(ctx, accountID, plaintext)
	if err != nil {
		if IsCollaboratorFailure(err) {
			recordRememberResolution("error")
			return anonymous, oops.Code("AUTH_RESOLVE_FAILED").
				With("account_id", accountID.String()).
				With("operation", "rotate remember token").
				Wrap(err)
		}
		recordRememberResolution(string(KindOf(err)))
		cookies.ClearCookie(a.settings.RememberCookieName)
		return anonymous, nil
	}

	account, err := a.accounts.GetByID(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		recordRememberResolution("unknown_account")
		cookies.ClearCookie(a.settings.RememberCookieName)
		a.revokeAll(ctx, accountID)
		return anonymous, nil
	}
	if err != nil {
		recordRememberResolution("error")
		return anonymous, oops.Code("AUTH_RESOLVE_FAILED").
			With("account_id", accountID.String()).
			With("operation", "get account").
			Wrap(err)
	}
	if a.settings.RequireActive && !account.Active {
		recordRememberResolution("inactive")
		cookies.ClearCookie(a.settings.RememberCookieName)
		a.revokeAll(ctx, accountID)
		return anonymous, nil
	}

	isAdmin, err := a.resolveAdmin(ctx, account)
	if err != nil {
		return anonymous, err
	}
	s := &Session{AccountID: account.ID, IsAdmin: isAdmin, ViaPassword: false}
	s.write(sessions)
	cookies.SetCookie(a.settings.RememberCookieName, next, a.settings.RememberLifetime)
	recordRememberResolution("remembered")
	return SessionState{Kind: SessionRemembered, Session: s}, nil
}

func (a *Authenticator) revokeAll(ctx context.Context, accountID ulid.ULID) {
	if err := a.tokens.RevokeAllRememberTokens(ctx, accountID); err != nil {
		a.logger.WarnContext(ctx, "best-effort remember token revocation failed",
			"account_id", accountID.String(),
			"operation", "revoke remember tokens",
			"error", err)
	}
}

// IsLoggedIn reports whether the request resolves to a password or
// remembered session.
func (a *Authenticator) IsLoggedIn(ctx context.Context, sessions SessionCarrier, cookies CookieCarrier) (bool, error) {
	state, err := a.ResolveSession(ctx, sessions, cookies)
	if err != nil {
		return false, err
	}
	return state.Kind != SessionAnonymous, nil
}

// CurrentAccountID returns the account id held by the session.
func CurrentAccountID(sessions SessionCarrier) (ulid.ULID, bool) {
	s := readSession(sessions)
	if s == nil {
		return ulid.ULID{}, false
	}
	return s.AccountID, true
}

// IsAdmin reports whether the session belongs to an admin group member.
func IsAdmin(sessions SessionCarrier) bool {
	s := readSession(sessions)
	return s != nil && s.IsAdmin
}

// ViaPassword reports whether the session was established with a password
// in this session rather than restored from a remember-me cookie.
func ViaPassword(sessions SessionCarrier) bool {
	s := readSession(sessions)
	return s != nil && s.ViaPassword
}
