// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Session keys written by the Authenticator.
const (
	SessionKeyLoggedIn    = "logged_in"
	SessionKeyIsAdmin     = "is_admin"
	SessionKeyViaPassword = "via_password"
	SessionKeyAccountID   = "account_id"
)

// SessionCarrier is the per-request session storage supplied by the host.
type SessionCarrier interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Destroy()
}

// CookieCarrier is the per-request cookie transport supplied by the host.
type CookieCarrier interface {
	Cookie(name string) (string, bool)
	SetCookie(name, value string, maxAge time.Duration)
	ClearCookie(name string)
}

// SessionKind describes how the current request is authenticated.
type SessionKind int

// Session kinds.
const (
	SessionAnonymous SessionKind = iota
	SessionPassword
	SessionRemembered
)

func (k SessionKind) String() string {
	switch k {
	case SessionPassword:
		return "password"
	case SessionRemembered:
		return "remembered"
	default:
		return "anonymous"
	}
}

// Session is the authenticated state written to a SessionCarrier.
type Session struct {
	AccountID   ulid.ULID
	IsAdmin     bool
	ViaPassword bool
}

// SessionState is the result of resolving a request.
type SessionState struct {
	Kind    SessionKind
	Session *Session
}

// write stores s in the carrier under the well-known keys.
func (s *Session) write(carrier SessionCarrier) {
	carrier.Set(SessionKeyLoggedIn, true)
	carrier.Set(SessionKeyIsAdmin, s.IsAdmin)
	carrier.Set(SessionKeyViaPassword, s.ViaPassword)
	carrier.Set(SessionKeyAccountID, s.AccountID.String())
}

// readSession returns the session held by carrier, or nil if the carrier
// is not logged in or holds an unparsable account id.
func readSession(carrier SessionCarrier) *Session {
	if !boolValue(carrier, SessionKeyLoggedIn) {
		return nil
	}
	raw, ok := carrier.Get(SessionKeyAccountID)
	if !ok {
		return nil
	}
	var id ulid.ULID
	switch v := raw.(type) {
	case string:
		parsed, err := ulid.Parse(v)
		if err != nil {
			return nil
		}
		id = parsed
	case ulid.ULID:
		id = v
	default:
		return nil
	}
	return &Session{
		AccountID:   id,
		IsAdmin:     boolValue(carrier, SessionKeyIsAdmin),
		ViaPassword: boolValue(carrier, SessionKeyViaPassword),
	}
}

func boolValue(carrier SessionCarrier, key string) bool {
	v, ok := carrier.Get(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
