// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenAlphabet holds the characters tokens are drawn from. Look-alike
// characters (0/O, 1/l/I) and vowels are left out.
const TokenAlphabet = "23456789BbCcDdFfGgHhJjKkMmNnPpQqRrSsTtVvWwXxYyZz"

// TokenKind identifies one of the token protocols.
type TokenKind string

// Token kinds.
const (
	KindRemember          TokenKind = "remember"
	KindEmailVerification TokenKind = "email_verification"
	KindPasswordReset     TokenKind = "password_reset"
)

// GenerateToken draws length characters from TokenAlphabet using src. A nil
// src means crypto/rand.
func GenerateToken(src io.Reader, length int) (string, error) {
	if length <= 0 {
		return "", oops.Code("TOKEN_INVALID_LENGTH").
			With("length", length).
			Wrapf(ErrInvalidArgument, "token length must be positive")
	}
	if src == nil {
		src = rand.Reader
	}

	limit := big.NewInt(int64(len(TokenAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(src, limit)
		if err != nil {
			return "", oops.Code("TOKEN_GENERATE_FAILED").
				With("operation", "crypto/rand.Int").
				With("requested_length", length).
				Wrap(err)
		}
		b.WriteByte(TokenAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// RememberCookieValue encodes the client-side remember-me value.
func RememberCookieValue(accountID ulid.ULID, token string) string {
	return accountID.String() + ":" + token
}

// ParseRememberCookie splits a remember-me cookie value into account id and
// plaintext token.
func ParseRememberCookie(value string) (ulid.ULID, string, error) {
	idPart, token, found := strings.Cut(value, ":")
	if !found || idPart == "" || token == "" {
		return ulid.ULID{}, "", oops.Code("TOKEN_COOKIE_MALFORMED").
			Wrapf(ErrInvalidArgument, "remember cookie must be accountID:token")
	}
	id, err := ulid.Parse(idPart)
	if err != nil {
		return ulid.ULID{}, "", oops.Code("TOKEN_COOKIE_MALFORMED").
			With("operation", "parse account id").
			Wrapf(ErrInvalidArgument, "invalid account id in remember cookie: %v", err)
	}
	return id, token, nil
}
