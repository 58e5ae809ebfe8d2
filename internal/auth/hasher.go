// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// HashAlgorithm names a digest scheme.
type HashAlgorithm string

// Supported digest schemes.
const (
	HashBcrypt   HashAlgorithm = "bcrypt"
	HashArgon2id HashAlgorithm = "argon2id"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// ErrEmptyPassword is returned when attempting to hash an empty secret.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Wrapf(ErrInvalidArgument, "password cannot be empty")

// PasswordHasher hashes and verifies passwords and tokens. Digests are
// self-describing, so Verify needs nothing but the digest.
type PasswordHasher interface {
	// Hash produces a salted digest of the secret.
	Hash(secret string) (string, error)

	// Verify checks if the secret matches the digest.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid digest.
	Verify(secret, digest string) (bool, error)

	// NeedsUpgrade returns true if the digest was produced by another scheme or cost.
	NeedsUpgrade(digest string) bool
}

// NewPasswordHasher returns the hasher selected by settings. It hashes with
// the configured scheme and verifies digests of every supported scheme.
func NewPasswordHasher(settings Settings) (PasswordHasher, error) {
	bc := NewBcryptHasher(settings.BcryptCost)
	a2 := NewArgon2idHasher()
	switch settings.HashAlgorithm {
	case HashBcrypt, "":
		return &schemeHasher{primary: bc, scheme: HashBcrypt, bcrypt: bc, argon2: a2}, nil
	case HashArgon2id:
		return &schemeHasher{primary: a2, scheme: HashArgon2id, bcrypt: bc, argon2: a2}, nil
	default:
		return nil, oops.Code("AUTH_UNSUPPORTED_HASH").
			With("hash_algorithm", settings.HashAlgorithm).
			Wrapf(ErrInvalidArgument, "unsupported hash algorithm")
	}
}

// schemeHasher dispatches Verify on the digest prefix.
type schemeHasher struct {
	primary PasswordHasher
	scheme  HashAlgorithm
	bcrypt  *BcryptHasher
	argon2  *Argon2idHasher
}

func (h *schemeHasher) Hash(secret string) (string, error) {
	return h.primary.Hash(secret)
}

func (h *schemeHasher) Verify(secret, digest string) (bool, error) {
	if strings.HasPrefix(digest, "$argon2id$") {
		return h.argon2.Verify(secret, digest)
	}
	return h.bcrypt.Verify(secret, digest)
}

func (h *schemeHasher) NeedsUpgrade(digest string) bool {
	if schemeOf(digest) != h.scheme {
		return true
	}
	return h.primary.NeedsUpgrade(digest)
}

func schemeOf(digest string) HashAlgorithm {
	if strings.HasPrefix(digest, "$argon2id$") {
		return HashArgon2id
	}
	return HashBcrypt
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. Costs outside bcrypt's range fall
// back to the default cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash produces a bcrypt digest of the secret.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyPassword
	}
	if len(secret) > maximumBcryptPasswordBytes {
		return "", oops.Code("AUTH_PASSWORD_TOO_LONG").
			With("max_bytes", maximumBcryptPasswordBytes).
			Wrapf(ErrInvalidArgument, "password exceeds %d bytes", maximumBcryptPasswordBytes)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("scheme", HashBcrypt).Wrap(err)
	}
	return string(digest), nil
}

// Verify checks if the secret matches the bcrypt digest.
func (h *BcryptHasher) Verify(secret, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").With("scheme", HashBcrypt).Wrap(err)
	}
}

// NeedsUpgrade returns true if the digest is not bcrypt or was produced with another cost.
func (h *BcryptHasher) NeedsUpgrade(digest string) bool {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return true
	}
	return cost != h.cost
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id digest of the secret.
func (h *Argon2idHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(secret), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks if the secret matches the argon2id digest.
func (h *Argon2idHasher) Verify(secret, digest string) (bool, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	if threads == 0 || threads > 255 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}

	keyLen := len(expected)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(secret), salt, time, memory, uint8(threads), uint32(keyLen))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// NeedsUpgrade returns true if the digest is not argon2id.
func (h *Argon2idHasher) NeedsUpgrade(digest string) bool {
	return !strings.HasPrefix(digest, "$argon2id$")
}
