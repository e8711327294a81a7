// Package auth hashes credentials, issues and verifies bearer tokens, and
// resolves the identity a request acts as.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for both unknown emails and wrong
// passwords so callers cannot tell them apart.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Hasher wraps bcrypt with a configured cost.
type Hasher struct {
	cost int
	// dummy is compared against when no account exists, so a failed login
	// costs the same whether or not the email is registered.
	dummy []byte
}

func NewHasher(cost int) *Hasher {
	dummy, err := bcrypt.GenerateFromPassword([]byte("newsdesk-dummy-password"), cost)
	if err != nil {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("newsdesk-dummy-password"), bcrypt.DefaultCost)
	}
	return &Hasher{cost: cost, dummy: dummy}
}

// Hash returns the salted bcrypt digest of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. The comparison is
// bcrypt's own.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// VerifyMissing burns one comparison for a login whose account was not
// found. It always reports false.
func (h *Hasher) VerifyMissing(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
	return false
}
