// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/samber/oops"
)

// TokenBytes is the entropy drawn per session token. 32 bytes gives the
// 256-bit floor required for unguessability.
const TokenBytes = 32

// TokenIssuer produces opaque, unguessable session tokens.
type TokenIssuer interface {
	// Issue returns a fresh opaque token. Fails only when the entropy
	// source fails, which is fatal and must not be retried silently.
	Issue() (string, error)
}

// CSPRNGIssuer implements TokenIssuer over crypto/rand.
type CSPRNGIssuer struct{}

// NewCSPRNGIssuer creates a new CSPRNGIssuer.
func NewCSPRNGIssuer() *CSPRNGIssuer {
	return &CSPRNGIssuer{}
}

// Issue returns a base64url-encoded token carrying TokenBytes of entropy.
func (i *CSPRNGIssuer) Issue() (string, error) {
	raw := make([]byte, TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", oops.Code("AUTH_ENTROPY_FAILURE").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(fmt.Errorf("%w: %w", ErrEntropySource, err))
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashToken computes the SHA-256 hash of a session token. Only the hash is
// stored; the plaintext token exists solely in the caller's hands.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenMatches checks a plaintext token against a stored hash in constant
// time.
func TokenMatches(token, hash string) bool {
	computed := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// Compile-time interface check.
var _ TokenIssuer = (*CSPRNGIssuer)(nil)
