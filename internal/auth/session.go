// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultSessionTTL is the default session lifetime. The source material
// left this unspecified; 24 hours is the documented default.
const DefaultSessionTTL = 24 * time.Hour

// Session binds an opaque token to a username for a bounded lifetime.
// Only the SHA-256 hash of the token is recorded; the plaintext is handed
// to the authenticating caller once and never stored. A session is Active
// until it expires (time-triggered) or is revoked (explicit); both
// transitions are terminal.
type Session struct {
	ID        ulid.ULID
	TokenHash string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewSession creates a validated Session instance.
func NewSession(username, tokenHash string, issuedAt, expiresAt time.Time) (*Session, error) {
	if username == "" {
		return nil, oops.Code("SESSION_INVALID_OWNER").Errorf("session owner cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	if !expiresAt.After(issuedAt) {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry must be after issuance")
	}

	return &Session{
		ID:        ulid.Make(),
		TokenHash: tokenHash,
		Username:  username,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// IsExpiredAt returns true if the session would be expired at the given
// time. A session is expired once now >= ExpiresAt.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// SessionRepository manages session persistence, keyed by token hash.
// Implementations must be safe for concurrent use.
type SessionRepository interface {
	// Create stores a new session. Returns an error wrapping
	// ErrTokenCollision if the token hash already exists.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash. Returns an
	// error wrapping ErrNotFound if absent.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Delete removes a session by token hash. Idempotent.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByUsername removes all sessions owned by a username and
	// returns the count of deleted records.
	DeleteByUsername(ctx context.Context, username string) (int64, error)

	// DeleteExpired removes all sessions expired as of now and returns
	// the count of deleted records.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
