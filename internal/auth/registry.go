// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// maxIssueRetries bounds token re-issuance on collision. A collision is
// statistically negligible with 256-bit tokens; hitting this bound means
// the entropy source cannot be trusted.
const maxIssueRetries = 3

// SessionRegistry issues, validates, and revokes sessions against a
// SessionRepository. Expired entries are purged eagerly on access and can
// additionally be reclaimed by Sweep; an expired token never validates
// either way.
type SessionRegistry struct {
	sessions SessionRepository
	issuer   TokenIssuer
	ttl      time.Duration
	logger   *slog.Logger
}

// NewSessionRegistry creates a SessionRegistry. A non-positive ttl falls
// back to DefaultSessionTTL.
func NewSessionRegistry(sessions SessionRepository, issuer TokenIssuer, ttl time.Duration) (*SessionRegistry, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("session repository is required")
	}
	if issuer == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("token issuer is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRegistry{
		sessions: sessions,
		issuer:   issuer,
		ttl:      ttl,
		logger:   slog.Default(),
	}, nil
}

// WithLogger replaces the registry logger. Returns the registry for
// chaining during construction.
func (r *SessionRegistry) WithLogger(logger *slog.Logger) *SessionRegistry {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// TTL returns the configured session lifetime.
func (r *SessionRegistry) TTL() time.Duration {
	return r.ttl
}

// Create issues a fresh token and stores a session for username.
// Returns the session and the plaintext token. Token collisions are
// retried up to maxIssueRetries, then escalated to an entropy failure.
func (r *SessionRegistry) Create(ctx context.Context, username string) (*Session, string, error) {
	if username == "" {
		return nil, "", oops.Code("AUTH_INVALID_INPUT").Errorf("username cannot be empty")
	}

	var (
		session *Session
		token   string
	)

	backoff := retry.WithMaxRetries(maxIssueRetries, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		issued, err := r.issuer.Issue()
		if err != nil {
			// Entropy failure is fatal, never retried.
			return err
		}

		now := time.Now()
		s, err := NewSession(username, HashToken(issued), now, now.Add(r.ttl))
		if err != nil {
			return err
		}

		if err := r.sessions.Create(ctx, s); err != nil {
			if errors.Is(err, ErrTokenCollision) {
				sessionCollisions.Inc()
				return retry.RetryableError(err)
			}
			return err
		}

		session, token = s, issued
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTokenCollision) {
			// Repeated collisions mean the token source is broken.
			return nil, "", oops.Code("AUTH_ENTROPY_FAILURE").
				With("retries", maxIssueRetries).
				Wrap(ErrEntropySource)
		}
		if errors.Is(err, ErrEntropySource) {
			// Already coded by the issuer; propagate the fatal fault.
			return nil, "", err
		}
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "issue session").
			Wrap(err)
	}

	sessionsIssued.Inc()
	return session, token, nil
}

// Validate resolves a token to its owning username. Returns an error
// wrapping ErrNotFound for unknown tokens and ErrTokenExpired once
// now >= ExpiresAt. Expired entries are purged on access.
func (r *SessionRegistry) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", oops.Code("AUTH_INVALID_INPUT").Errorf("session token cannot be empty")
	}

	session, err := r.sessions.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
		}
		return "", oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpiredAt(time.Now()) {
		// Eager purge; expiry is terminal either way.
		if delErr := r.sessions.Delete(ctx, session.TokenHash); delErr != nil {
			r.logger.Warn("failed to purge expired session", "error", delErr)
		} else {
			sessionsExpired.Inc()
		}
		return "", oops.Code("SESSION_EXPIRED").Wrap(ErrTokenExpired)
	}

	return session.Username, nil
}

// Revoke removes the session for a token. Idempotent: revoking an unknown
// or already-revoked token succeeds.
func (r *SessionRegistry) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("session token cannot be empty")
	}
	if err := r.sessions.Delete(ctx, HashToken(token)); err != nil {
		return oops.Code("SESSION_REVOKE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	sessionsRevoked.Inc()
	return nil
}

// RevokeAll removes every session owned by username and returns the count.
func (r *SessionRegistry) RevokeAll(ctx context.Context, username string) (int64, error) {
	if username == "" {
		return 0, oops.Code("AUTH_INVALID_INPUT").Errorf("username cannot be empty")
	}
	n, err := r.sessions.DeleteByUsername(ctx, username)
	if err != nil {
		return 0, oops.Code("SESSION_REVOKE_ALL_FAILED").
			With("operation", "delete sessions by username").
			With("username", username).
			Wrap(err)
	}
	return n, nil
}

// PurgeExpired removes all expired sessions and returns the count.
func (r *SessionRegistry) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := r.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	sessionsExpired.Add(float64(n))
	return n, nil
}

// Sweep runs PurgeExpired on the given interval until ctx is cancelled.
// Read-time expiry stays authoritative; the sweep only reclaims storage.
func (r *SessionRegistry) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.PurgeExpired(ctx)
			if err != nil {
				r.logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Debug("session sweep reclaimed expired sessions", "count", n)
			}
		}
	}
}
