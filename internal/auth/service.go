// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/oops"
)

// DefaultHashConcurrency bounds how many argon2 computations run at once.
// Hashing is CPU-bound and must never starve concurrent request handling.
const DefaultHashConcurrency = 8

// dummyDigestSeed is hashed once at construction; the resulting digest is
// verified against when a username doesn't exist, so unknown-user and
// wrong-password verification cost the same argon2 work under whatever
// parameters the hasher is configured with. The seed is not a credential:
// unknown usernames fail regardless of the verification outcome.
const dummyDigestSeed = "keyfort-unknown-user-stand-in"

// Service composes the hasher, credential store, and session registry into
// the caller-facing authentication operations.
type Service struct {
	accounts      AccountRepository
	registry      *SessionRegistry
	hasher        PasswordHasher
	policy        PasswordPolicy
	logger        *slog.Logger
	hashSlots     chan struct{}
	dummyDigest   string
	userLocks     sync.Map // username -> *sync.Mutex; serializes single-session logins
	singleSession bool
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPasswordPolicy replaces the default password acceptance policy.
func WithPasswordPolicy(policy PasswordPolicy) ServiceOption {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithSingleSession enforces at most one live session per username:
// authentication revokes the user's previous sessions before issuing a
// new one.
func WithSingleSession() ServiceOption {
	return func(s *Service) {
		s.singleSession = true
	}
}

// WithHashConcurrency bounds concurrent password hashing operations.
func WithHashConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.hashSlots = make(chan struct{}, n)
		}
	}
}

// NewService creates a Service. All three dependencies are required.
func NewService(accounts AccountRepository, registry *SessionRegistry, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("accounts repository is required")
	}
	if registry == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("session registry is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}

	s := &Service{
		accounts:  accounts,
		registry:  registry,
		hasher:    hasher,
		policy:    DefaultPasswordPolicy,
		logger:    slog.Default(),
		hashSlots: make(chan struct{}, DefaultHashConcurrency),
	}
	for _, opt := range opts {
		opt(s)
	}

	// The dummy digest must embed the hasher's own cost parameters or the
	// unknown-user path would pay a different amount of argon2 work.
	digest, err := s.hash(dummyDigestSeed)
	if err != nil {
		return nil, err
	}
	s.dummyDigest = digest

	return s, nil
}

// hash runs the hasher inside a bounded slot. No store lock is ever held
// while hashing.
func (s *Service) hash(password string) (string, error) {
	s.hashSlots <- struct{}{}
	defer func() { <-s.hashSlots }()
	return s.hasher.Hash(password)
}

// verify runs verification inside a bounded slot.
func (s *Service) verify(password, digest string) (bool, error) {
	s.hashSlots <- struct{}{}
	defer func() { <-s.hashSlots }()
	return s.hasher.Verify(password, digest)
}

// lockUsername serializes logins for one username. Returns the unlock.
func (s *Service) lockUsername(username string) func() {
	v, _ := s.userLocks.LoadOrStore(username, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Register creates a credential record for a new username. The password is
// checked against the configured policy, hashed with a fresh salt, and
// stored; the plaintext is discarded.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if err := ValidateUsername(username); err != nil {
		Registrations.WithLabelValues(StatusError).Inc()
		return err
	}
	if err := s.policy.Check(password); err != nil {
		Registrations.WithLabelValues(StatusError).Inc()
		return err
	}

	digest, err := s.hash(password)
	if err != nil {
		Registrations.WithLabelValues(StatusError).Inc()
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(username, digest)
	if err != nil {
		Registrations.WithLabelValues(StatusError).Inc()
		return err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			Registrations.WithLabelValues(StatusError).Inc()
			return oops.Code("AUTH_DUPLICATE_USER").
				With("username", username).
				Wrap(err)
		}
		Registrations.WithLabelValues(StatusError).Inc()
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "store account").
			Wrap(err)
	}

	Registrations.WithLabelValues(StatusSuccess).Inc()
	s.logger.Info("account registered", "username", username)
	return nil
}

// Authenticate verifies a username/password pair and issues a session.
// Returns the session and the plaintext token.
//
// Unknown usernames and wrong passwords both yield AUTH_INVALID_CREDENTIALS
// after a digest verification, so the two cases are indistinguishable by
// error variant or timing.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Session, string, error) {
	account, lookupErr := s.accounts.GetByUsername(ctx, username)

	targetDigest := s.dummyDigest
	accountExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			Authentications.WithLabelValues(StatusError).Inc()
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get account by username").
				Wrap(lookupErr)
		}
	} else {
		targetDigest = account.PasswordDigest
		accountExists = true
	}

	valid, verifyErr := s.verify(password, targetDigest)
	if verifyErr != nil {
		// Dummy digest verification errors fold into invalid credentials.
		if !accountExists {
			Authentications.WithLabelValues(StatusInvalidCredentials).Inc()
			return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		Authentications.WithLabelValues(StatusError).Inc()
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !accountExists || !valid {
		Authentications.WithLabelValues(StatusInvalidCredentials).Inc()
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if s.singleSession {
		// Revoke-then-issue must act as one step per user, or two
		// concurrent logins could both leave a live session.
		unlock := s.lockUsername(username)
		defer unlock()
		if _, err := s.registry.RevokeAll(ctx, username); err != nil {
			Authentications.WithLabelValues(StatusError).Inc()
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "revoke previous sessions").
				Wrap(err)
		}
	}

	session, token, err := s.registry.Create(ctx, username)
	if err != nil {
		Authentications.WithLabelValues(StatusError).Inc()
		return nil, "", err
	}

	Authentications.WithLabelValues(StatusSuccess).Inc()
	s.logger.Info("session issued", "username", username, "expires_at", session.ExpiresAt)
	return session, token, nil
}

// ValidateSession resolves a session token to its owning username.
func (s *Service) ValidateSession(ctx context.Context, token string) (string, error) {
	return s.registry.Validate(ctx, token)
}

// Logout revokes the session for a token. Idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.registry.Revoke(ctx, token)
}

// ChangePassword rotates the digest for a username after verifying the old
// password. All of the user's sessions are revoked on success; the caller
// must authenticate again. Unknown usernames fold into invalid credentials
// the same way Authenticate does.
func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	account, lookupErr := s.accounts.GetByUsername(ctx, username)

	targetDigest := s.dummyDigest
	accountExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
				With("operation", "get account by username").
				Wrap(lookupErr)
		}
	} else {
		targetDigest = account.PasswordDigest
		accountExists = true
	}

	valid, verifyErr := s.verify(oldPassword, targetDigest)
	if verifyErr != nil && accountExists {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "verify old password").
			Wrap(verifyErr)
	}
	if !accountExists || !valid {
		return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if err := s.policy.Check(newPassword); err != nil {
		return err
	}

	digest, err := s.hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	if err := s.accounts.UpdateDigest(ctx, username, digest); err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "update digest").
			Wrap(err)
	}

	revoked, err := s.registry.RevokeAll(ctx, username)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "revoke sessions").
			Wrap(err)
	}

	s.logger.Info("password rotated", "username", username, "sessions_revoked", revoked)
	return nil
}

// DeleteAccount destroys a credential record and revokes all of the user's
// sessions. Idempotent with respect to the account record.
func (s *Service) DeleteAccount(ctx context.Context, username string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}

	if _, err := s.registry.RevokeAll(ctx, username); err != nil {
		return oops.Code("AUTH_DELETE_FAILED").
			With("operation", "revoke sessions").
			Wrap(err)
	}

	if err := s.accounts.Delete(ctx, username); err != nil {
		return oops.Code("AUTH_DELETE_FAILED").
			With("operation", "delete account").
			With("username", username).
			Wrap(err)
	}

	s.logger.Info("account deleted", "username", username)
	return nil
}
