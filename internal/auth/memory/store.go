// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

// Package memory provides the reference in-memory stores for the auth
// authority. Useful for tests and single-process deployments; callers
// wanting durability supply their own repository implementations.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/keyfort/keyfort/internal/auth"
)

// AccountStore is a mutex-guarded in-memory auth.AccountRepository.
// Usernames are exact keys; no normalization is performed.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]auth.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]auth.Account),
	}
}

// Create stores a new account.
func (s *AccountStore) Create(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.Username]; exists {
		return oops.Code("AUTH_DUPLICATE_USER").
			With("username", account.Username).
			Wrap(auth.ErrDuplicateUser)
	}
	s.accounts[account.Username] = *account
	return nil
}

// GetByUsername retrieves an account by exact username.
func (s *AccountStore) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[username]
	if !exists {
		return nil, oops.Code("AUTH_USER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	copied := account
	return &copied, nil
}

// UpdateDigest replaces the password digest for a username.
func (s *AccountStore) UpdateDigest(_ context.Context, username, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[username]
	if !exists {
		return oops.Code("AUTH_USER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	account.PasswordDigest = digest
	account.UpdatedAt = time.Now()
	s.accounts[username] = account
	return nil
}

// Delete removes an account. Absent usernames are not an error.
func (s *AccountStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, username)
	return nil
}

// Len returns the number of stored accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// SessionStore is a mutex-guarded in-memory auth.SessionRepository keyed
// by token hash, with a per-username index for bulk revocation.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]auth.Session        // token hash -> session
	byOwner  map[string]map[string]struct{} // username -> token hashes
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]auth.Session),
		byOwner:  make(map[string]map[string]struct{}),
	}
}

// Create stores a new session.
func (s *SessionStore) Create(_ context.Context, session *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.TokenHash]; exists {
		return oops.Code("SESSION_TOKEN_COLLISION").
			Wrap(auth.ErrTokenCollision)
	}

	s.sessions[session.TokenHash] = *session
	owned, ok := s.byOwner[session.Username]
	if !ok {
		owned = make(map[string]struct{})
		s.byOwner[session.Username] = owned
	}
	owned[session.TokenHash] = struct{}{}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (s *SessionStore) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[tokenHash]
	if !exists {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	copied := session
	return &copied, nil
}

// Delete removes a session by token hash. Idempotent.
func (s *SessionStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(tokenHash)
	return nil
}

// DeleteByUsername removes all sessions owned by a username.
func (s *SessionStore) DeleteByUsername(_ context.Context, username string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.byOwner[username]
	var deleted int64
	for tokenHash := range owned {
		s.removeLocked(tokenHash)
		deleted++
	}
	return deleted, nil
}

// DeleteExpired removes all sessions expired as of now.
func (s *SessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for tokenHash, session := range s.sessions {
		if session.IsExpiredAt(now) {
			s.removeLocked(tokenHash)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of live session records.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// removeLocked deletes a session and its owner index entry. Caller holds
// the write lock.
func (s *SessionStore) removeLocked(tokenHash string) {
	session, exists := s.sessions[tokenHash]
	if !exists {
		return
	}
	delete(s.sessions, tokenHash)

	owned := s.byOwner[session.Username]
	delete(owned, tokenHash)
	if len(owned) == 0 {
		delete(s.byOwner, session.Username)
	}
}

// Compile-time interface checks.
var (
	_ auth.AccountRepository = (*AccountStore)(nil)
	_ auth.SessionRepository = (*SessionStore)(nil)
)
