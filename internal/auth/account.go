// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Account is a credential record: a username bound to an irreversible
// password digest. Usernames are exact keys; no case or whitespace
// normalization is performed anywhere in the authority.
type Account struct {
	ID             ulid.ULID
	Username       string
	PasswordDigest string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates a validated Account. The digest must already be the
// output of a PasswordHasher; plaintext never reaches this constructor.
func NewAccount(username, digest string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if digest == "" {
		return nil, oops.Code("AUTH_INVALID_INPUT").Errorf("password digest cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:             ulid.Make(),
		Username:       username,
		PasswordDigest: digest,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// RotateDigest replaces the password digest. The record is otherwise
// immutable.
func (a *Account) RotateDigest(digest string) error {
	if digest == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("password digest cannot be empty")
	}
	a.PasswordDigest = digest
	a.UpdatedAt = time.Now()
	return nil
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_INPUT").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// AccountRepository manages credential persistence. Implementations must be
// safe for concurrent use; Create/GetByUsername/UpdateDigest/Delete are
// atomic with respect to each other.
type AccountRepository interface {
	// Create stores a new account. Returns an error wrapping
	// ErrDuplicateUser if the username already exists.
	Create(ctx context.Context, account *Account) error

	// GetByUsername retrieves an account by exact username. Returns an
	// error wrapping ErrNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// UpdateDigest replaces the password digest for a username. Returns
	// an error wrapping ErrNotFound if absent.
	UpdateDigest(ctx context.Context, username, digest string) error

	// Delete removes an account. Idempotent: absent usernames are not an
	// error.
	Delete(ctx context.Context, username string) error
}
