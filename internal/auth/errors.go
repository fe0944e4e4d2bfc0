// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth

import "errors"

// Sentinel errors for the authority. Services and stores wrap these in
// coded oops errors; callers match them with errors.Is.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUser is returned when registering a username that
	// already has a credential record.
	ErrDuplicateUser = errors.New("username already registered")

	// ErrInvalidCredentials is returned for both unknown usernames and
	// wrong passwords. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrTokenExpired is returned when validating a session past its
	// expiry. Expiry is terminal.
	ErrTokenExpired = errors.New("session token expired")

	// ErrTokenCollision is returned by session stores when a freshly
	// issued token hash already exists. Internal; the registry retries.
	ErrTokenCollision = errors.New("session token collision")

	// ErrEntropySource is returned when the CSPRNG fails or repeated
	// token collisions indicate it cannot be trusted. Fatal: a process
	// that cannot source entropy must not issue tokens.
	ErrEntropySource = errors.New("entropy source failure")
)
