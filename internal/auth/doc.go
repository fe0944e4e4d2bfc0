// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

// Package auth is the credential-and-session authority at the heart of
// KeyFort.
//
// # Domain Types
//
// Domain types (Account, Session) should be created using their
// constructors:
//   - NewAccount - creates an Account with a validated username and digest
//   - NewSession - creates a Session with a validated owner and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Store implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service composes the password hasher, credential store, and session
// registry into the four caller-facing operations: Register, Authenticate,
// ValidateSession, and Logout. SessionRegistry owns token issuance and
// expiry; it never sees plaintext passwords.
//
// Storage is supplied by the caller. The memory subpackage provides the
// reference implementation.
package auth
