// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfort/keyfort/internal/auth"
)

func TestNewSession(t *testing.T) {
	now := time.Now()

	t.Run("creates validated session", func(t *testing.T) {
		session, err := auth.NewSession("alice", auth.HashToken("token"), now, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "alice", session.Username)
		assert.NotZero(t, session.ID)
		assert.Equal(t, now, session.IssuedAt)
	})

	t.Run("rejects empty owner", func(t *testing.T) {
		_, err := auth.NewSession("", auth.HashToken("token"), now, now.Add(time.Hour))
		assert.Error(t, err)
	})

	t.Run("rejects empty token hash", func(t *testing.T) {
		_, err := auth.NewSession("alice", "", now, now.Add(time.Hour))
		assert.Error(t, err)
	})

	t.Run("rejects zero expiry", func(t *testing.T) {
		_, err := auth.NewSession("alice", auth.HashToken("token"), now, time.Time{})
		assert.Error(t, err)
	})

	t.Run("rejects expiry before issuance", func(t *testing.T) {
		_, err := auth.NewSession("alice", auth.HashToken("token"), now, now.Add(-time.Hour))
		assert.Error(t, err)
	})
}

func TestSessionExpiry(t *testing.T) {
	now := time.Now()
	session, err := auth.NewSession("alice", auth.HashToken("token"), now, now.Add(time.Hour))
	require.NoError(t, err)

	t.Run("not expired before expiry", func(t *testing.T) {
		assert.False(t, session.IsExpiredAt(now.Add(59*time.Minute)))
	})

	t.Run("expired exactly at expiry", func(t *testing.T) {
		// now >= expiresAt means expired; the boundary is inclusive.
		assert.True(t, session.IsExpiredAt(now.Add(time.Hour)))
	})

	t.Run("expired after expiry", func(t *testing.T) {
		assert.True(t, session.IsExpiredAt(now.Add(2*time.Hour)))
	})
}
