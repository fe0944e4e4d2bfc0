// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfort/keyfort/internal/auth"
)

func TestIssueToken(t *testing.T) {
	issuer := auth.NewCSPRNGIssuer()

	t.Run("carries the full entropy floor", func(t *testing.T) {
		token, err := issuer.Issue()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, auth.TokenBytes)
	})

	t.Run("never repeats across 10000 samples", func(t *testing.T) {
		seen := make(map[string]struct{}, 10000)
		for range 10000 {
			token, err := issuer.Issue()
			require.NoError(t, err)
			_, dup := seen[token]
			require.False(t, dup, "token repeated")
			seen[token] = struct{}{}
		}
	})
}

func TestHashToken(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, auth.HashToken("sometoken"), auth.HashToken("sometoken"))
	})

	t.Run("never equals the token", func(t *testing.T) {
		assert.NotEqual(t, "sometoken", auth.HashToken("sometoken"))
	})

	t.Run("is hex-encoded SHA-256", func(t *testing.T) {
		assert.Len(t, auth.HashToken("sometoken"), 64)
	})
}

func TestTokenMatches(t *testing.T) {
	t.Run("matching token verifies", func(t *testing.T) {
		hash := auth.HashToken("sometoken")
		assert.True(t, auth.TokenMatches("sometoken", hash))
	})

	t.Run("different token fails", func(t *testing.T) {
		hash := auth.HashToken("sometoken")
		assert.False(t, auth.TokenMatches("othertoken", hash))
	})
}
