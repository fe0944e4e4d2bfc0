// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfort/keyfort/internal/auth"
	"github.com/keyfort/keyfort/internal/auth/memory"
)

func newAccount(t *testing.T, username string) *auth.Account {
	t.Helper()
	account, err := auth.NewAccount(username, "$argon2id$digest")
	require.NoError(t, err)
	return account
}

func newSession(t *testing.T, username, token string, ttl time.Duration) *auth.Session {
	t.Helper()
	now := time.Now()
	session, err := auth.NewSession(username, auth.HashToken(token), now, now.Add(ttl))
	require.NoError(t, err)
	return session
}

func TestAccountStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get round trip", func(t *testing.T) {
		store := memory.NewAccountStore()
		require.NoError(t, store.Create(ctx, newAccount(t, "alice")))

		got, err := store.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		store := memory.NewAccountStore()
		require.NoError(t, store.Create(ctx, newAccount(t, "alice")))

		err := store.Create(ctx, newAccount(t, "alice"))
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicateUser)
	})

	t.Run("usernames are exact keys", func(t *testing.T) {
		store := memory.NewAccountStore()
		require.NoError(t, store.Create(ctx, newAccount(t, "alice")))

		_, err := store.GetByUsername(ctx, "Alice")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("unknown username", func(t *testing.T) {
		store := memory.NewAccountStore()
		_, err := store.GetByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("update digest", func(t *testing.T) {
		store := memory.NewAccountStore()
		require.NoError(t, store.Create(ctx, newAccount(t, "alice")))

		require.NoError(t, store.UpdateDigest(ctx, "alice", "$argon2id$rotated"))
		got, err := store.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "$argon2id$rotated", got.PasswordDigest)
	})

	t.Run("update digest for unknown username", func(t *testing.T) {
		store := memory.NewAccountStore()
		err := store.UpdateDigest(ctx, "ghost", "$argon2id$rotated")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := memory.NewAccountStore()
		require.NoError(t, store.Create(ctx, newAccount(t, "alice")))

		require.NoError(t, store.Delete(ctx, "alice"))
		require.NoError(t, store.Delete(ctx, "alice"))
		assert.Zero(t, store.Len())
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		store := memory.NewAccountStore()
		require.NoError(t, store.Create(ctx, newAccount(t, "alice")))

		got, err := store.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		got.PasswordDigest = "mutated"

		fresh, err := store.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "$argon2id$digest", fresh.PasswordDigest)
	})
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get round trip", func(t *testing.T) {
		store := memory.NewSessionStore()
		session := newSession(t, "alice", "token", time.Hour)
		require.NoError(t, store.Create(ctx, session))

		got, err := store.GetByTokenHash(ctx, session.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("token hash collision", func(t *testing.T) {
		store := memory.NewSessionStore()
		require.NoError(t, store.Create(ctx, newSession(t, "alice", "token", time.Hour)))

		err := store.Create(ctx, newSession(t, "bob", "token", time.Hour))
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrTokenCollision)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := memory.NewSessionStore()
		session := newSession(t, "alice", "token", time.Hour)
		require.NoError(t, store.Create(ctx, session))

		require.NoError(t, store.Delete(ctx, session.TokenHash))
		require.NoError(t, store.Delete(ctx, session.TokenHash))
	})

	t.Run("delete by username removes only that owner", func(t *testing.T) {
		store := memory.NewSessionStore()
		require.NoError(t, store.Create(ctx, newSession(t, "alice", "a1", time.Hour)))
		require.NoError(t, store.Create(ctx, newSession(t, "alice", "a2", time.Hour)))
		bob := newSession(t, "bob", "b1", time.Hour)
		require.NoError(t, store.Create(ctx, bob))

		n, err := store.DeleteByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = store.GetByTokenHash(ctx, bob.TokenHash)
		require.NoError(t, err)
	})

	t.Run("delete expired", func(t *testing.T) {
		store := memory.NewSessionStore()
		require.NoError(t, store.Create(ctx, newSession(t, "alice", "live", time.Hour)))
		require.NoError(t, store.Create(ctx, newSession(t, "alice", "stale", time.Millisecond)))

		n, err := store.DeleteExpired(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, 1, store.Len())
	})
}

func TestStoresConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	sessions := memory.NewSessionStore()

	const workers = 32
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			username := fmt.Sprintf("user_%d", i)
			account, err := auth.NewAccount(username, "$argon2id$digest")
			assert.NoError(t, err)
			assert.NoError(t, accounts.Create(ctx, account))
			_, err = accounts.GetByUsername(ctx, username)
			assert.NoError(t, err)

			session := newSession(t, username, username, time.Hour)
			assert.NoError(t, sessions.Create(ctx, session))
			_, err = sessions.GetByTokenHash(ctx, session.TokenHash)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, accounts.Len())
	assert.Equal(t, workers, sessions.Len())
}
