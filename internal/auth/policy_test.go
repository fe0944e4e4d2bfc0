// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keyfort/keyfort/internal/auth"
	"github.com/keyfort/keyfort/pkg/errutil"
)

func TestPasswordPolicy(t *testing.T) {
	t.Run("default policy accepts a compliant password", func(t *testing.T) {
		assert.NoError(t, auth.DefaultPasswordPolicy.Check("hunter2hunter2"))
	})

	t.Run("empty password is invalid input", func(t *testing.T) {
		err := auth.DefaultPasswordPolicy.Check("")
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_INPUT")
	})

	t.Run("short password is weak", func(t *testing.T) {
		err := auth.DefaultPasswordPolicy.Check("ab1")
		errutil.AssertErrorCode(t, err, "AUTH_WEAK_PASSWORD")
	})

	t.Run("missing digit is weak under default policy", func(t *testing.T) {
		err := auth.DefaultPasswordPolicy.Check("onlyletters")
		errutil.AssertErrorCode(t, err, "AUTH_WEAK_PASSWORD")
	})

	t.Run("character class requirements are configurable", func(t *testing.T) {
		policy := auth.PasswordPolicy{
			MinLength:     10,
			RequireUpper:  true,
			RequireLower:  true,
			RequireDigit:  true,
			RequireSymbol: true,
		}

		assert.Error(t, policy.Check("alllower1!"))
		assert.Error(t, policy.Check("ALLUPPER1!"))
		assert.Error(t, policy.Check("NoDigits!!"))
		assert.Error(t, policy.Check("NoSymbol11"))
		assert.NoError(t, policy.Check("Mixed1234!"))
	})

	t.Run("zero policy accepts any non-empty password", func(t *testing.T) {
		var policy auth.PasswordPolicy
		assert.NoError(t, policy.Check("x"))
		assert.Error(t, policy.Check(""))
	})
}
