// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth

import (
	"unicode"

	"github.com/samber/oops"
)

// DefaultMinPasswordLength is the floor applied when no policy is supplied.
const DefaultMinPasswordLength = 8

// PasswordPolicy is a pluggable password acceptance rule. The zero value
// accepts any non-empty password; use DefaultPasswordPolicy for the shipped
// defaults.
type PasswordPolicy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPasswordPolicy requires at least eight characters with one letter
// and one digit.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:    DefaultMinPasswordLength,
	RequireLower: true,
	RequireDigit: true,
}

// Check returns nil if the password satisfies the policy.
func (p PasswordPolicy) Check(password string) error {
	if password == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("password cannot be empty")
	}
	if len(password) < p.MinLength {
		return oops.Code("AUTH_WEAK_PASSWORD").
			With("min", p.MinLength).
			Errorf("password must be at least %d characters", p.MinLength)
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	switch {
	case p.RequireUpper && !upper:
		return oops.Code("AUTH_WEAK_PASSWORD").Errorf("password must contain an uppercase letter")
	case p.RequireLower && !lower:
		return oops.Code("AUTH_WEAK_PASSWORD").Errorf("password must contain a lowercase letter")
	case p.RequireDigit && !digit:
		return oops.Code("AUTH_WEAK_PASSWORD").Errorf("password must contain a digit")
	case p.RequireSymbol && !symbol:
		return oops.Code("AUTH_WEAK_PASSWORD").Errorf("password must contain a symbol")
	}

	return nil
}
