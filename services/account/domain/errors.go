package domain

import (
	"errors"
	"fmt"

	"github.com/ghuser/storefront/pkg/apperr"
)

// Sentinel errors for the account domain. Use errors.Is() to check these.
var (
	// ErrPasswordMismatch indicates the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidToken indicates no account holds the presented reset token,
	// including a token that was already consumed.
	ErrInvalidToken = errors.New("invalid reset token")

	// ErrTokenExpired indicates the reset token exists but its expiry has passed.
	ErrTokenExpired = errors.New("reset token expired")

	// ErrPolicyViolation indicates the new password fails the password policy.
	ErrPolicyViolation = errors.New("password does not meet requirements")
)

// ErrUserNotFound indicates no account matches the lookup.
var ErrUserNotFound = fmt.Errorf("user %w", apperr.ErrNotFound)
