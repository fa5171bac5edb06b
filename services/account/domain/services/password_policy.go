// Package services contains stateless domain services for the account
// bounded context.
package services

import (
	"fmt"
	"strings"

	accountdomain "github.com/ghuser/storefront/services/account/domain"
)

const (
	MinPasswordBytes = 8
	// MaxPasswordBytes is bcrypt's input limit; longer passwords would be
	// silently truncated.
	MaxPasswordBytes = 72
)

// ValidatePassword enforces the password policy. Every failure wraps
// ErrPolicyViolation; the detail is for logs only.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordBytes {
		return fmt.Errorf("%w: shorter than %d bytes", accountdomain.ErrPolicyViolation, MinPasswordBytes)
	}
	if len(pw) > MaxPasswordBytes {
		return fmt.Errorf("%w: longer than %d bytes", accountdomain.ErrPolicyViolation, MaxPasswordBytes)
	}
	if strings.TrimSpace(pw) == "" {
		return fmt.Errorf("%w: only whitespace", accountdomain.ErrPolicyViolation)
	}
	return nil
}
