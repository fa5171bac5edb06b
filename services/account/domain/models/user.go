package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of an account the password reset flow touches.
type User struct {
	ID           uuid.UUID
	Email        Email
	PasswordHash string

	// ResetTokenHash is the SHA-256 of the outstanding reset token, or ""
	// when no reset is pending. The token itself is only ever emailed.
	ResetTokenHash   string
	ResetTokenExpiry time.Time
}

// ResetExpired reports whether the pending reset token is past its expiry.
// A token is still valid at the exact expiry instant.
func (u *User) ResetExpired(now time.Time) bool {
	return now.After(u.ResetTokenExpiry)
}
