package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

const (
	// ResetTokenBytes is the token entropy: 160 bits.
	ResetTokenBytes = 20
	// ResetTokenTTL is how long an issued token stays usable.
	ResetTokenTTL = time.Hour
)

// NewResetToken reads ResetTokenBytes from r (crypto/rand when nil) and
// hex-encodes them.
func NewResetToken(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, ResetTokenBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashResetToken returns the stored form of token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
