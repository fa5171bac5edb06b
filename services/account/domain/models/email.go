package models

import (
	"fmt"
	"strings"
)

// Email is a normalized account email: trimmed and lower-cased.
type Email string

const maxEmailLength = 254

// NewEmail normalizes s or returns an error if it cannot be an address.
func NewEmail(s string) (Email, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("email must not be empty")
	}
	if len(s) > maxEmailLength {
		return "", fmt.Errorf("email must not exceed %d characters", maxEmailLength)
	}
	at := strings.LastIndexByte(s, '@')
	if at < 1 || at == len(s)-1 {
		return "", fmt.Errorf("email must have a local part and a domain")
	}
	return Email(s), nil
}

// String returns the underlying string value.
func (e Email) String() string {
	return string(e)
}
