// Package seal encrypts reset tokens for the trip through the outbox.
package seal

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"
)

const sealName = "password-reset"

// TokenSealer authenticates and encrypts tokens with keys derived from the
// session keys, so a sealed token cannot be replayed as a session cookie.
type TokenSealer struct {
	codec *securecookie.SecureCookie
}

// NewTokenSealer returns a TokenSealer whose seals expire after ttl.
func NewTokenSealer(authKey, encryptionKey []byte, ttl time.Duration) *TokenSealer {
	hashKey := sha256.Sum256(append([]byte("reset-token-mac:"), authKey...))
	blockKey := sha256.Sum256(append([]byte("reset-token-enc:"), encryptionKey...))
	codec := securecookie.New(hashKey[:], blockKey[:])
	codec.MaxAge(int(ttl / time.Second))
	return &TokenSealer{codec: codec}
}

func (s *TokenSealer) Seal(token string) (string, error) {
	sealed, err := s.codec.Encode(sealName, token)
	if err != nil {
		return "", fmt.Errorf("seal reset token: %w", err)
	}
	return sealed, nil
}

// Open returns the token inside sealed. Tampered or expired seals fail.
func (s *TokenSealer) Open(sealed string) (string, error) {
	var token string
	if err := s.codec.Decode(sealName, sealed, &token); err != nil {
		return "", fmt.Errorf("open reset token: %w", err)
	}
	return token, nil
}
