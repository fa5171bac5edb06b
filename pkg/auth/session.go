// Package auth resolves the signed-in user of a request from a Redis-backed
// cookie session and carries the user id through context.
//
// authKey must be 32 or 64 bytes (HMAC), encryptionKey 16, 24 or 32 bytes (AES).
package auth

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

// SessionMaxAge is the lifetime of a session cookie and its Redis record.
const SessionMaxAge = 7 * 24 * time.Hour

func sessionKey(id string) string { return "session:" + id }

// userSessionsKey indexes every live session of a user for RevokeUser.
func userSessionsKey(userID string) string { return "session:user:" + userID }

// RedisStore is a sessions.Store keeping values server side in Redis. The
// cookie carries only the encrypted session id.
type RedisStore struct {
	client  *redis.Client
	codecs  []securecookie.Codec
	options *sessions.Options
}

// NewSessionStore returns a RedisStore issuing HttpOnly, SameSite=Lax cookies.
// secureCookie marks them HTTPS-only and is set in production.
func NewSessionStore(client *redis.Client, authKey, encryptionKey []byte, secureCookie bool) *RedisStore {
	return &RedisStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(authKey, encryptionKey),
		options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(SessionMaxAge / time.Second),
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns a session for the given name, loading from Redis if a valid
// session cookie exists.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, tampered or
// expired cookie, or a revoked Redis record, yields a fresh session.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return session, nil
	}
	session.ID = id
	if err := s.load(r.Context(), session); err == nil {
		session.IsNew = false
	}
	return session, nil
}

// Save writes the session to Redis and sets the cookie. A negative MaxAge
// deletes the session and clears the cookie.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if err := s.delete(r.Context(), session); err != nil {
			return err
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newSessionID()
	}

	if err := s.save(r.Context(), session); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func newSessionID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}

func (s *RedisStore) delete(ctx context.Context, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(session.ID))
	if userID, ok := session.Values[sessionUserIDKey].(string); ok {
		pipe.SRem(ctx, userSessionsKey(userID), session.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, session *sessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), buf.Bytes(), ttl)
	if userID, ok := session.Values[sessionUserIDKey].(string); ok && userID != "" {
		idx := userSessionsKey(userID)
		pipe.SAdd(ctx, idx, session.ID)
		pipe.Expire(ctx, idx, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set session in redis: %w", err)
	}
	return nil
}

// RevokeUser deletes every session belonging to userID. Cookies still held by
// browsers then decode to a fresh anonymous session.
func (s *RedisStore) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	idx := userSessionsKey(userID.String())
	ids, err := s.client.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, idx)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, session *sessions.Session) error {
	data, err := s.client.Get(ctx, sessionKey(session.ID)).Bytes()
	if err != nil {
		return fmt.Errorf("get session from redis: %w", err)
	}
	return gob.NewDecoder(bytes.NewBuffer(data)).Decode(&session.Values)
}
