package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewSessionStore(rdb,
		[]byte("test-auth-key-must-be-32-bytes!!"),
		[]byte("test-enc-key-must-be-32-bytes!!!"),
		false,
	)
	return store, mr
}

func TestRedisStore_RequireAuthRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	userID := uuid.New()

	req := requestWithSession(t, store, userID)

	var got uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserIDFromCtx(r.Context())
	})
	RequireAuth(store, newTestLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, userID, got)
}

func TestRedisStore_RevokeUser(t *testing.T) {
	store, mr := newRedisStore(t)
	userID := uuid.New()
	other := uuid.New()

	first := requestWithSession(t, store, userID)
	second := requestWithSession(t, store, userID)
	otherReq := requestWithSession(t, store, other)

	require.NoError(t, store.RevokeUser(context.Background(), userID))
	assert.False(t, mr.Exists(userSessionsKey(userID.String())))

	for _, req := range []*http.Request{first, second} {
		w := httptest.NewRecorder()
		RequireAuth(store, newTestLogger())(http.NotFoundHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked session must be rejected")
	}

	w := httptest.NewRecorder()
	RequireAuth(store, newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(w, otherReq)
	assert.Equal(t, http.StatusNoContent, w.Code, "other users keep their sessions")
}

func TestRedisStore_SaveNegativeMaxAgeDeletes(t *testing.T) {
	store, mr := newRedisStore(t)
	userID := uuid.New()
	req := requestWithSession(t, store, userID)

	session, err := store.Get(req, sessionName)
	require.NoError(t, err)
	require.False(t, session.IsNew)
	id := session.ID

	session.Options.MaxAge = -1
	w := httptest.NewRecorder()
	require.NoError(t, store.Save(req, w, session))

	assert.False(t, mr.Exists(sessionKey(id)))
	members, _ := mr.Members(userSessionsKey(userID.String()))
	assert.NotContains(t, members, id)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}

func TestRedisStore_CookieAttributes(t *testing.T) {
	store, mr := newRedisStore(t)
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	session, err := store.New(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionUserIDKey] = uuid.NewString()

	w := httptest.NewRecorder()
	require.NoError(t, store.Save(req, w, session))

	c := w.Result().Cookies()[0]
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int(SessionMaxAge.Seconds()), c.MaxAge)
	assert.Equal(t, SessionMaxAge, mr.TTL(sessionKey(session.ID)))
}
