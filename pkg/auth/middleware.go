package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/storefront/pkg/apperr"
	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/logger"
)

const (
	sessionName      = "storefront_session"
	sessionUserIDKey = "user_id"
)

var errNoUser = errors.New("session has no user")

// RequireAuth resolves the session cookie to a user id and places it on the
// request context. Requests without a signed-in user get a 401 before the
// handler runs. Sessions are created by the login flow, which lives outside
// this service.
func RequireAuth(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, sessionName)
			if err != nil {
				log.WarnContext(r.Context(), "invalid session cookie", "error", err)
				errhttp.WriteError(w, apperr.ErrUnauthenticated)
				return
			}
			userID, err := sessionUserID(session)
			if err != nil {
				if !errors.Is(err, errNoUser) || !session.IsNew {
					log.WarnContext(r.Context(), "rejected session", "error", err)
				}
				errhttp.WriteError(w, apperr.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// sessionUserID reads the signed-in user. uuid.Nil never identifies a user.
func sessionUserID(session *sessions.Session) (uuid.UUID, error) {
	raw, ok := session.Values[sessionUserIDKey].(string)
	if !ok || raw == "" {
		return uuid.Nil, errNoUser
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse session user id: %w", err)
	}
	if id == uuid.Nil {
		return uuid.Nil, errNoUser
	}
	return id, nil
}
