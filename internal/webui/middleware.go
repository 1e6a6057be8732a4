package webui

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/dstark/my/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// Middleware gates the web UI data endpoints on a live session.
type Middleware struct {
	sessions *scs.SessionManager
	users    *store.UserStore
}

func NewMiddleware(sm *scs.SessionManager, users *store.UserStore) *Middleware {
	return &Middleware{sessions: sm, users: users}
}

// RequireSession rejects requests with no valid session with a JSON 401.
// On success the *store.User is set on the request context. The data
// endpoints are fetched by the UI, not navigated to, so a redirect
// would be useless to the caller.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := m.sessions.Get(r.Context(), sessionUserIDKey).(int64)
		if userID == 0 {
			unauthorized(w)
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			// Session references a deleted user. Destroy it.
			_ = m.sessions.Destroy(r.Context())
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(envelope{
		Success:   false,
		ErrorCode: http.StatusUnauthorized,
		Error:     "login required",
	})
}

// UserFromContext retrieves the authenticated user from the context.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(userContextKey).(*store.User)
	return u
}
