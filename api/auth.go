/*
auth.go - Bearer-token authentication middleware

PURPOSE:
  Resolves the Authorization header into an identity.Session and stores
  it on the request context. Handlers read the session's billing.Scope
  and pass it to store queries, so data visibility is enforced at the
  query layer rather than per-handler.

GUARANTEES:
  - RequireAuth: 401 without a resolvable, unexpired session.
  - RequireAdmin: 403 unless the session scope is admin.
  - Sign-out deletes the session row, so a stolen token dies with it.

SEE ALSO:
  - identity/local.go: Session resolution
  - billing/types.go: Scope semantics
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/paddock/billing-engine/identity"
)

type contextKey string

const sessionKey contextKey = "session"

// sessionFrom returns the authenticated session set by RequireAuth.
func sessionFrom(ctx context.Context) *identity.Session {
	s, _ := ctx.Value(sessionKey).(*identity.Session)
	return s
}

// RequireAuth resolves the bearer token and attaches the session.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		session, err := h.Identities.CurrentSession(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired session", nil)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only admin-scoped sessions through.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r.Context())
		if session == nil || !session.Scope.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
