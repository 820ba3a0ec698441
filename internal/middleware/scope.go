package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rpattn/crmimport/internal/auth"
)

// Headers carrying the caller identity. Upstream authentication is
// expected to have validated them.
const (
	HeaderTeamID = "X-Team-ID"
	HeaderUserID = "X-User-ID"
)

// ScopeMiddleware lifts the team and user identity headers into the
// request context. Requests without a valid team header are rejected.
func ScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teamID, err := uuid.Parse(r.Header.Get(HeaderTeamID))
		if err != nil || teamID == uuid.Nil {
			http.Error(w, "missing or invalid "+HeaderTeamID+" header", http.StatusUnauthorized)
			return
		}

		ctx := auth.ContextWithTeamID(r.Context(), teamID)
		if userID, err := uuid.Parse(r.Header.Get(HeaderUserID)); err == nil && userID != uuid.Nil {
			ctx = auth.ContextWithUserID(ctx, userID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
