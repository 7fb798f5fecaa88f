package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bryanwahyu/aeo-tracker/internal/domain/identity"
)

type contextKey string

const (
	UserKey  contextKey = "user"
	TokenKey contextKey = "token"
)

// BearerAuth validates the session token from the Authorization header and
// stores the user in the request context. Failures answer 401 {"error":"Unauthorized"}.
func BearerAuth(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			user, err := verifier.ValidateToken(r.Context(), token)
			if err != nil || user == nil {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			ctx = context.WithValue(ctx, TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// UserFromContext returns the authenticated user, or nil outside BearerAuth.
func UserFromContext(ctx context.Context) *identity.User {
	if user, ok := ctx.Value(UserKey).(*identity.User); ok {
		return user
	}
	return nil
}

// WithUser is used by tests and internal callers to attach a user.
func WithUser(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
