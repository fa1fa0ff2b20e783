package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Billy-Gatez/spacebook-social/internal/core/services"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserNameKey contextKey = "user_name"
)

// AuthMiddleware validates the JWT and injects the user identity into
// the request context. Websocket clients cannot set headers during the
// upgrade, so a token query parameter is accepted as a fallback.
func AuthMiddleware(tokenSvc *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string
			authHeader := r.Header.Get("Authorization")
			switch {
			case authHeader != "":
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
					return
				}
				tokenStr = parts[1]
			case r.URL.Query().Get("token") != "":
				tokenStr = r.URL.Query().Get("token")
			default:
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}
			userID, userName, err := tokenSvc.ValidateToken(tokenStr)
			if err != nil {
				http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, UserNameKey, userName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
