package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/tair/rfid-textile/pkg/auth"
	"github.com/tair/rfid-textile/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "claims"

// ClaimsFromContext returns the operator identity attached by AuthMiddleware
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// WithClaims attaches an operator identity to ctx
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// AuthMiddleware validates bearer tokens signed by the login service.
// With enabled false every request passes through without an identity.
func AuthMiddleware(secret string, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(r.Context()).Msg("Missing authorization header")
				respondUnauthorized(w, "Authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn(r.Context()).Msg("Invalid authorization header format")
				respondUnauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := auth.ValidateToken(parts[1], secret)
			if err != nil {
				logger.Warn(r.Context()).Err(err).Msg("Invalid token")
				respondUnauthorized(w, "Invalid token")
				return
			}

			logger.Debug(r.Context()).
				Uint("user_id", claims.UserID).
				Str("role", claims.Role).
				Str("chaine_id", claims.ChaineID).
				Msg("Operator authenticated")

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusUnauthorized, Response{
		Success: false,
		Error:   message,
	})
}
