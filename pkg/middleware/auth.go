package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Dias221467/Wishlist_Manager/pkg/jwt"
	"github.com/Dias221467/Wishlist_Manager/pkg/response"
	"github.com/sirupsen/logrus"
)

type contextKey string

// UserContextKey is the request context key holding *jwt.Claims.
const UserContextKey contextKey = "user"

const (
	msgTokenMissing = "Authorization token not provided"
	msgTokenExpired = "Token expired. Please log in again."
	msgTokenInvalid = "Invalid or expired token"
)

// AuthMiddleware rejects requests without a valid bearer token and stores
// the verified claims in the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				response.Error(w, http.StatusUnauthorized, msgTokenMissing)
				return
			}

			claims, err := jwt.ValidateToken(token, secret)
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Error(w, http.StatusUnauthorized, msgTokenExpired)
				return
			}
			if err != nil || claims.UserID == "" {
				logrus.WithError(err).WithField("path", r.URL.Path).Warn("Rejected token")
				response.Error(w, http.StatusUnauthorized, msgTokenInvalid)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the claims stored by AuthMiddleware, or nil.
func GetUserFromContext(ctx context.Context) *jwt.Claims {
	claims, _ := ctx.Value(UserContextKey).(*jwt.Claims)
	return claims
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
