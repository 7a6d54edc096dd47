/**
 * @description
 * Authentication middleware for the reconciliation service's internal API.
 * Callers are other backend services (the bot, admin tooling); they
 * authenticate with an HS256 JWT signed by the shared internal secret.
 */
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// CallerContextKey is the key used to store the caller identity in the
// request context.
const CallerContextKey = contextKey("caller")

// InternalAuthMiddleware validates internal JWTs and injects the caller's
// identity into context.
func InternalAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			caller, ok := claims["sub"].(string)
			if !ok || caller == "" {
				http.Error(w, "Caller identity not found in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), CallerContextKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext retrieves the caller identity from the request context.
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(CallerContextKey).(string)
	return caller, ok
}
