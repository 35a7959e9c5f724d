package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/vega6/storefront/app/api"
	"github.com/vega6/storefront/models"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// ClaimsFromContext returns the verified claims placed by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// Authenticate resolves the Authorization bearer token into claims and
// stores them on the request context. Requests without a valid token are
// rejected with 401.
func Authenticate(maker *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				api.WriteError(w, api.Unauthenticated("No token provided"))
				return
			}

			fields := strings.Fields(header)
			if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
				api.WriteError(w, api.Unauthenticated("Invalid token format"))
				return
			}

			claims, err := maker.VerifyToken(fields[1])
			if err != nil {
				api.WriteError(w, api.Unauthenticated("Invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects authenticated requests whose role is not in the
// allow-list. Role comparison is case-insensitive.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				api.WriteError(w, api.Unauthenticated("No token provided"))
				return
			}
			role, ok := models.ParseRole(string(claims.Role))
			if !ok || !allowed[role] {
				api.WriteError(w, api.Forbidden("Access denied: you cannot access this route"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
