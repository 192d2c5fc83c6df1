package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/identity"
)

type claimsKey string

const UserClaimsKey claimsKey = "userClaims"

// JWTAuth resolves the bearer token of every request and stores the
// identity in the request context.
func JWTAuth(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := identity.BearerFromHeader(r)
			if token == "" {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Missing Authorization header", "auth"))
				return
			}

			ident, appErr := resolver.Resolve(r.Context(), token)
			if appErr != nil {
				log.Debug().Str("reason", appErr.Message).Msg("jwt verify failed")
				writeAppError(w, appErr)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects identities without role. It must run after JWTAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := ActorFromContext(r.Context())
			if !ok {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "user id is not found in context", "auth"))
				return
			}
			if !ident.HasRole(role) {
				log.Warn().Str("actor_id", ident.ActorID).Str("role", role).Str("path", r.URL.Path).Msg("role required")
				writeAppError(w, app_error.Forbidden("insufficient role", "role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorFromContext returns the identity stored by JWTAuth.
func ActorFromContext(ctx context.Context) (*identity.Identity, bool) {
	ident, ok := ctx.Value(UserClaimsKey).(*identity.Identity)
	return ident, ok && ident != nil
}

func writeAppError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = appErr.JSON(w)
}
