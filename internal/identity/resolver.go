package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/utils"
)

// Identity is the authenticated actor bound to a request or connection.
type Identity struct {
	ActorID     string   `json:"actorId"`
	DisplayName string   `json:"displayName"`
	TokenID     string   `json:"-"`
	Roles       []string `json:"roles,omitempty"`
}

// RoleAdmin grants the hub administration routes.
const RoleAdmin = "admin"

func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, *app_error.AppError)
}

// JWTResolver verifies RS256 access tokens. When Redis is set, tokens whose
// jti is listed under revoked:<jti> are rejected.
type JWTResolver struct {
	PublicKey *rsa.PublicKey
	Redis     *redis.Client
}

func NewJWTResolver(publicKey *rsa.PublicKey, rdb *redis.Client) *JWTResolver {
	return &JWTResolver{PublicKey: publicKey, Redis: rdb}
}

func RevokedKey(jti string) string {
	return "revoked:" + jti
}

func (r *JWTResolver) Resolve(ctx context.Context, token string) (*Identity, *app_error.AppError) {
	if token == "" {
		return nil, app_error.NewAppError(http.StatusUnauthorized, "missing bearer token", "auth")
	}

	claims, err := utils.ParseAndVerifySign(token, r.PublicKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, app_error.NewAppError(http.StatusUnauthorized, "token expired, please refresh", "auth")
		}
		log.Debug().Err(err).Msg("jwt verify failed")
		return nil, app_error.NewAppError(http.StatusUnauthorized, "invalid token", "auth")
	}

	if r.Redis != nil && claims.ID != "" {
		revoked, err := r.Redis.Exists(ctx, RevokedKey(claims.ID)).Result()
		if err != nil {
			log.Error().Err(err).Msg("failed to check token revocation")
			return nil, app_error.Internal("failed to verify token", "redis")
		}
		if revoked > 0 {
			return nil, app_error.NewAppError(http.StatusUnauthorized, "token revoked", "auth")
		}
	}

	return &Identity{
		ActorID:     claims.Subject,
		DisplayName: claims.Username,
		TokenID:     claims.ID,
		Roles:       claims.Roles,
	}, nil
}

// BearerFromHeader returns the token of an "Authorization: Bearer" header.
func BearerFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// TokenFromRequest looks in the Authorization header, then the token query
// parameter, then the access_token cookie. Browsers cannot set headers on a
// websocket handshake, hence the fallbacks.
func TokenFromRequest(r *http.Request) string {
	if token := BearerFromHeader(r); token != "" {
		return token
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	cookie, err := r.Cookie("access_token")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}
