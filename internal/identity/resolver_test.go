package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/utils"
)

func signToken(t *testing.T, key *rsa.PrivateKey, sub, jti string, ttl time.Duration) string {
	t.Helper()
	token, err := utils.GenerateSign(&utils.Claims{
		Username: "display-" + sub,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}, key)
	require.NoError(t, err)
	return token
}

func setup(t *testing.T) (*rsa.PrivateKey, *miniredis.Miniredis, *JWTResolver) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return key, mr, NewJWTResolver(&key.PublicKey, rdb)
}

func TestResolve_ValidToken(t *testing.T) {
	key, _, resolver := setup(t)

	id, appErr := resolver.Resolve(context.Background(), signToken(t, key, "alice", "j1", time.Hour))
	require.Nil(t, appErr)
	assert.Equal(t, "alice", id.ActorID)
	assert.Equal(t, "display-alice", id.DisplayName)
	assert.Equal(t, "j1", id.TokenID)
}

func TestResolve_Rejections(t *testing.T) {
	key, mr, resolver := setup(t)
	require.NoError(t, mr.Set(RevokedKey("revoked-jti"), "1"))

	cases := map[string]string{
		"empty":   "",
		"garbage": "not.a.jwt",
		"expired": signToken(t, key, "alice", "j2", -time.Minute),
		"revoked": signToken(t, key, "alice", "revoked-jti", time.Hour),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, appErr := resolver.Resolve(context.Background(), token)
			require.NotNil(t, appErr)
			assert.True(t, app_error.Is(appErr, app_error.KindUnauthorized))
		})
	}
}

func TestResolve_WithoutRedisSkipsRevocation(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	resolver := NewJWTResolver(&key.PublicKey, nil)

	id, appErr := resolver.Resolve(context.Background(), signToken(t, key, "bob", "j3", time.Hour))
	require.Nil(t, appErr)
	assert.Equal(t, "bob", id.ActorID)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", TokenFromRequest(r))
}

func TestResolve_CarriesRoles(t *testing.T) {
	key, _, resolver := setup(t)
	token, err := utils.GenerateSign(&utils.Claims{
		Username: "ops",
		Roles:    []string{RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ID:        "j-ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, key)
	require.NoError(t, err)

	id, appErr := resolver.Resolve(context.Background(), token)
	require.Nil(t, appErr)
	assert.True(t, id.HasRole(RoleAdmin))

	plain, appErr := resolver.Resolve(context.Background(), signToken(t, key, "alice", "j2", time.Hour))
	require.Nil(t, appErr)
	assert.False(t, plain.HasRole(RoleAdmin))

	var missing *Identity
	assert.False(t, missing.HasRole(RoleAdmin))
}
