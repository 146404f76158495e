package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicportal/pkg/types"

	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorFromToken(t *testing.T) {
	token, err := jwt.NewBuilder().
		Subject("user-123").
		Claim("email", "clerk@example.com").
		Claim("cognito:groups", []any{"staff", "admin"}).
		Build()
	require.NoError(t, err)

	actor, err := actorFromToken(token, "cognito:groups", "admin")
	require.NoError(t, err)
	assert.Equal(t, &types.Actor{ID: "user-123", Email: "clerk@example.com", Role: types.RoleAdmin}, actor)

	actor, err = actorFromToken(token, "cognito:groups", "registrar")
	require.NoError(t, err)
	assert.Equal(t, types.RoleResident, actor.Role)
}

func TestActorFromTokenWithoutSubject(t *testing.T) {
	token, err := jwt.NewBuilder().Claim("email", "x@example.com").Build()
	require.NoError(t, err)

	_, err = actorFromToken(token, "groups", "admin")
	assert.Error(t, err)
}

func TestHasGroup(t *testing.T) {
	assert.True(t, hasGroup("admin", "admin"))
	assert.True(t, hasGroup([]string{"a", "admin"}, "admin"))
	assert.True(t, hasGroup([]any{"admin"}, "admin"))
	assert.False(t, hasGroup([]any{1, "staff"}, "admin"))
	assert.False(t, hasGroup(nil, "admin"))
}

func TestAccessTokenSources(t *testing.T) {
	hashKey := securecookie.GenerateRandomKey(32)
	a := &JWTAuthenticator{
		cookie:     securecookie.New(hashKey, nil),
		cookieName: "session_id",
	}

	r := httptest.NewRequest(http.MethodGet, "/documents", nil)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, err := a.accessToken(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	r = httptest.NewRequest(http.MethodGet, "/documents", nil)
	r.Header.Set("Authorization", "Basic dXNlcg==")
	_, err = a.accessToken(r)
	assert.Error(t, err)

	encoded, err := a.cookie.Encode("session_id", "cookie.jwt.value")
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodGet, "/documents", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: encoded})
	token, err = a.accessToken(r)
	require.NoError(t, err)
	assert.Equal(t, "cookie.jwt.value", token)

	r = httptest.NewRequest(http.MethodGet, "/documents", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "tampered"})
	_, err = a.accessToken(r)
	assert.Error(t, err)

	r = httptest.NewRequest(http.MethodGet, "/documents", nil)
	_, err = a.accessToken(r)
	assert.ErrorIs(t, err, errNoToken)
}

func TestNewJWTAuthenticatorRejectsBadCookieKeys(t *testing.T) {
	validBlock := base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))

	tests := []struct {
		name      string
		hashKey   string
		blockKey  string
		wantError string
	}{
		{name: "hash key not base64", hashKey: "not*base64", blockKey: validBlock, wantError: "COOKIE_HASH_KEY"},
		{name: "block key not base64", hashKey: validBlock, blockKey: "not*base64", wantError: "COOKIE_BLOCK_KEY"},
		{name: "block key wrong size", hashKey: validBlock, blockKey: base64.StdEncoding.EncodeToString([]byte("short")), wantError: "COOKIE_BLOCK_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTAuthenticator(context.Background(), &types.Config{
				AuthIssuerURL:  "http://127.0.0.1:0",
				CookieHashKey:  tt.hashKey,
				CookieBlockKey: tt.blockKey,
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}

func TestNewSecureCookieRoundTrip(t *testing.T) {
	cookie, err := newSecureCookie(&types.Config{
		CookieHashKey:  base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(64)),
		CookieBlockKey: base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)),
	})
	require.NoError(t, err)

	encoded, err := cookie.Encode("session_id", "token")
	require.NoError(t, err)

	var decoded string
	require.NoError(t, cookie.Decode("session_id", encoded, &decoded))
	assert.Equal(t, "token", decoded)
}
