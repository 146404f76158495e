package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"civicportal/pkg/types"

	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var errNoToken = errors.New("no access token presented")

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*types.Actor, error)
}

// JWTAuthenticator verifies access tokens issued by the identity provider
// against its published key set. The token is read from a Bearer header or
// from the encrypted session cookie.
type JWTAuthenticator struct {
	jwksCache   *jwk.Cache
	jwksURL     string
	cookie      *securecookie.SecureCookie
	cookieName  string
	groupsClaim string
	adminGroup  string
}

func NewJWTAuthenticator(ctx context.Context, config *types.Config) (*JWTAuthenticator, error) {
	if config.AuthIssuerURL == "" {
		return nil, fmt.Errorf("set AUTH_ISSUER_URL")
	}

	cookie, err := newSecureCookie(config)
	if err != nil {
		return nil, err
	}

	jwkCache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", strings.TrimSuffix(config.AuthIssuerURL, "/"))

	err = jwkCache.Register(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to register jwks url with cache: %w", err)
	}

	return &JWTAuthenticator{
		jwksCache:   jwkCache,
		jwksURL:     jwksURL,
		cookie:      cookie,
		cookieName:  config.CookieName,
		groupsClaim: config.AuthGroupsClaim,
		adminGroup:  config.AuthAdminGroup,
	}, nil
}

func newSecureCookie(config *types.Config) (*securecookie.SecureCookie, error) {
	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_HASH_KEY: %w", err)
	}

	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_BLOCK_KEY: %w", err)
	}

	switch len(blockKey) {
	case 0:
		blockKey = nil
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("COOKIE_BLOCK_KEY must decode to 16, 24 or 32 bytes, got %d", len(blockKey))
	}

	return securecookie.New(hashKey, blockKey), nil
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (*types.Actor, error) {
	raw, err := a.accessToken(r)
	if err != nil {
		return nil, err
	}

	set, err := a.jwksCache.Lookup(r.Context(), a.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, fmt.Errorf("parse jwt: %w", err)
	}

	return actorFromToken(token, a.groupsClaim, a.adminGroup)
}

func (a *JWTAuthenticator) accessToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", fmt.Errorf("malformed authorization header")
		}
		return strings.TrimSpace(token), nil
	}

	cookie, err := r.Cookie(a.cookieName)
	if err != nil {
		return "", errNoToken
	}

	var accessToken string
	err = a.cookie.Decode(a.cookieName, cookie.Value, &accessToken)
	if err != nil {
		return "", fmt.Errorf("decode session cookie: %w", err)
	}

	return accessToken, nil
}

// actorFromToken maps verified claims to an Actor. Membership of adminGroup
// in groupsClaim grants the admin role.
func actorFromToken(token jwt.Token, groupsClaim, adminGroup string) (*types.Actor, error) {
	userID, ok := token.Subject()
	if !ok || userID == "" {
		return nil, fmt.Errorf("no user id in jwt subject claim")
	}

	actor := &types.Actor{ID: userID, Role: types.RoleResident}

	// email is optional
	var email string
	if err := token.Get("email", &email); err == nil {
		actor.Email = email
	}

	var groups any
	if err := token.Get(groupsClaim, &groups); err == nil && hasGroup(groups, adminGroup) {
		actor.Role = types.RoleAdmin
	}

	return actor, nil
}

func hasGroup(claim any, group string) bool {
	switch v := claim.(type) {
	case string:
		return v == group
	case []string:
		for _, g := range v {
			if g == group {
				return true
			}
		}
	case []any:
		for _, g := range v {
			if s, ok := g.(string); ok && s == group {
				return true
			}
		}
	}
	return false
}
