package helpers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenValidator verifies Supabase access tokens against the project's JWKS.
// The key set is fetched on first use and refreshed in the background.
type TokenValidator struct {
	jwksURL string

	mu      sync.Mutex
	jwks    *keyfunc.JWKS
	keyFunc jwt.Keyfunc
}

func NewTokenValidator(supabaseURL string) *TokenValidator {
	return &TokenValidator{
		jwksURL: strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json",
	}
}

// NewStaticTokenValidator verifies with a fixed key function instead of a
// remote key set.
func NewStaticTokenValidator(keyFunc jwt.Keyfunc) *TokenValidator {
	return &TokenValidator{keyFunc: keyFunc}
}

func (v *TokenValidator) resolveKeyFunc(ctx context.Context) (jwt.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keyFunc != nil {
		return v.keyFunc, nil
	}

	jwks, err := keyfunc.Get(v.jwksURL, keyfunc.Options{
		Ctx:               context.WithoutCancel(ctx),
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", v.jwksURL, err)
	}
	v.jwks = jwks
	v.keyFunc = jwks.Keyfunc
	return v.keyFunc, nil
}

func (v *TokenValidator) Validate(ctx context.Context, tokenStr string) (*CustomClaims, error) {
	if tokenStr == "" {
		return nil, errors.New("token is empty")
	}
	keyFunc, err := v.resolveKeyFunc(ctx)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, keyFunc)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %v", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (v *TokenValidator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		v.jwks.EndBackground()
		v.jwks = nil
		v.keyFunc = nil
	}
}
