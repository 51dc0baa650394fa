package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/models"
)

const userKey = "user"

type TokenVerifier interface {
	Validate(ctx context.Context, token string) (*helpers.CustomClaims, error)
}

type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

type ProfileLoader interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type Auth struct {
	Verifier  TokenVerifier
	Refresher TokenRefresher
	Profiles  ProfileLoader
	Secure    bool
	Logger    *slog.Logger
}

// Required rejects requests without a valid session with 401.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthorized access",
				"error":   err.Error(),
			})
			return
		}
		c.Set(userKey, claims)
		c.Next()
	}
}

// Optional attaches the caller when a valid session is present and lets
// anonymous requests through.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := a.authenticate(c); err == nil {
			c.Set(userKey, claims)
		}
		c.Next()
	}
}

// authenticate verifies the access token cookie, refreshing it once through
// the identity provider when it has expired, then loads the caller's profile.
func (a *Auth) authenticate(c *gin.Context) (*helpers.EnhancedClaims, error) {
	ctx := c.Request.Context()

	token, _ := c.Cookie(helpers.AccessTokenCookie)
	claims, err := a.Verifier.Validate(ctx, token)
	if err != nil {
		refreshToken, refreshErr := c.Cookie(helpers.RefreshTokenCookie)
		if refreshErr != nil || refreshToken == "" {
			return nil, errors.New("JWT token not found or invalid")
		}

		tokens, refreshErr := a.Refresher.RefreshToken(ctx, refreshToken)
		if refreshErr != nil || tokens == nil || tokens.AccessToken == "" {
			a.Logger.Info("Token refresh failed", "error", refreshErr)
			return nil, errors.New("token expired and refresh failed")
		}
		helpers.SetAuthCookies(c, tokens, a.Secure)
		a.Logger.Debug("Token refreshed", "user_id", tokens.User.ID, "expires_in", tokens.ExpiresIn)

		claims, err = a.Verifier.Validate(ctx, tokens.AccessToken)
		if err != nil {
			return nil, errors.New("refreshed token validation failed")
		}
	}

	enhanced := &helpers.EnhancedClaims{
		CustomClaims: claims,
		UserID:       claims.Subject,
		Email:        claims.Email,
	}
	profile, err := a.Profiles.GetUser(ctx, claims.Subject)
	switch {
	case err == nil:
		enhanced.Profile = profile
	case errors.Is(err, models.ErrNotFound):
		// Signed in but not registered yet.
	default:
		a.Logger.Warn("Profile lookup failed", "user_id", claims.Subject, "error", err)
	}
	return enhanced, nil
}

// RequireAccountType admits only callers whose registered profile has the
// given type. It must run after Required.
func RequireAccountType(kind models.AccountType) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
			return
		}
		if !claims.HasProfile() {
			c.AbortWithStatusJSON(http.StatusForbidden, helpers.ErrorResponse("register a profile first"))
			return
		}
		if claims.AccountType() != kind {
			c.AbortWithStatusJSON(http.StatusForbidden, helpers.ErrorResponse("only "+string(kind)+" accounts can do this"))
			return
		}
		c.Next()
	}
}
