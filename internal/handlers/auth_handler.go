package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/services"
)

func SignUp(a *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.CredentialsInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request body"))
			return
		}

		res, err := a.SignUp(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, helpers.SuccessResponse(gin.H{
			"id":    res.ID,
			"email": res.Email,
		}, "Check your inbox to confirm your email"))
	}
}

func Login(a *services.AccountService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.CredentialsInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request body"))
			return
		}

		tokens, err := a.Login(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		helpers.SetAuthCookies(c, tokens, secure)

		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"id":         tokens.User.ID,
			"email":      tokens.User.Email,
			"expires_in": tokens.ExpiresIn,
		}, "Logged in successfully"))
	}
}

func Refresh(a *services.AccountService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, _ := c.Cookie(helpers.RefreshTokenCookie)
		tokens, err := a.RefreshToken(c.Request.Context(), refreshToken)
		if err != nil {
			respondError(c, err)
			return
		}
		helpers.SetAuthCookies(c, tokens, secure)
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"expires_in": tokens.ExpiresIn}, "Session refreshed"))
	}
}

// Logout clears the session cookies. The saved location is kept.
func Logout(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		helpers.ClearAuthCookies(c, secure)
		c.JSON(http.StatusOK, gin.H{
			"message": "Logged out successfully",
		})
	}
}
