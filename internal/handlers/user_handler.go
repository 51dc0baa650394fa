package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/services"
)

// RegisterProfile completes signup by choosing a standard or business account.
func RegisterProfile(a *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}
		if claims.HasProfile() {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("profile already registered"))
			return
		}

		var in services.RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request body"))
			return
		}

		user, business, err := a.RegisterProfile(c.Request.Context(), claims.UserID, claims.Email, in)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, helpers.SuccessResponse(gin.H{
			"user":     user,
			"business": business,
		}, "Profile created"))
	}
}

func GetProfile(a *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}
		user, err := a.GetProfile(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(user, ""))
	}
}

func UpdateStandardProfile(a *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}

		var in services.StandardProfileInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request body"))
			return
		}

		user, err := a.UpdateStandardProfile(c.Request.Context(), claims.UserID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(user, "Profile updated"))
	}
}

// SetLocation geocodes an address and remembers it in cookies for the feed.
func SetLocation(a *services.AccountService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.LocationInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request body"))
			return
		}

		loc, err := a.SetLocation(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		helpers.SetLocationCookies(c, loc.Point, loc.Label, secure)
		c.JSON(http.StatusOK, helpers.SuccessResponse(loc, "Location updated"))
	}
}

func GetLocation() gin.HandlerFunc {
	return func(c *gin.Context) {
		point, label := helpers.LocationFromCookies(c)
		c.JSON(http.StatusOK, helpers.SuccessResponse(services.Location{Point: point, Label: label}, ""))
	}
}
