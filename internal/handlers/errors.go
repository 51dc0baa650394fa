package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/middleware"
	"github.com/joshua-takyi/businessly/internal/models"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrDuplicate):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		// Logged by middleware.ErrorHandler; details stay out of the body.
		_ = c.Error(err)
		requestID, _ := c.Get("request_id")
		c.JSON(status, gin.H{"success": false, "error": "Internal server error", "request_id": requestID})
		return
	}
	c.JSON(status, helpers.ErrorResponse(err.Error()))
}

func mustUser(c *gin.Context) (*helpers.EnhancedClaims, bool) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
		return nil, false
	}
	return claims, true
}

// viewerOf returns the signed-in caller's profile, or nil for anonymous callers.
func viewerOf(c *gin.Context) *models.User {
	if claims, ok := middleware.CurrentUser(c); ok {
		return claims.Profile
	}
	return nil
}

func pathID(c *gin.Context, name string) (string, bool) {
	id := helpers.StringTrim(c.Param(name))
	if id == "" {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(name+" is required"))
		return "", false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if err != nil {
		return def
	}
	return v
}

func queryFloat(c *gin.Context, name string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Query(name)), 64)
	if err != nil {
		return def
	}
	return v
}
