package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/services"
)

type rateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

func ToggleBookmark(l *services.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}
		businessID, ok := pathID(c, "id")
		if !ok {
			return
		}

		res, err := l.ToggleBookmark(c.Request.Context(), claims.UserID, businessID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(res, ""))
	}
}

func RateBusiness(l *services.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}
		businessID, ok := pathID(c, "id")
		if !ok {
			return
		}

		var req rateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("rating is required"))
			return
		}

		res, err := l.RateBusiness(c.Request.Context(), claims.UserID, businessID, req.Rating)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(res, "Rating saved"))
	}
}
