package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/services"
)

func SampleSponsored(s *services.SponsoredService) gin.HandlerFunc {
	return func(c *gin.Context) {
		point, _ := helpers.LocationFromCookies(c)
		if c.Query("lat") != "" && c.Query("lng") != "" {
			point.Lat = queryFloat(c, "lat", point.Lat)
			point.Lng = queryFloat(c, "lng", point.Lng)
		}

		picks, err := s.Sample(
			c.Request.Context(),
			point.Lat,
			point.Lng,
			queryFloat(c, "distance", 0),
			queryInt(c, "n", services.DefaultSponsoredSize),
		)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(picks, ""))
	}
}

// CreateSponsored places the caller's business at a sponsored address.
func CreateSponsored(s *services.SponsoredService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}

		var in services.LocationInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request body"))
			return
		}

		sp, err := s.Create(c.Request.Context(), claims.UserID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(sp, "Sponsored placement created"))
	}
}
