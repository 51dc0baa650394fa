package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/services"
)

// HomeFeed lists nearby businesses ranked for the caller. The reference point
// is the lat/lng query pair when given, else the saved location cookies.
func HomeFeed(b *services.BusinessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		point, label := helpers.LocationFromCookies(c)
		if c.Query("lat") != "" && c.Query("lng") != "" {
			point.Lat = queryFloat(c, "lat", point.Lat)
			point.Lng = queryFloat(c, "lng", point.Lng)
		}

		feed, err := b.HomeFeed(c.Request.Context(), services.FeedParams{
			Location:   &point,
			Page:       queryInt(c, "page", 1),
			Query:      strings.TrimSpace(c.Query("query")),
			Category:   c.Query("category"),
			DistanceKm: queryFloat(c, "distance", 0),
			MinRating:  queryFloat(c, "rating", 0),
			Viewer:     viewerOf(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"feed":     feed,
			"location": label,
		}, ""))
	}
}

func GetBusiness(b *services.BusinessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		detail, err := b.GetBusinessDetail(
			c.Request.Context(),
			id,
			viewerOf(c),
			queryInt(c, "page", 1),
			services.ParseCommentSort(c.Query("sort")),
		)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(detail, ""))
	}
}

// GetOwnBusiness is the owner's dashboard view, coupons included.
func GetOwnBusiness(b *services.BusinessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}
		business, err := b.GetOwnBusiness(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(business, ""))
	}
}

func UpdateBusinessProfile(b *services.BusinessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}

		var in services.BusinessProfileInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request body"))
			return
		}

		business, err := b.UpdateProfile(c.Request.Context(), claims.UserID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(business, "Business profile updated"))
	}
}

func CreateCoupon(b *services.BusinessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}

		var in services.CouponInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request body"))
			return
		}

		coupon, err := b.CreateCoupon(c.Request.Context(), claims.UserID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(coupon, "Coupon created"))
	}
}

func DeleteCoupon(b *services.BusinessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}
		couponID, ok := pathID(c, "coupon_id")
		if !ok {
			return
		}

		if err := b.DeleteCoupon(c.Request.Context(), claims.UserID, couponID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Coupon deleted"))
	}
}
