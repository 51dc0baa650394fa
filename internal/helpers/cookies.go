package helpers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/joshua-takyi/businessly/internal/geo"
)

const (
	LatCookie      = "user_lat"
	LngCookie      = "user_lng"
	LocationCookie = "user_location"

	locationMaxAge = 3600 * 24 * 365
)

// SetAuthCookies stores the provider's tokens as http-only cookies.
func SetAuthCookies(c *gin.Context, tokens *types.TokenResponse, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, tokens.AccessToken, tokens.ExpiresIn, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, tokens.RefreshToken, RefreshTokenMaxAge, "/", "", secure, true)
}

func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}

func SetLocationCookies(c *gin.Context, p geo.Point, label string, secure bool) {
	c.SetCookie(LatCookie, strconv.FormatFloat(p.Lat, 'f', -1, 64), locationMaxAge, "/", "", secure, false)
	c.SetCookie(LngCookie, strconv.FormatFloat(p.Lng, 'f', -1, 64), locationMaxAge, "/", "", secure, false)
	c.SetCookie(LocationCookie, label, locationMaxAge, "/", "", secure, false)
}

// LocationFromCookies returns the caller's saved point, or the default point
// when the cookies are missing or malformed.
func LocationFromCookies(c *gin.Context) (geo.Point, string) {
	latStr, errLat := c.Cookie(LatCookie)
	lngStr, errLng := c.Cookie(LngCookie)
	if errLat != nil || errLng != nil {
		return geo.DefaultPoint, geo.DefaultLocationLabel
	}
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil || !geo.ValidCoordinates(lat, lng) {
		return geo.DefaultPoint, geo.DefaultLocationLabel
	}
	label, err := c.Cookie(LocationCookie)
	if err != nil || label == "" {
		label = geo.DefaultLocationLabel
	}
	return geo.Point{Lat: lat, Lng: lng}, label
}
