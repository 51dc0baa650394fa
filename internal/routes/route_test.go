package routes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/joshua-takyi/businessly/internal/config"
	"github.com/joshua-takyi/businessly/internal/container"
	"github.com/joshua-takyi/businessly/internal/geo"
	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/models"
	"github.com/joshua-takyi/businessly/internal/ratelimit"
	"github.com/joshua-takyi/businessly/internal/services"
	"github.com/joshua-takyi/businessly/internal/store/memory"
)

var signingKey = []byte("route-test-secret")

type stubAuth struct{}

func (stubAuth) SignUp(ctx context.Context, email, password string) (*types.SignupResponse, error) {
	return &types.SignupResponse{}, nil
}

func (stubAuth) SignIn(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	return nil, models.ErrUnauthorized
}

func (stubAuth) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	return nil, models.ErrUnauthorized
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(ctx context.Context, address, city, province string) (geo.Point, error) {
	return geo.DefaultPoint, nil
}

type testApp struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestApp(t *testing.T, writeLimit int) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	engine := services.NewRecommendationService(store, logger)
	comments := services.NewCommentService(store, store, store, logger)
	c := &container.Container{
		Config: &config.Config{
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
			WriteRateLimit: writeLimit,
		},
		Logger:      logger,
		RedisClient: rdb,
		Users:       store,
		TokenValidator: helpers.NewStaticTokenValidator(func(*jwt.Token) (interface{}, error) {
			return signingKey, nil
		}),
		Limiter:               ratelimit.NewFixedWindowLimiter(rdb),
		AccountService:        services.NewAccountService(stubAuth{}, store, store, stubGeocoder{}, logger),
		BusinessService:       services.NewBusinessService(store, store, store, engine, comments, stubGeocoder{}, logger),
		RecommendationService: engine,
		LedgerService:         services.NewLedgerService(store, store, logger),
		CommentService:        comments,
		SponsoredService:      services.NewSponsoredService(store, store, stubGeocoder{}, logger),
	}
	return &testApp{router: SetupRoutes(c), store: store}
}

func (a *testApp) seedBusiness(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, a.store.CreateBusiness(context.Background(), &models.Business{
		ID:          id,
		Name:        "Business " + id,
		Category:    string(models.CategoryFood),
		Address:     "1 Main St",
		City:        "Markham",
		Province:    "ON",
		PostalCode:  "L6B1A1",
		Description: "test",
		Phone:       "905-555-0100",
		Location:    models.NewGeoPoint(geo.DefaultPoint.Lat, geo.DefaultPoint.Lng),
	}))
}

func (a *testApp) seedUser(t *testing.T, id string, kind models.AccountType) {
	t.Helper()
	require.NoError(t, a.store.CreateUser(context.Background(), &models.User{ID: id, Name: id, Type: kind}))
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &helpers.CustomClaims{
		Email: userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(signingKey)
	require.NoError(t, err)
	return s
}

func (a *testApp) do(t *testing.T, method, path, userID, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: tokenFor(t, userID)})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, 30)
	w, body := app.do(t, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestFeedIsPublic(t *testing.T) {
	app := newTestApp(t, 30)
	app.seedBusiness(t, "b1")
	app.seedBusiness(t, "b2")

	w, body := app.do(t, http.MethodGet, "/api/v1/businesses?distance=5", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	feed := data["feed"].(map[string]any)
	assert.Equal(t, float64(2), feed["total"])
	assert.Equal(t, geo.DefaultLocationLabel, data["location"])

	w, _ = app.do(t, http.MethodGet, "/api/v1/businesses/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedQueryPointOverridesDefault(t *testing.T) {
	app := newTestApp(t, 30)
	app.seedBusiness(t, "markham")

	w, body := app.do(t, http.MethodGet, "/api/v1/businesses?lat=0&lng=0", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	feed := body["data"].(map[string]any)["feed"].(map[string]any)
	assert.Equal(t, float64(0), feed["total"])

	w, body = app.do(t, http.MethodGet, "/api/v1/businesses", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	feed = body["data"].(map[string]any)["feed"].(map[string]any)
	assert.Equal(t, float64(1), feed["total"])
}

func TestBookmarkGuards(t *testing.T) {
	app := newTestApp(t, 30)
	app.seedBusiness(t, "b1")
	app.seedUser(t, "alice", models.AccountStandard)
	app.seedUser(t, "shopkeeper", models.AccountBusiness)

	w, _ := app.do(t, http.MethodPost, "/api/v1/businesses/b1/bookmark", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/v1/businesses/b1/bookmark", "unregistered", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/v1/businesses/b1/bookmark", "shopkeeper", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := app.do(t, http.MethodPost, "/api/v1/businesses/b1/bookmark", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["bookmarked"])

	w, _ = app.do(t, http.MethodPost, "/api/v1/businesses/nope/bookmark", "alice", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRatingAndCommentErrorsMapToStatus(t *testing.T) {
	app := newTestApp(t, 30)
	app.seedBusiness(t, "b1")
	app.seedUser(t, "alice", models.AccountStandard)

	w, _ := app.do(t, http.MethodPost, "/api/v1/businesses/b1/rating", "alice", `{"rating": 7}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/v1/businesses/b1/rating", "alice", `{"rating": 4}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/v1/businesses/b1/comments", "alice", `{"comment": "Great spot"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/v1/businesses/b1/comments", "alice", `{"comment": "Another one"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, body := app.do(t, http.MethodGet, "/api/v1/businesses/b1/comments", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := body["data"].(map[string]any)
	assert.Len(t, page["comments"], 1)
}

func TestWriteRateLimit(t *testing.T) {
	app := newTestApp(t, 2)
	app.seedBusiness(t, "b1")
	app.seedUser(t, "alice", models.AccountStandard)

	for i := 0; i < 2; i++ {
		w, _ := app.do(t, http.MethodPost, "/api/v1/businesses/b1/bookmark", "alice", "")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}
	w, _ := app.do(t, http.MethodPost, "/api/v1/businesses/b1/bookmark", "alice", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Reads are not limited.
	w, _ = app.do(t, http.MethodGet, "/api/v1/businesses/b1", "alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOwnerRoutes(t *testing.T) {
	app := newTestApp(t, 30)
	app.seedBusiness(t, "owner")
	app.seedUser(t, "owner", models.AccountBusiness)
	app.seedUser(t, "alice", models.AccountStandard)

	w, _ := app.do(t, http.MethodGet, "/api/v1/business", "alice", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := app.do(t, http.MethodPost, "/api/v1/business/coupons", "owner",
		`{"name":"Spring","code":"spring","description":"10% off","discount":10,"expiry":"2999-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	coupon := body["data"].(map[string]any)
	assert.Equal(t, "SPRING", coupon["code"])

	w, _ = app.do(t, http.MethodDelete, "/api/v1/business/coupons/"+coupon["id"].(string), "owner", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodDelete, "/api/v1/business/coupons/"+coupon["id"].(string), "owner", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
