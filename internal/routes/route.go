package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/businessly/internal/container"
	"github.com/joshua-takyi/businessly/internal/handlers"
	"github.com/joshua-takyi/businessly/internal/metrics"
	"github.com/joshua-takyi/businessly/internal/middleware"
	"github.com/joshua-takyi/businessly/internal/models"
)

const writeWindow = time.Minute

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	secure := c.Config.IsProduction()

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     c.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := &middleware.Auth{
		Verifier:  c.TokenValidator,
		Refresher: c.AccountService,
		Profiles:  c.Users,
		Secure:    secure,
		Logger:    c.Logger,
	}
	limit := middleware.RateLimit(c.Limiter, c.Config.WriteRateLimit, writeWindow, c.Logger)

	v1 := r.Group("/api/v1")
	v1.GET("/health", health(c))

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/signup", limit, handlers.SignUp(c.AccountService))
		authRoutes.POST("/login", limit, handlers.Login(c.AccountService, secure))
		authRoutes.POST("/refresh", handlers.Refresh(c.AccountService, secure))
		authRoutes.POST("/logout", handlers.Logout(secure))
	}

	v1.GET("/location", handlers.GetLocation())
	v1.POST("/location", limit, handlers.SetLocation(c.AccountService, secure))
	v1.GET("/sponsored", handlers.SampleSponsored(c.SponsoredService))

	public := v1.Group("/")
	public.Use(auth.Optional())
	{
		public.GET("/businesses", handlers.HomeFeed(c.BusinessService))
		public.GET("/businesses/:id", handlers.GetBusiness(c.BusinessService))
		public.GET("/businesses/:id/comments", handlers.ListComments(c.CommentService))
	}

	protected := v1.Group("/")
	protected.Use(auth.Required())
	{
		protected.GET("/profile", handlers.GetProfile(c.AccountService))
		protected.POST("/profile", limit, handlers.RegisterProfile(c.AccountService))
	}

	standard := protected.Group("/")
	standard.Use(middleware.RequireAccountType(models.AccountStandard), limit)
	{
		standard.PATCH("/profile", handlers.UpdateStandardProfile(c.AccountService))
		standard.POST("/businesses/:id/bookmark", handlers.ToggleBookmark(c.LedgerService))
		standard.POST("/businesses/:id/rating", handlers.RateBusiness(c.LedgerService))
		standard.POST("/businesses/:id/comments", handlers.AddComment(c.CommentService))
		standard.POST("/businesses/:id/comments/:comment_id/like", handlers.ToggleCommentLike(c.CommentService))
	}

	owner := protected.Group("/business")
	owner.Use(middleware.RequireAccountType(models.AccountBusiness))
	{
		owner.GET("", handlers.GetOwnBusiness(c.BusinessService))
		owner.PUT("", limit, handlers.UpdateBusinessProfile(c.BusinessService))
		owner.POST("/coupons", limit, handlers.CreateCoupon(c.BusinessService))
		owner.DELETE("/coupons/:coupon_id", limit, handlers.DeleteCoupon(c.BusinessService))
		owner.POST("/sponsored", limit, handlers.CreateSponsored(c.SponsoredService))
	}

	return r
}

func health(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		deps := gin.H{}
		healthy := true
		if c.MongoDBClient != nil {
			err := c.MongoDBClient.Ping(checkCtx, nil)
			metrics.SetDependencyHealth("mongodb", err == nil)
			deps["mongodb"] = err == nil
			healthy = healthy && err == nil
		}
		if c.RedisClient != nil {
			err := c.RedisClient.Ping(checkCtx).Err()
			metrics.SetDependencyHealth("redis", err == nil)
			// Redis only backs the limiter, which fails open.
			deps["redis"] = err == nil
		}

		status := http.StatusOK
		state := "OK"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "DEGRADED"
		}
		ctx.JSON(status, gin.H{
			"status":       state,
			"service":      "businessly-api",
			"dependencies": deps,
		})
	}
}
