package container

import (
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/joshua-takyi/businessly/internal/config"
	"github.com/joshua-takyi/businessly/internal/geocode"
	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/models"
	"github.com/joshua-takyi/businessly/internal/ratelimit"
	"github.com/joshua-takyi/businessly/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	RedisClient    *goredis.Client

	Mongo          *models.MongodbRepo
	Users          models.UserRepo
	TokenValidator *helpers.TokenValidator
	Limiter        *ratelimit.FixedWindowLimiter

	AccountService        *services.AccountService
	BusinessService       *services.BusinessService
	RecommendationService *services.RecommendationService
	LedgerService         *services.LedgerService
	CommentService        *services.CommentService
	SponsoredService      *services.SponsoredService
}

// NewContainer wires repositories and services. redisClient may be nil.
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
	redisClient *goredis.Client,
) *Container {
	supa := models.SupabaseNewRepo(supabaseClient)
	mongoRepo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase, cfg.MongoDBTransactions)

	geocoder := geocode.NewNominatim(geocode.Config{
		URL:       cfg.GeocoderURL,
		UserAgent: cfg.GeocoderUserAgent,
		Timeout:   cfg.GeocoderTimeout,
	}, logger)

	engine := services.NewRecommendationService(mongoRepo, logger)
	comments := services.NewCommentService(mongoRepo, mongoRepo, mongoRepo, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		SupabaseClient: supabaseClient,
		MongoDBClient:  mongoDBClient,
		RedisClient:    redisClient,
		Mongo:          mongoRepo,
		Users:          mongoRepo,
		TokenValidator: helpers.NewTokenValidator(cfg.SupabaseURL),
		Limiter:        ratelimit.NewFixedWindowLimiter(redisClient),

		AccountService:        services.NewAccountService(supa, mongoRepo, mongoRepo, geocoder, logger),
		BusinessService:       services.NewBusinessService(mongoRepo, mongoRepo, mongoRepo, engine, comments, geocoder, logger),
		RecommendationService: engine,
		LedgerService:         services.NewLedgerService(mongoRepo, mongoRepo, logger),
		CommentService:        comments,
		SponsoredService:      services.NewSponsoredService(mongoRepo, mongoRepo, geocoder, logger),
	}
}
