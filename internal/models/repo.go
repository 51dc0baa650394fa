package models

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

const (
	DefaultDbName     = "businessly"
	UsersColName      = "users"
	BusinessesColName = "business_profiles"
	SponsoredColName  = "sponsored_businesses"
)

// GeoIndex answers bounded nearest-neighbour queries over businesses.
// total counts every match of the geo, category and text filters and is
// independent of Offset/Limit.
type GeoIndex interface {
	FindNear(ctx context.Context, q NearQuery) ([]Business, int64, error)
}

type BusinessRepo interface {
	GeoIndex
	CreateBusiness(ctx context.Context, business *Business) error
	GetBusiness(ctx context.Context, id string) (*Business, error)
	GetBusinesses(ctx context.Context, ids []string) ([]*Business, error)
	UpdateBusinessProfile(ctx context.Context, id string, update BusinessProfileUpdate) error
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]*User, error)
	UpdateStandardProfile(ctx context.Context, id, name string, categories []string) error
	AddRecentBusiness(ctx context.Context, userID, businessID string) error
}

// LedgerRepo owns the bookmark and rating counters. Each step is a single
// document atomic update; see DESIGN.md for the cross-document window.
type LedgerRepo interface {
	ToggleBookmark(ctx context.Context, userID, businessID string) (*BookmarkResult, error)
	RateBusiness(ctx context.Context, userID, businessID string, rating int) (*RatingResult, error)
}

type CommentRepo interface {
	// InsertComment stores the comment only if the business comments version
	// still equals expectedVersion. It reports false when another writer won.
	InsertComment(ctx context.Context, businessID string, expectedVersion int64, comment *Comment) (bool, error)
	ToggleCommentLike(ctx context.Context, businessID, commentID, userID string) (*LikeResult, error)
}

type CouponRepo interface {
	CreateCoupon(ctx context.Context, businessID string, coupon *Coupon) error
	DeleteCoupon(ctx context.Context, businessID, couponID string) error
}

type SponsoredRepo interface {
	CreateSponsored(ctx context.Context, sponsored *SponsoredBusiness) error
	SampleSponsored(ctx context.Context, q SponsoredQuery) ([]SponsoredBusiness, error)
}

// AuthRepo is the identity provider used for signup, login and refresh.
type AuthRepo interface {
	SignUp(ctx context.Context, email, password string) (*types.SignupResponse, error)
	SignIn(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

var (
	_ AuthRepo      = (*SupabaseRepo)(nil)
	_ BusinessRepo  = (*MongodbRepo)(nil)
	_ UserRepo      = (*MongodbRepo)(nil)
	_ LedgerRepo    = (*MongodbRepo)(nil)
	_ CommentRepo   = (*MongodbRepo)(nil)
	_ CouponRepo    = (*MongodbRepo)(nil)
	_ SponsoredRepo = (*MongodbRepo)(nil)
)

type SupabaseRepo struct {
	supabaseClient *supabase.Client
}

func SupabaseNewRepo(supabaseClient *supabase.Client) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
	}
}

type MongodbRepo struct {
	mongodbClient   *mongo.Client
	dbName          string
	useTransactions bool
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string, useTransactions bool) *MongodbRepo {
	if dbName == "" {
		dbName = DefaultDbName
	}
	return &MongodbRepo{
		mongodbClient:   mongodbClient,
		dbName:          dbName,
		useTransactions: useTransactions,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

// withTransaction runs fn inside a multi-document transaction when enabled,
// otherwise it runs fn directly and each step stays a single-document update.
func (mdb *MongodbRepo) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !mdb.useTransactions {
		return fn(ctx)
	}

	sess, err := mdb.mongodbClient.StartSession()
	if err != nil {
		return fmt.Errorf("error starting session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
