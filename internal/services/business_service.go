package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/businessly/internal/geo"
	"github.com/joshua-takyi/businessly/internal/geocode"
	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/models"
)

const (
	CategoryAll  = "all"
	CategoryNone = "none"
)

// FeedParams drives the home feed. A nil Location means the caller has no
// saved or requested point and the default point is used.
type FeedParams struct {
	Location   *geo.Point
	Page       int
	Query      string
	Category   string
	DistanceKm float64
	MinRating  float64
	Viewer     *models.User
}

type Feed struct {
	Businesses     []models.RankedBusiness `json:"businesses"`
	Page           int                     `json:"page"`
	TotalPages     int                     `json:"total_pages"`
	Total          int64                   `json:"total"`
	Bookmarks      []*models.Business      `json:"bookmarks,omitempty"`
	RecentlyViewed []*models.Business      `json:"recently_viewed,omitempty"`
}

type BusinessDetail struct {
	Business   models.Business `json:"business"`
	Rating     float64         `json:"rating"`
	Comments   *CommentPage    `json:"comments"`
	Bookmarked bool            `json:"bookmarked"`
	UserRating int             `json:"user_rating,omitempty"`
}

type BusinessProfileInput struct {
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=Food Service Shop Health"`
	Address     string `json:"address" validate:"required"`
	City        string `json:"city" validate:"required"`
	Province    string `json:"province" validate:"required"`
	PostalCode  string `json:"postal_code" validate:"required,len=6"`
	Description string `json:"description" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Instagram   string `json:"instagram"`
	Website     string `json:"website"`
}

// Normalize trims every field and applies the postal code format.
func (in *BusinessProfileInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Province = strings.TrimSpace(in.Province)
	in.PostalCode = helpers.NormalizePostalCode(strings.TrimSpace(in.PostalCode))
	in.Description = strings.TrimSpace(in.Description)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Instagram = strings.TrimSpace(in.Instagram)
	in.Website = strings.TrimSpace(in.Website)
}

func (in *BusinessProfileInput) socials() models.Socials {
	var s models.Socials
	if in.Instagram != "" {
		ig := in.Instagram
		s.Instagram = &ig
	}
	if in.Website != "" {
		w := in.Website
		s.Website = &w
	}
	return s
}

type CouponInput struct {
	Name            string `json:"name" validate:"required"`
	Code            string `json:"code" validate:"required"`
	Description     string `json:"description" validate:"required"`
	DiscountPercent int    `json:"discount" validate:"required,min=1,max=100"`
	Expiry          string `json:"expiry" validate:"required"`
}

// BusinessService serves the consumer views of a business and the owner's
// profile and coupon management.
type BusinessService struct {
	businesses models.BusinessRepo
	users      models.UserRepo
	coupons    models.CouponRepo
	engine     *RecommendationService
	comments   *CommentService
	geocoder   geocode.Geocoder
	now        func() time.Time
	logger     *slog.Logger
}

func NewBusinessService(
	businesses models.BusinessRepo,
	users models.UserRepo,
	coupons models.CouponRepo,
	engine *RecommendationService,
	comments *CommentService,
	geocoder geocode.Geocoder,
	logger *slog.Logger,
) *BusinessService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BusinessService{
		businesses: businesses,
		users:      users,
		coupons:    coupons,
		engine:     engine,
		comments:   comments,
		geocoder:   geocoder,
		now:        time.Now,
		logger:     logger,
	}
}

// ResolveCategories maps the feed's category parameter to a filter: a single
// valid category filters on it, "all" disables filtering, and anything else
// falls back to the viewer's saved preferences.
func ResolveCategories(category string, viewer *models.User) []string {
	category = strings.TrimSpace(category)
	switch {
	case category == CategoryAll:
		return nil
	case category != "" && category != CategoryNone:
		return []string{category}
	case viewer != nil && len(viewer.Categories) > 0:
		return append([]string(nil), viewer.Categories...)
	default:
		return nil
	}
}

func (bs *BusinessService) HomeFeed(ctx context.Context, p FeedParams) (*Feed, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	point := geo.DefaultPoint
	if p.Location != nil {
		point = *p.Location
	}

	ranked, total, err := bs.engine.Recommend(ctx, RecommendParams{
		Lat:           point.Lat,
		Lng:           point.Lng,
		MaxDistanceKm: p.DistanceKm,
		MinRating:     p.MinRating,
		Categories:    ResolveCategories(p.Category, p.Viewer),
		Query:         p.Query,
		Limit:         HomePageSize,
		Offset:        (p.Page - 1) * HomePageSize,
	})
	if err != nil {
		return nil, err
	}

	feed := &Feed{
		Businesses: ranked,
		Page:       p.Page,
		TotalPages: helpers.TotalPages(total, HomePageSize),
		Total:      total,
	}
	if p.Viewer != nil {
		if feed.Bookmarks, err = bs.businesses.GetBusinesses(ctx, p.Viewer.Bookmarks); err != nil {
			return nil, fmt.Errorf("error loading bookmarks: %w", err)
		}
		if feed.RecentlyViewed, err = bs.businesses.GetBusinesses(ctx, p.Viewer.RecentlyViewed); err != nil {
			return nil, fmt.Errorf("error loading recently viewed: %w", err)
		}
	}
	return feed, nil
}

// GetBusinessDetail returns the consumer view of a business: expired coupons
// hidden, one page of comments, and the viewer's own bookmark and rating.
// A logged-in viewer also gets the business pushed onto recently viewed.
func (bs *BusinessService) GetBusinessDetail(ctx context.Context, businessID string, viewer *models.User, page int, order CommentSort) (*BusinessDetail, error) {
	business, err := bs.businesses.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID
		if err := bs.users.AddRecentBusiness(ctx, viewer.ID, businessID); err != nil {
			bs.logger.Warn("Failed to record view", "user_id", viewer.ID, "business_id", businessID, "error", err)
		}
	}

	comments, err := bs.comments.PageComments(ctx, business, viewerID, page, CommentsPageSize, order)
	if err != nil {
		return nil, err
	}

	view := *business
	view.Comments = nil
	view.Coupons = business.ActiveCoupons(bs.now())

	detail := &BusinessDetail{
		Business: view,
		Rating:   business.AverageRating(),
		Comments: comments,
	}
	if viewer != nil {
		detail.Bookmarked = viewer.HasBookmarked(businessID)
		detail.UserRating = viewer.Rated[businessID]
	}
	return detail, nil
}

// GetOwnBusiness is the owner's dashboard view and keeps expired coupons.
func (bs *BusinessService) GetOwnBusiness(ctx context.Context, ownerID string) (*models.Business, error) {
	business, err := bs.businesses.GetBusiness(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	business.Comments = nil
	return business, nil
}

// UpdateProfile rewrites the owner's business profile. The address is only
// geocoded again when street, city or province changed.
func (bs *BusinessService) UpdateProfile(ctx context.Context, ownerID string, in BusinessProfileInput) (*models.Business, error) {
	in.Normalize()
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid business profile: %v: %w", err, models.ErrValidation)
	}

	current, err := bs.businesses.GetBusiness(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	location := current.Location
	if in.Address != current.Address || in.City != current.City || in.Province != current.Province {
		point, err := bs.locate(ctx, in.Address, in.City, in.Province)
		if err != nil {
			return nil, err
		}
		location = models.NewGeoPoint(point.Lat, point.Lng)
	}

	update := models.BusinessProfileUpdate{
		Name:        in.Name,
		Category:    in.Category,
		Address:     in.Address,
		City:        in.City,
		Province:    in.Province,
		PostalCode:  in.PostalCode,
		Description: in.Description,
		Phone:       in.Phone,
		Socials:     in.socials(),
		Location:    location,
	}
	if err := bs.businesses.UpdateBusinessProfile(ctx, ownerID, update); err != nil {
		return nil, err
	}
	return bs.GetOwnBusiness(ctx, ownerID)
}

func (bs *BusinessService) CreateCoupon(ctx context.Context, ownerID string, in CouponInput) (*models.Coupon, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Description = strings.TrimSpace(in.Description)
	in.Expiry = strings.TrimSpace(in.Expiry)
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid coupon: %v: %w", err, models.ErrValidation)
	}

	expiry, err := time.ParseInLocation("2006-01-02", in.Expiry, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("expiry must be YYYY-MM-DD: %w", models.ErrValidation)
	}
	if expiry.Before(bs.now().UTC()) {
		return nil, fmt.Errorf("expiry date cannot be in the past: %w", models.ErrValidation)
	}

	coupon := &models.Coupon{
		ID:          newID(),
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Discount:    float64(in.DiscountPercent) / 100,
		Expiry:      expiry,
	}
	if err := bs.coupons.CreateCoupon(ctx, ownerID, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (bs *BusinessService) DeleteCoupon(ctx context.Context, ownerID, couponID string) error {
	if strings.TrimSpace(couponID) == "" {
		return fmt.Errorf("coupon id is required: %w", models.ErrValidation)
	}
	return bs.coupons.DeleteCoupon(ctx, ownerID, couponID)
}

func (bs *BusinessService) locate(ctx context.Context, address, city, province string) (geo.Point, error) {
	return locateAddress(ctx, bs.geocoder, address, city, province)
}

// locateAddress geocodes an address, reporting a miss as a validation error
// and an outage as an external service error.
func locateAddress(ctx context.Context, g geocode.Geocoder, address, city, province string) (geo.Point, error) {
	if g == nil {
		return geo.Point{}, fmt.Errorf("geocoder not configured: %w", models.ErrExternalService)
	}
	point, err := g.Geocode(ctx, address, city, province)
	if err == nil {
		return point, nil
	}
	if errors.Is(err, geocode.ErrAddressNotFound) {
		return geo.Point{}, fmt.Errorf("we couldn't locate %q: %w", address, models.ErrValidation)
	}
	return geo.Point{}, fmt.Errorf("geocoding failed: %v: %w", err, models.ErrExternalService)
}
