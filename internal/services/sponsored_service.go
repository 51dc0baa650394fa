package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/businessly/internal/geo"
	"github.com/joshua-takyi/businessly/internal/geocode"
	"github.com/joshua-takyi/businessly/internal/models"
)

const (
	DefaultSponsoredSize = 3
	MaxSponsoredSize     = 20
)

// SponsoredService draws sponsored picks. They sit outside the ranking.
type SponsoredService struct {
	sponsored  models.SponsoredRepo
	businesses models.BusinessRepo
	geocoder   geocode.Geocoder
	logger     *slog.Logger
}

func NewSponsoredService(sponsored models.SponsoredRepo, businesses models.BusinessRepo, geocoder geocode.Geocoder, logger *slog.Logger) *SponsoredService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SponsoredService{
		sponsored:  sponsored,
		businesses: businesses,
		geocoder:   geocoder,
		logger:     logger,
	}
}

// Sample returns up to n sponsored businesses within maxDistanceKm, resolved
// to their records. Sponsored entries whose business is gone are skipped.
func (ss *SponsoredService) Sample(ctx context.Context, lat, lng, maxDistanceKm float64, n int) ([]*models.Business, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("invalid coordinates: %w", models.ErrValidation)
	}
	if n <= 0 {
		n = DefaultSponsoredSize
	}
	if n > MaxSponsoredSize {
		n = MaxSponsoredSize
	}

	picks, err := ss.sponsored.SampleSponsored(ctx, models.SponsoredQuery{
		Lat:               lat,
		Lng:               lng,
		MaxDistanceMeters: geo.KmToMeters(geo.NormalizeMaxDistanceKm(maxDistanceKm)),
		Size:              n,
	})
	if err != nil {
		return nil, fmt.Errorf("sponsored sample failed: %w", err)
	}

	ids := make([]string, 0, len(picks))
	for _, p := range picks {
		ids = append(ids, p.BusinessID)
	}
	businesses, err := ss.businesses.GetBusinesses(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(businesses) < len(ids) {
		ss.logger.Warn("Sponsored entries reference missing businesses", "sampled", len(ids), "resolved", len(businesses))
	}
	return businesses, nil
}

// Create geocodes the address and stores the business id with that point.
func (ss *SponsoredService) Create(ctx context.Context, businessID string, in LocationInput) (*models.SponsoredBusiness, error) {
	if _, err := ss.businesses.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("address must have street, city and province: %v: %w", err, models.ErrValidation)
	}
	point, err := locateAddress(ctx, ss.geocoder, in.Address, in.City, in.Province)
	if err != nil {
		return nil, err
	}
	sp := &models.SponsoredBusiness{
		BusinessID: businessID,
		Location:   models.NewGeoPoint(point.Lat, point.Lng),
	}
	if err := ss.sponsored.CreateSponsored(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}
