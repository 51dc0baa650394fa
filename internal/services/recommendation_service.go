package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/joshua-takyi/businessly/internal/geo"
	"github.com/joshua-takyi/businessly/internal/metrics"
	"github.com/joshua-takyi/businessly/internal/models"
)

const (
	HomePageSize = 12

	ratingWeight   = 2.0
	distanceWeight = 0.2
)

type RecommendParams struct {
	Lat           float64
	Lng           float64
	MaxDistanceKm float64
	MinRating     float64
	Categories    []string
	Query         string
	Limit         int
	Offset        int
}

type RecommendationService struct {
	geoIndex models.GeoIndex
	logger   *slog.Logger
}

func NewRecommendationService(geoIndex models.GeoIndex, logger *slog.Logger) *RecommendationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationService{
		geoIndex: geoIndex,
		logger:   logger,
	}
}

// Score ranks a business: rating dominates, bookmarks add log-scale
// popularity and every kilometre costs a fixed 0.2.
func Score(rating float64, bookmarks int64, distanceKm float64) float64 {
	if bookmarks < 0 {
		bookmarks = 0
	}
	return rating*ratingWeight + math.Log(float64(bookmarks)+1) - distanceKm*distanceWeight
}

// Recommend fetches one page of geo candidates and ranks it. total is the
// store's count before the min rating filter, so a page can hold fewer than
// Limit items.
func (rs *RecommendationService) Recommend(ctx context.Context, p RecommendParams) ([]models.RankedBusiness, int64, error) {
	if !geo.ValidCoordinates(p.Lat, p.Lng) {
		return nil, 0, fmt.Errorf("invalid coordinates (%f, %f): %w", p.Lat, p.Lng, models.ErrValidation)
	}
	if p.Limit <= 0 {
		return nil, 0, fmt.Errorf("limit must be positive: %w", models.ErrValidation)
	}
	if p.Offset < 0 {
		return nil, 0, fmt.Errorf("offset cannot be negative: %w", models.ErrValidation)
	}
	for _, c := range p.Categories {
		if !models.IsValidCategory(c) {
			return nil, 0, fmt.Errorf("unknown category %q: %w", c, models.ErrValidation)
		}
	}

	candidates, total, err := rs.geoIndex.FindNear(ctx, models.NearQuery{
		Lat:               p.Lat,
		Lng:               p.Lng,
		MaxDistanceMeters: geo.KmToMeters(geo.NormalizeMaxDistanceKm(p.MaxDistanceKm)),
		Categories:        p.Categories,
		Text:              strings.TrimSpace(p.Query),
		Offset:            p.Offset,
		Limit:             p.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("geo query failed: %w", err)
	}
	metrics.RecordRecommendation(len(candidates))

	ranked := make([]models.RankedBusiness, 0, len(candidates))
	for _, b := range candidates {
		rating := b.AverageRating()
		if rating < p.MinRating {
			continue
		}
		distance := geo.HaversineKm(p.Lat, p.Lng, b.Location.Lat(), b.Location.Lng())
		ranked = append(ranked, models.RankedBusiness{
			Business:   b,
			Rating:     rating,
			DistanceKm: distance,
			Score:      Score(rating, b.BookmarkCount, distance),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	rs.logger.Debug("Recommendation ranked",
		"candidates", len(candidates),
		"returned", len(ranked),
		"total", total,
	)
	return ranked, total, nil
}
