package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/businessly/internal/metrics"
	"github.com/joshua-takyi/businessly/internal/models"
)

const (
	MinRating = 1
	MaxRating = 5
)

// LedgerService fronts the bookmark and rating counters.
type LedgerService struct {
	businesses models.BusinessRepo
	ledger     models.LedgerRepo
	logger     *slog.Logger
}

func NewLedgerService(businesses models.BusinessRepo, ledger models.LedgerRepo, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		businesses: businesses,
		ledger:     ledger,
		logger:     logger,
	}
}

func (ls *LedgerService) ToggleBookmark(ctx context.Context, userID, businessID string) (*models.BookmarkResult, error) {
	if userID == "" || businessID == "" {
		return nil, fmt.Errorf("user and business ids are required: %w", models.ErrValidation)
	}
	// The user set is written before the counter; make sure the counter exists.
	if _, err := ls.businesses.GetBusiness(ctx, businessID); err != nil {
		metrics.RecordLedger("bookmark", outcomeOf(err))
		return nil, err
	}

	res, err := ls.ledger.ToggleBookmark(ctx, userID, businessID)
	metrics.RecordLedger("bookmark", outcomeOf(err))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			ls.logger.Error("Bookmark toggle failed", "user_id", userID, "business_id", businessID, "error", err)
		}
		return nil, err
	}
	if !res.Bookmarked && res.BookmarkCount == 0 {
		ls.logger.Debug("Bookmark counter at floor", "business_id", businessID)
	}
	return res, nil
}

func (ls *LedgerService) RateBusiness(ctx context.Context, userID, businessID string, rating int) (*models.RatingResult, error) {
	if rating < MinRating || rating > MaxRating {
		metrics.RecordLedger("rating", outcomeOf(models.ErrValidation))
		return nil, fmt.Errorf("rating must be between %d and %d: %w", MinRating, MaxRating, models.ErrValidation)
	}
	if userID == "" || businessID == "" {
		return nil, fmt.Errorf("user and business ids are required: %w", models.ErrValidation)
	}
	if _, err := ls.businesses.GetBusiness(ctx, businessID); err != nil {
		metrics.RecordLedger("rating", outcomeOf(err))
		return nil, err
	}

	res, err := ls.ledger.RateBusiness(ctx, userID, businessID, rating)
	metrics.RecordLedger("rating", outcomeOf(err))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			ls.logger.Error("Rating failed", "user_id", userID, "business_id", businessID, "error", err)
		}
		return nil, err
	}
	return res, nil
}

// outcomeOf classifies an error for metric labels.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	case errors.Is(err, models.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, models.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
