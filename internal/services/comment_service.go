package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/metrics"
	"github.com/joshua-takyi/businessly/internal/models"
)

const (
	CommentCooldown     = 30 * time.Second
	CommentsPageSize    = 10
	MaxCommentsPageSize = 50

	commentInsertAttempts = 3
)

type CommentSort string

const (
	SortNewest      CommentSort = "newest"
	SortMostHelpful CommentSort = "most_helpful"
)

// ParseCommentSort falls back to newest for anything unrecognised.
func ParseCommentSort(s string) CommentSort {
	if CommentSort(s) == SortMostHelpful {
		return SortMostHelpful
	}
	return SortNewest
}

type CommentView struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	AuthorPicture string    `json:"author_picture"`
	Text          string    `json:"comment"`
	Likes         int64     `json:"likes"`
	Liked         bool      `json:"liked"`
	CreatedAt     time.Time `json:"created"`
}

type CommentPage struct {
	Comments   []CommentView `json:"comments"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	Sort       CommentSort   `json:"sort"`
}

type CommentService struct {
	businesses models.BusinessRepo
	users      models.UserRepo
	comments   models.CommentRepo
	censor     func(string) string
	now        func() time.Time
	logger     *slog.Logger
}

type CommentOption func(*CommentService)

// WithClock replaces the wall clock used for timestamps and the cooldown.
func WithClock(now func() time.Time) CommentOption {
	return func(cs *CommentService) { cs.now = now }
}

func WithCensor(censor func(string) string) CommentOption {
	return func(cs *CommentService) { cs.censor = censor }
}

func NewCommentService(businesses models.BusinessRepo, users models.UserRepo, comments models.CommentRepo, logger *slog.Logger, opts ...CommentOption) *CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	cs := &CommentService{
		businesses: businesses,
		users:      users,
		comments:   comments,
		censor:     helpers.CensorText,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// AddComment censors and stores a comment. The author's earlier comments on
// the business are read newest first: the newest one drives the cooldown and
// all of them are checked for a case-insensitive duplicate. The insert is
// conditional on the comments version read, and retried when another writer
// got in first.
func (cs *CommentService) AddComment(ctx context.Context, businessID, authorID, text string) (*models.Comment, error) {
	comment, err := cs.addComment(ctx, businessID, authorID, text)
	metrics.RecordComment(outcomeOf(err))
	return comment, err
}

func (cs *CommentService) addComment(ctx context.Context, businessID, authorID, text string) (*models.Comment, error) {
	if authorID == "" {
		return nil, fmt.Errorf("author is required: %w", models.ErrValidation)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("comment cannot be empty: %w", models.ErrValidation)
	}
	if helpers.CharCount(text) > models.MaxCommentLength {
		return nil, fmt.Errorf("comment exceeds %d characters: %w", models.MaxCommentLength, models.ErrValidation)
	}
	censored := cs.censor(text)
	if helpers.CharCount(censored) > models.MaxCommentLength {
		return nil, fmt.Errorf("comment exceeds %d characters: %w", models.MaxCommentLength, models.ErrValidation)
	}

	for attempt := 0; attempt < commentInsertAttempts; attempt++ {
		business, err := cs.businesses.GetBusiness(ctx, businessID)
		if err != nil {
			return nil, err
		}

		now := cs.now().UTC()
		own := business.CommentsByAuthor(authorID)
		if len(own) > 0 && now.Sub(own[0].CreatedAt.UTC()) < CommentCooldown {
			return nil, fmt.Errorf("last comment %s ago: %w", now.Sub(own[0].CreatedAt.UTC()).Round(time.Second), models.ErrRateLimited)
		}
		for _, c := range own {
			if strings.EqualFold(c.Text, censored) {
				return nil, fmt.Errorf("same text as comment %s: %w", c.ID, models.ErrDuplicate)
			}
		}

		comment := &models.Comment{
			ID:        newID(),
			AuthorID:  authorID,
			Text:      censored,
			Likes:     0,
			LikedBy:   []string{},
			CreatedAt: now,
		}
		inserted, err := cs.comments.InsertComment(ctx, businessID, business.CommentsVersion, comment)
		if err != nil {
			return nil, err
		}
		if inserted {
			return comment, nil
		}
		cs.logger.Debug("Comment insert lost version race, retrying",
			"business_id", businessID,
			"attempt", attempt+1,
		)
	}
	return nil, fmt.Errorf("comment on %s: %w", businessID, models.ErrConflict)
}

func (cs *CommentService) ToggleLike(ctx context.Context, businessID, commentID, userID string) (*models.LikeResult, error) {
	if businessID == "" || commentID == "" || userID == "" {
		return nil, fmt.Errorf("business, comment and user ids are required: %w", models.ErrValidation)
	}
	// The id becomes part of an update path, so only generated ids are accepted.
	if _, err := uuid.Parse(commentID); err != nil {
		return nil, fmt.Errorf("invalid comment id %q: %w", commentID, models.ErrValidation)
	}
	return cs.comments.ToggleCommentLike(ctx, businessID, commentID, userID)
}

// ListComments sorts all comments of a business, cuts one page and resolves
// the authors of that page in a single lookup. Comments whose author is gone
// are dropped from the page; TotalPages still counts them. A pageSize of zero
// or less means CommentsPageSize; larger sizes are capped at MaxCommentsPageSize.
func (cs *CommentService) ListComments(ctx context.Context, businessID, viewerID string, page, pageSize int, order CommentSort) (*CommentPage, error) {
	business, err := cs.businesses.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return cs.PageComments(ctx, business, viewerID, page, pageSize, order)
}

func (cs *CommentService) PageComments(ctx context.Context, business *models.Business, viewerID string, page, pageSize int, order CommentSort) (*CommentPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = CommentsPageSize
	}
	pageSize = min(pageSize, MaxCommentsPageSize)
	order = ParseCommentSort(string(order))

	all := make([]models.Comment, 0, len(business.Comments))
	for _, c := range business.Comments {
		all = append(all, c)
	}
	SortComments(all, order)

	result := &CommentPage{
		Comments:   []CommentView{},
		Page:       page,
		PageSize:   pageSize,
		TotalPages: helpers.TotalPages(int64(len(all)), pageSize),
		Sort:       order,
	}

	start := (page - 1) * pageSize
	if start >= len(all) {
		return result, nil
	}
	end := min(start+pageSize, len(all))
	slice := all[start:end]

	authorIDs := make([]string, 0, len(slice))
	seen := make(map[string]bool, len(slice))
	for _, c := range slice {
		if !seen[c.AuthorID] {
			seen[c.AuthorID] = true
			authorIDs = append(authorIDs, c.AuthorID)
		}
	}
	authors, err := cs.users.GetUsers(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("error resolving comment authors: %w", err)
	}

	for _, c := range slice {
		author, ok := authors[c.AuthorID]
		if !ok {
			continue
		}
		result.Comments = append(result.Comments, CommentView{
			ID:            c.ID,
			AuthorID:      c.AuthorID,
			AuthorName:    author.Name,
			AuthorPicture: author.Picture,
			Text:          c.Text,
			Likes:         c.Likes,
			Liked:         c.LikedByUser(viewerID),
			CreatedAt:     c.CreatedAt,
		})
	}
	return result, nil
}

// SortComments orders by creation time descending, or for most helpful by
// likes descending then newest. Equal keys fall back to id.
func SortComments(comments []models.Comment, order CommentSort) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if order == SortMostHelpful && a.Likes != b.Likes {
			return a.Likes > b.Likes
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
