package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/joshua-takyi/businessly/internal/geo"
	"github.com/joshua-takyi/businessly/internal/models"
)

// Store is an in-memory implementation of every repository interface. It holds
// one lock for all aggregates, so each method is linearizable the way a single
// document update is in MongoDB.
type Store struct {
	mu sync.RWMutex

	businesses    map[string]*models.Business
	businessOrder []string
	users         map[string]*models.User
	sponsored     map[string]models.SponsoredBusiness

	rnd *rand.Rand
}

var (
	_ models.BusinessRepo  = (*Store)(nil)
	_ models.UserRepo      = (*Store)(nil)
	_ models.LedgerRepo    = (*Store)(nil)
	_ models.CommentRepo   = (*Store)(nil)
	_ models.CouponRepo    = (*Store)(nil)
	_ models.SponsoredRepo = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		businesses: make(map[string]*models.Business),
		users:      make(map[string]*models.User),
		sponsored:  make(map[string]models.SponsoredBusiness),
		rnd:        rand.New(rand.NewSource(1)),
	}
}

func (s *Store) CreateBusiness(ctx context.Context, business *models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if business.ID == "" {
		return fmt.Errorf("business id is required: %w", models.ErrValidation)
	}
	if _, exists := s.businesses[business.ID]; exists {
		return fmt.Errorf("business %s already exists: %w", business.ID, models.ErrValidation)
	}
	b := cloneBusiness(business)
	if b.Comments == nil {
		b.Comments = map[string]models.Comment{}
	}
	if b.Coupons == nil {
		b.Coupons = map[string]models.Coupon{}
	}
	s.businesses[b.ID] = b
	s.businessOrder = append(s.businessOrder, b.ID)
	return nil
}

func (s *Store) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.businesses[id]
	if !ok {
		return nil, fmt.Errorf("business %s: %w", id, models.ErrNotFound)
	}
	return cloneBusiness(b), nil
}

func (s *Store) GetBusinesses(ctx context.Context, ids []string) ([]*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Business, 0, len(ids))
	for _, id := range ids {
		if b, ok := s.businesses[id]; ok {
			c := cloneBusiness(b)
			c.Comments = nil
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) UpdateBusinessProfile(ctx context.Context, id string, update models.BusinessProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.businesses[id]
	if !ok {
		return fmt.Errorf("business %s: %w", id, models.ErrNotFound)
	}
	b.Name = update.Name
	b.Category = update.Category
	b.Address = update.Address
	b.City = update.City
	b.Province = update.Province
	b.PostalCode = update.PostalCode
	b.Description = update.Description
	b.Phone = update.Phone
	b.Socials = update.Socials
	b.Location = models.NewGeoPoint(update.Location.Lat(), update.Location.Lng())
	return nil
}

// FindNear mirrors the $geoNear pipeline: distance ascending, insertion order
// among equal distances, filters applied before counting.
func (s *Store) FindNear(ctx context.Context, q models.NearQuery) ([]models.Business, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		b      *models.Business
		meters float64
	}

	categories := make(map[string]bool, len(q.Categories))
	for _, c := range q.Categories {
		categories[c] = true
	}
	text := strings.ToLower(q.Text)

	var hits []hit
	for _, id := range s.businessOrder {
		b := s.businesses[id]
		meters := geo.HaversineKm(q.Lat, q.Lng, b.Location.Lat(), b.Location.Lng()) * 1000
		if meters > float64(q.MaxDistanceMeters) {
			continue
		}
		if len(categories) > 0 && !categories[b.Category] {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(b.Name), text) &&
			!strings.Contains(strings.ToLower(b.Description), text) {
			continue
		}
		hits = append(hits, hit{b: b, meters: meters})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].meters < hits[j].meters })

	total := int64(len(hits))
	items := []models.Business{}
	if q.Offset < 0 || q.Offset >= len(hits) || q.Limit <= 0 {
		return items, total, nil
	}
	end := q.Offset + q.Limit
	if end > len(hits) {
		end = len(hits)
	}
	for _, h := range hits[q.Offset:end] {
		c := cloneBusiness(h.b)
		c.Comments = nil
		items = append(items, *c)
	}
	return items, total, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("profile already exists: %w", models.ErrValidation)
	}
	u := cloneUser(user)
	u.Normalize()
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func (s *Store) UpdateStandardProfile(ctx context.Context, id, name string, categories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || !u.IsStandard() {
		return fmt.Errorf("standard user %s: %w", id, models.ErrNotFound)
	}
	if strings.TrimSpace(name) != "" {
		u.Name = strings.TrimSpace(name)
	}
	u.Categories = append([]string{}, categories...)
	return nil
}

func (s *Store) AddRecentBusiness(ctx context.Context, userID, businessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	u.RecentlyViewed = models.PushRecent(u.RecentlyViewed, businessID, models.MaxRecentlyViewed)
	return nil
}

func (s *Store) ToggleBookmark(ctx context.Context, userID, businessID string) (*models.BookmarkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	b, ok := s.businesses[businessID]
	if !ok {
		return nil, fmt.Errorf("business %s: %w", businessID, models.ErrNotFound)
	}

	if u.HasBookmarked(businessID) {
		kept := u.Bookmarks[:0]
		for _, id := range u.Bookmarks {
			if id != businessID {
				kept = append(kept, id)
			}
		}
		u.Bookmarks = kept
		if b.BookmarkCount > 0 {
			b.BookmarkCount--
		}
		return &models.BookmarkResult{Bookmarked: false, BookmarkCount: b.BookmarkCount}, nil
	}

	u.Bookmarks = append(u.Bookmarks, businessID)
	b.BookmarkCount++
	return &models.BookmarkResult{Bookmarked: true, BookmarkCount: b.BookmarkCount}, nil
}

func (s *Store) RateBusiness(ctx context.Context, userID, businessID string, rating int) (*models.RatingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	b, ok := s.businesses[businessID]
	if !ok {
		return nil, fmt.Errorf("business %s: %w", businessID, models.ErrNotFound)
	}

	previous, hadPrevious := u.Rated[businessID]
	if hadPrevious {
		b.RatingSum += float64(rating - previous)
	} else {
		b.RatingSum += float64(rating)
		b.RatingCount++
	}
	u.Rated[businessID] = rating

	return &models.RatingResult{
		Updated:        hadPrevious,
		PreviousRating: previous,
		RatingSum:      b.RatingSum,
		RatingCount:    b.RatingCount,
		Average:        b.AverageRating(),
	}, nil
}

func (s *Store) InsertComment(ctx context.Context, businessID string, expectedVersion int64, comment *models.Comment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.businesses[businessID]
	if !ok || b.CommentsVersion != expectedVersion {
		return false, nil
	}
	c := *comment
	c.LikedBy = append([]string{}, comment.LikedBy...)
	b.Comments[c.ID] = c
	b.CommentsVersion++
	return true, nil
}

func (s *Store) ToggleCommentLike(ctx context.Context, businessID, commentID, userID string) (*models.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.businesses[businessID]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", commentID, models.ErrNotFound)
	}
	c, ok := b.Comments[commentID]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", commentID, models.ErrNotFound)
	}

	liked := !c.LikedByUser(userID)
	if liked {
		c.LikedBy = append(c.LikedBy, userID)
		c.Likes++
	} else {
		kept := make([]string, 0, len(c.LikedBy))
		for _, id := range c.LikedBy {
			if id != userID {
				kept = append(kept, id)
			}
		}
		c.LikedBy = kept
		c.Likes--
	}
	b.Comments[commentID] = c
	return &models.LikeResult{Liked: liked, Likes: c.Likes}, nil
}

func (s *Store) CreateCoupon(ctx context.Context, businessID string, coupon *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.businesses[businessID]
	if !ok {
		return fmt.Errorf("business %s: %w", businessID, models.ErrNotFound)
	}
	b.Coupons[coupon.ID] = *coupon
	return nil
}

func (s *Store) DeleteCoupon(ctx context.Context, businessID, couponID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.businesses[businessID]
	if !ok {
		return fmt.Errorf("coupon %s: %w", couponID, models.ErrNotFound)
	}
	if _, ok := b.Coupons[couponID]; !ok {
		return fmt.Errorf("coupon %s: %w", couponID, models.ErrNotFound)
	}
	delete(b.Coupons, couponID)
	return nil
}

func (s *Store) CreateSponsored(ctx context.Context, sponsored *models.SponsoredBusiness) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sponsored[sponsored.BusinessID] = *sponsored
	return nil
}

func (s *Store) SampleSponsored(ctx context.Context, q models.SponsoredQuery) ([]models.SponsoredBusiness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sponsored))
	for id := range s.sponsored {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	inRange := []models.SponsoredBusiness{}
	for _, id := range ids {
		sp := s.sponsored[id]
		meters := geo.HaversineKm(q.Lat, q.Lng, sp.Location.Lat(), sp.Location.Lng()) * 1000
		if meters <= float64(q.MaxDistanceMeters) {
			inRange = append(inRange, sp)
		}
	}
	s.rnd.Shuffle(len(inRange), func(i, j int) { inRange[i], inRange[j] = inRange[j], inRange[i] })
	if q.Size >= 0 && len(inRange) > q.Size {
		inRange = inRange[:q.Size]
	}
	return inRange, nil
}

func cloneBusiness(b *models.Business) *models.Business {
	c := *b
	c.Location = models.GeoPoint{Type: b.Location.Type, Coordinates: append([]float64(nil), b.Location.Coordinates...)}
	if b.Comments != nil {
		c.Comments = make(map[string]models.Comment, len(b.Comments))
		for id, cm := range b.Comments {
			cm.LikedBy = append([]string{}, cm.LikedBy...)
			c.Comments[id] = cm
		}
	}
	if b.Coupons != nil {
		c.Coupons = make(map[string]models.Coupon, len(b.Coupons))
		for id, cp := range b.Coupons {
			c.Coupons[id] = cp
		}
	}
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Categories = append([]string(nil), u.Categories...)
	c.Bookmarks = append([]string(nil), u.Bookmarks...)
	c.RecentlyViewed = append([]string(nil), u.RecentlyViewed...)
	if u.Rated != nil {
		c.Rated = make(map[string]int, len(u.Rated))
		for k, v := range u.Rated {
			c.Rated[k] = v
		}
	}
	c.Normalize()
	return &c
}
