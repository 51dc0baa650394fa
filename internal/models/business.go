package models

import (
	"sort"
	"time"
)

type Category string

const (
	CategoryFood    Category = "Food"
	CategoryService Category = "Service"
	CategoryShop    Category = "Shop"
	CategoryHealth  Category = "Health"

	DefaultCountry  = "Canada"
	DefaultImageURL = "https://core.myblueprint.ca/Client/Images/EmptyState/icon_desertEmpty.svg"

	MaxCommentLength = 1000
)

var ValidCategories = map[Category]bool{
	CategoryFood:    true,
	CategoryService: true,
	CategoryShop:    true,
	CategoryHealth:  true,
}

func IsValidCategory(c string) bool {
	return ValidCategories[Category(c)]
}

// GeoPoint is a GeoJSON point. Coordinates are stored [lng, lat] as the
// 2dsphere index requires.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

type Socials struct {
	Instagram *string `bson:"instagram" json:"instagram"`
	Website   *string `bson:"website" json:"website"`
}

type Business struct {
	ID          string   `bson:"uuid" json:"id"`
	Name        string   `bson:"name" json:"name" validate:"required"`
	Category    string   `bson:"category" json:"category" validate:"required,oneof=Food Service Shop Health"`
	Address     string   `bson:"address" json:"address" validate:"required"`
	City        string   `bson:"city" json:"city" validate:"required"`
	Province    string   `bson:"province" json:"province" validate:"required"`
	Country     string   `bson:"country" json:"country"`
	PostalCode  string   `bson:"postal_code" json:"postal_code" validate:"required,len=6"`
	Description string   `bson:"description" json:"description" validate:"required"`
	Phone       string   `bson:"phone" json:"phone" validate:"required"`
	Socials     Socials  `bson:"socials" json:"socials"`
	ImageURL    string   `bson:"image_url" json:"image_url"`
	Location    GeoPoint `bson:"location" json:"location"`

	// Counters maintained by the ledger.
	BookmarkCount int64   `bson:"bookmarks" json:"bookmarks"`
	RatingSum     float64 `bson:"combined_rating" json:"combined_rating"`
	RatingCount   int64   `bson:"users_rated" json:"users_rated"`

	Comments        map[string]Comment `bson:"comments" json:"comments,omitempty"`
	CommentsVersion int64              `bson:"comments_version" json:"-"`
	Coupons         map[string]Coupon  `bson:"coupons" json:"coupons"`
}

// AverageRating is RatingSum/RatingCount, or 0 when nobody has rated yet.
func (b *Business) AverageRating() float64 {
	if b.RatingCount <= 0 {
		return 0
	}
	return b.RatingSum / float64(b.RatingCount)
}

// ActiveCoupons returns the coupons whose expiry is not before now. Expired
// coupons stay stored; they are only hidden from views.
func (b *Business) ActiveCoupons(now time.Time) map[string]Coupon {
	active := make(map[string]Coupon, len(b.Coupons))
	for id, c := range b.Coupons {
		if !c.Expiry.UTC().Before(now.UTC()) {
			active[id] = c
		}
	}
	return active
}

// CommentsByAuthor returns the author's comments on this business, newest first.
func (b *Business) CommentsByAuthor(authorID string) []Comment {
	var out []Comment
	for _, c := range b.Comments {
		if c.AuthorID == authorID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

type Comment struct {
	ID        string    `bson:"uuid" json:"id"`
	AuthorID  string    `bson:"author_uuid" json:"author_id"`
	Text      string    `bson:"comment" json:"comment"`
	Likes     int64     `bson:"likes" json:"likes"`
	LikedBy   []string  `bson:"liked_by" json:"-"`
	CreatedAt time.Time `bson:"created" json:"created"`
}

// LikedByUser reports whether userID is in the comment's liked_by set.
func (c Comment) LikedByUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range c.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

type Coupon struct {
	ID          string    `bson:"uuid" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Code        string    `bson:"code" json:"code"`
	Description string    `bson:"description" json:"description"`
	Discount    float64   `bson:"discount" json:"discount"`
	Expiry      time.Time `bson:"expiry" json:"expiry"`
}

// SponsoredBusiness references a Business by id and only carries its point.
type SponsoredBusiness struct {
	BusinessID string   `bson:"uuid" json:"business_id"`
	Location   GeoPoint `bson:"location" json:"location"`
}

// RankedBusiness is a Business enriched by the recommendation engine.
type RankedBusiness struct {
	Business
	Rating     float64 `json:"rating"`
	DistanceKm float64 `json:"distance_km"`
	Score      float64 `json:"score"`
}

// NearQuery is the GeoIndex contract input. MaxDistanceMeters is already
// normalized; Categories and Text are optional.
type NearQuery struct {
	Lat               float64
	Lng               float64
	MaxDistanceMeters int64
	Categories        []string
	Text              string
	Offset            int
	Limit             int
}

type SponsoredQuery struct {
	Lat               float64
	Lng               float64
	MaxDistanceMeters int64
	Size              int
}

// BusinessProfileUpdate carries the editable fields of a business profile.
type BusinessProfileUpdate struct {
	Name        string   `bson:"name"`
	Category    string   `bson:"category"`
	Address     string   `bson:"address"`
	City        string   `bson:"city"`
	Province    string   `bson:"province"`
	PostalCode  string   `bson:"postal_code"`
	Description string   `bson:"description"`
	Phone       string   `bson:"phone"`
	Socials     Socials  `bson:"socials"`
	Location    GeoPoint `bson:"location"`
}

type BookmarkResult struct {
	Bookmarked    bool  `json:"bookmarked"`
	BookmarkCount int64 `json:"business_bookmark_count"`
}

// RatingResult reports the ledger state after a rating. Updated is true when
// an earlier rating by the same user was replaced.
type RatingResult struct {
	Updated        bool    `json:"updated"`
	PreviousRating int     `json:"previous_rating,omitempty"`
	RatingSum      float64 `json:"rating_sum"`
	RatingCount    int64   `json:"rating_count"`
	Average        float64 `json:"average"`
}

type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}
