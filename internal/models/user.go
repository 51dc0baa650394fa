package models

import (
	"time"
)

type AccountType string

const (
	AccountStandard AccountType = "standard"
	AccountBusiness AccountType = "business"

	MaxRecentlyViewed = 10
)

type User struct {
	ID             string         `bson:"uuid" json:"id"`
	Email          string         `bson:"email" json:"email"`
	Name           string         `bson:"name" json:"name"`
	Picture        string         `bson:"picture" json:"picture"`
	Type           AccountType    `bson:"type" json:"type"`
	Categories     []string       `bson:"categories" json:"categories"`
	Bookmarks      []string       `bson:"bookmarks" json:"bookmarks"`
	Rated          map[string]int `bson:"rated" json:"rated"`
	RecentlyViewed []string       `bson:"recently_viewed" json:"recently_viewed"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
}

func (u *User) IsStandard() bool {
	return u.Type == AccountStandard
}

func (u *User) IsBusiness() bool {
	return u.Type == AccountBusiness
}

func (u *User) HasBookmarked(businessID string) bool {
	for _, id := range u.Bookmarks {
		if id == businessID {
			return true
		}
	}
	return false
}

// Normalize replaces nil collections so that $addToSet/$pull never hit a null field.
func (u *User) Normalize() {
	if u.Categories == nil {
		u.Categories = []string{}
	}
	if u.Bookmarks == nil {
		u.Bookmarks = []string{}
	}
	if u.Rated == nil {
		u.Rated = map[string]int{}
	}
	if u.RecentlyViewed == nil {
		u.RecentlyViewed = []string{}
	}
}

// PushRecent moves businessID to the front of the list, keeping at most max entries.
func PushRecent(list []string, businessID string, max int) []string {
	out := make([]string, 0, max)
	out = append(out, businessID)
	for _, id := range list {
		if id == businessID {
			continue
		}
		if len(out) == max {
			break
		}
		out = append(out, id)
	}
	return out
}
