package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshua-takyi/businessly/internal/geo"
	"github.com/joshua-takyi/businessly/internal/models"
	"github.com/joshua-takyi/businessly/internal/store/memory"
)

const (
	markhamLat = 43.8903
	markhamLng = -79.2286
)

func newTestBusiness(id string, lat, lng float64) *models.Business {
	return &models.Business{
		ID:          id,
		Name:        "Business " + id,
		Category:    string(models.CategoryFood),
		Address:     "1 Main St",
		City:        "Markham",
		Province:    "ON",
		Country:     models.DefaultCountry,
		PostalCode:  "L6B1A1",
		Description: "A test business",
		Phone:       "905-555-0100",
		ImageURL:    models.DefaultImageURL,
		Location:    models.NewGeoPoint(lat, lng),
	}
}

func seedBusiness(t *testing.T, store *memory.Store, b *models.Business) {
	t.Helper()
	require.NoError(t, store.CreateBusiness(context.Background(), b))
}

func seedUser(t *testing.T, store *memory.Store, id string, kind models.AccountType) {
	t.Helper()
	require.NoError(t, store.CreateUser(context.Background(), &models.User{
		ID:   id,
		Name: "User " + id,
		Type: kind,
	}))
}

type fakeGeocoder struct {
	point geo.Point
	err   error
	calls int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address, city, province string) (geo.Point, error) {
	f.calls++
	if f.err != nil {
		return geo.Point{}, f.err
	}
	return f.point, nil
}

// losingCommentRepo reports every insert as a lost version race.
type losingCommentRepo struct {
	models.CommentRepo
	attempts int
}

func (l *losingCommentRepo) InsertComment(ctx context.Context, businessID string, expectedVersion int64, comment *models.Comment) (bool, error) {
	l.attempts++
	return false, nil
}

func idN(i int) string {
	return fmt.Sprintf("b-%02d", i)
}
