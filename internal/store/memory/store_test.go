package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshua-takyi/businessly/internal/models"
)

func business(id string, lat, lng float64) *models.Business {
	return &models.Business{
		ID:       id,
		Name:     "Shop " + id,
		Category: string(models.CategoryFood),
		Location: models.NewGeoPoint(lat, lng),
	}
}

func TestFindNearOrdersByDistanceAndCountsBeforePaging(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateBusiness(ctx, business("far", 43.95, -79.2)))
	require.NoError(t, s.CreateBusiness(ctx, business("near", 43.90, -79.2)))
	require.NoError(t, s.CreateBusiness(ctx, business("mid", 43.92, -79.2)))

	got, total, err := s.FindNear(ctx, models.NearQuery{Lat: 43.90, Lng: -79.2, MaxDistanceMeters: 10000, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)

	got, _, err = s.FindNear(ctx, models.NearQuery{Lat: 43.90, Lng: -79.2, MaxDistanceMeters: 10000, Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "far", got[0].ID)

	_, total, err = s.FindNear(ctx, models.NearQuery{Lat: 43.90, Lng: -79.2, MaxDistanceMeters: 3000, Limit: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateBusiness(ctx, business("b", 43.9, -79.2)))

	b, err := s.GetBusiness(ctx, "b")
	require.NoError(t, err)
	b.Name = "changed"
	b.Location.Coordinates[0] = 0

	again, err := s.GetBusiness(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Shop b", again.Name)
	assert.Equal(t, -79.2, again.Location.Lng())
}

func TestCreateBusinessRejectsDuplicateID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateBusiness(ctx, business("b", 43.9, -79.2)))
	assert.ErrorIs(t, s.CreateBusiness(ctx, business("b", 43.9, -79.2)), models.ErrValidation)
}
