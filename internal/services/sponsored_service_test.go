package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshua-takyi/businessly/internal/geo"
	"github.com/joshua-takyi/businessly/internal/models"
	"github.com/joshua-takyi/businessly/internal/store/memory"
)

func TestSponsoredCreateAndSample(t *testing.T) {
	store := memory.NewStore()
	g := &fakeGeocoder{point: geo.Point{Lat: markhamLat, Lng: markhamLng}}
	ss := NewSponsoredService(store, store, g, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedBusiness(t, store, newTestBusiness(idN(i), markhamLat, markhamLng))
		_, err := ss.Create(ctx, idN(i), LocationInput{Address: "1 Main St", City: "Markham", Province: "ON"})
		require.NoError(t, err)
	}

	picks, err := ss.Sample(ctx, markhamLat, markhamLng, 10, 0)
	require.NoError(t, err)
	assert.Len(t, picks, DefaultSponsoredSize)
	seen := map[string]bool{}
	for _, p := range picks {
		assert.False(t, seen[p.ID], "duplicate pick %s", p.ID)
		seen[p.ID] = true
	}

	picks, err = ss.Sample(ctx, markhamLat, markhamLng, 10, 100)
	require.NoError(t, err)
	assert.Len(t, picks, 5)

	// Toronto is well outside a 10 km radius from Markham.
	picks, err = ss.Sample(ctx, 43.6532, -79.3832, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, picks)

	_, err = ss.Sample(ctx, 100, 0, 10, 3)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSponsoredCreateRequiresBusinessAndAddress(t *testing.T) {
	store := memory.NewStore()
	g := &fakeGeocoder{point: geo.Point{Lat: markhamLat, Lng: markhamLng}}
	ss := NewSponsoredService(store, store, g, nil)
	ctx := context.Background()

	_, err := ss.Create(ctx, "missing", LocationInput{Address: "1 Main St", City: "Markham", Province: "ON"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	seedBusiness(t, store, newTestBusiness("biz", markhamLat, markhamLng))
	_, err = ss.Create(ctx, "biz", LocationInput{Address: "1 Main St"})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 0, g.calls)
}
