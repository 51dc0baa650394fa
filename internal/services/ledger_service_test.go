package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshua-takyi/businessly/internal/models"
	"github.com/joshua-takyi/businessly/internal/store/memory"
)

func newLedgerFixture(t *testing.T) (*LedgerService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	b := newTestBusiness("biz", markhamLat, markhamLng)
	b.BookmarkCount = 3
	seedBusiness(t, store, b)
	seedUser(t, store, "alice", models.AccountStandard)
	return NewLedgerService(store, store, nil), store
}

func TestToggleBookmarkTwiceRestoresState(t *testing.T) {
	ls, store := newLedgerFixture(t)
	ctx := context.Background()

	first, err := ls.ToggleBookmark(ctx, "alice", "biz")
	require.NoError(t, err)
	assert.True(t, first.Bookmarked)
	assert.Equal(t, int64(4), first.BookmarkCount)

	u, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"biz"}, u.Bookmarks)

	second, err := ls.ToggleBookmark(ctx, "alice", "biz")
	require.NoError(t, err)
	assert.False(t, second.Bookmarked)
	assert.Equal(t, int64(3), second.BookmarkCount)

	u, err = store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, u.Bookmarks)
}

func TestToggleBookmarkFloorsAtZero(t *testing.T) {
	store := memory.NewStore()
	seedBusiness(t, store, newTestBusiness("biz", markhamLat, markhamLng))
	require.NoError(t, store.CreateUser(context.Background(), &models.User{
		ID:        "bob",
		Type:      models.AccountStandard,
		Bookmarks: []string{"biz"},
	}))
	ls := NewLedgerService(store, store, nil)

	res, err := ls.ToggleBookmark(context.Background(), "bob", "biz")
	require.NoError(t, err)
	assert.False(t, res.Bookmarked)
	assert.Equal(t, int64(0), res.BookmarkCount)
}

func TestToggleBookmarkNotFound(t *testing.T) {
	ls, store := newLedgerFixture(t)
	ctx := context.Background()

	_, err := ls.ToggleBookmark(ctx, "ghost", "biz")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = ls.ToggleBookmark(ctx, "alice", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	b, err := store.GetBusiness(ctx, "biz")
	require.NoError(t, err)
	assert.Equal(t, int64(3), b.BookmarkCount)
}

func TestToggleBookmarkConcurrentUsers(t *testing.T) {
	store := memory.NewStore()
	seedBusiness(t, store, newTestBusiness("biz", markhamLat, markhamLng))
	const users = 20
	for i := 0; i < users; i++ {
		seedUser(t, store, idN(i), models.AccountStandard)
	}
	ls := NewLedgerService(store, store, nil)

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := ls.ToggleBookmark(context.Background(), id, "biz")
			assert.NoError(t, err)
		}(idN(i))
	}
	wg.Wait()

	b, err := store.GetBusiness(context.Background(), "biz")
	require.NoError(t, err)
	assert.Equal(t, int64(users), b.BookmarkCount)
}

func TestRateBusinessFirstThenUpdate(t *testing.T) {
	ls, _ := newLedgerFixture(t)
	ctx := context.Background()

	first, err := ls.RateBusiness(ctx, "alice", "biz", 4)
	require.NoError(t, err)
	assert.False(t, first.Updated)
	assert.Equal(t, int64(1), first.RatingCount)
	assert.Equal(t, 4.0, first.RatingSum)
	assert.Equal(t, 4.0, first.Average)

	second, err := ls.RateBusiness(ctx, "alice", "biz", 2)
	require.NoError(t, err)
	assert.True(t, second.Updated)
	assert.Equal(t, 4, second.PreviousRating)
	assert.Equal(t, int64(1), second.RatingCount)
	assert.Equal(t, first.RatingSum+(2-4), second.RatingSum)
}

func TestRateBusinessMultipleUsers(t *testing.T) {
	ls, store := newLedgerFixture(t)
	seedUser(t, store, "bob", models.AccountStandard)
	ctx := context.Background()

	_, err := ls.RateBusiness(ctx, "alice", "biz", 5)
	require.NoError(t, err)
	res, err := ls.RateBusiness(ctx, "bob", "biz", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RatingCount)
	assert.Equal(t, 7.0, res.RatingSum)
	assert.Equal(t, 3.5, res.Average)

	u, err := store.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"biz": 2}, u.Rated)
}

func TestRateBusinessRejectsOutOfRange(t *testing.T) {
	ls, store := newLedgerFixture(t)
	ctx := context.Background()

	for _, r := range []int{0, 6, -1} {
		_, err := ls.RateBusiness(ctx, "alice", "biz", r)
		assert.ErrorIs(t, err, models.ErrValidation, "rating %d", r)
	}

	b, err := store.GetBusiness(ctx, "biz")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.RatingCount)
	assert.Equal(t, 0.0, b.RatingSum)

	_, err = ls.RateBusiness(ctx, "ghost", "biz", 3)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
