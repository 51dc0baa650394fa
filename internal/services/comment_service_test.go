package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshua-takyi/businessly/internal/models"
	"github.com/joshua-takyi/businessly/internal/store/memory"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newCommentFixture(t *testing.T) (*CommentService, *memory.Store, *testClock) {
	t.Helper()
	store := memory.NewStore()
	seedBusiness(t, store, newTestBusiness("biz", markhamLat, markhamLng))
	seedUser(t, store, "alice", models.AccountStandard)
	seedUser(t, store, "bob", models.AccountStandard)

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	cs := NewCommentService(store, store, store, nil, WithClock(clock.Now))
	return cs, store, clock
}

func TestAddCommentCooldownAndDuplicate(t *testing.T) {
	cs, _, clock := newCommentFixture(t)
	ctx := context.Background()

	first, err := cs.AddComment(ctx, "biz", "alice", "Great coffee and friendly staff")
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Likes)
	assert.Empty(t, first.LikedBy)
	assert.Equal(t, clock.now, first.CreatedAt)

	clock.Advance(10 * time.Second)
	_, err = cs.AddComment(ctx, "biz", "alice", "Something else entirely")
	assert.ErrorIs(t, err, models.ErrRateLimited)

	clock.Advance(21 * time.Second)
	_, err = cs.AddComment(ctx, "biz", "alice", "GREAT COFFEE AND FRIENDLY STAFF")
	assert.ErrorIs(t, err, models.ErrDuplicate)

	second, err := cs.AddComment(ctx, "biz", "alice", "Came back, still great")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAddCommentDuplicateScansAllOwnComments(t *testing.T) {
	cs, _, clock := newCommentFixture(t)
	ctx := context.Background()

	_, err := cs.AddComment(ctx, "biz", "alice", "first visit")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = cs.AddComment(ctx, "biz", "alice", "second visit")
	require.NoError(t, err)
	clock.Advance(time.Minute)

	_, err = cs.AddComment(ctx, "biz", "alice", "First Visit")
	assert.ErrorIs(t, err, models.ErrDuplicate)

	// Other authors are not affected by alice's history.
	_, err = cs.AddComment(ctx, "biz", "bob", "first visit")
	assert.NoError(t, err)
}

func TestAddCommentValidation(t *testing.T) {
	cs, store, _ := newCommentFixture(t)
	ctx := context.Background()

	_, err := cs.AddComment(ctx, "biz", "alice", "   ")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = cs.AddComment(ctx, "biz", "alice", strings.Repeat("a", models.MaxCommentLength+1))
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = cs.AddComment(ctx, "biz", "alice", "  "+strings.Repeat("a", models.MaxCommentLength)+"  ")
	assert.NoError(t, err)

	_, err = cs.AddComment(ctx, "missing", "alice", "hello")
	assert.ErrorIs(t, err, models.ErrNotFound)

	b, err := store.GetBusiness(ctx, "biz")
	require.NoError(t, err)
	assert.Len(t, b.Comments, 1)
}

func TestAddCommentCensorsBeforeStoring(t *testing.T) {
	store := memory.NewStore()
	seedBusiness(t, store, newTestBusiness("biz", markhamLat, markhamLng))
	censor := func(s string) string { return strings.ReplaceAll(s, "darn", "****") }
	cs := NewCommentService(store, store, store, nil, WithCensor(censor))

	c, err := cs.AddComment(context.Background(), "biz", "alice", "darn good tacos")
	require.NoError(t, err)
	assert.Equal(t, "**** good tacos", c.Text)

	b, err := store.GetBusiness(context.Background(), "biz")
	require.NoError(t, err)
	assert.Equal(t, "**** good tacos", b.Comments[c.ID].Text)
}

func TestAddCommentConflictAfterRetries(t *testing.T) {
	store := memory.NewStore()
	seedBusiness(t, store, newTestBusiness("biz", markhamLat, markhamLng))
	losing := &losingCommentRepo{CommentRepo: store}
	cs := NewCommentService(store, store, losing, nil)

	_, err := cs.AddComment(context.Background(), "biz", "alice", "hello there")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, commentInsertAttempts, losing.attempts)
}

func TestAddCommentStaleVersionIsRejected(t *testing.T) {
	store := memory.NewStore()
	seedBusiness(t, store, newTestBusiness("biz", markhamLat, markhamLng))
	ctx := context.Background()

	ok, err := store.InsertComment(ctx, "biz", 0, &models.Comment{ID: "c1", AuthorID: "alice", Text: "one"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.InsertComment(ctx, "biz", 0, &models.Comment{ID: "c2", AuthorID: "bob", Text: "two"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToggleLikeKeepsCountInSync(t *testing.T) {
	cs, store, _ := newCommentFixture(t)
	ctx := context.Background()

	c, err := cs.AddComment(ctx, "biz", "alice", "Lovely patio")
	require.NoError(t, err)

	check := func() {
		b, err := store.GetBusiness(ctx, "biz")
		require.NoError(t, err)
		stored := b.Comments[c.ID]
		assert.Equal(t, int64(len(stored.LikedBy)), stored.Likes)
	}

	sequence := []struct {
		user  string
		liked bool
		likes int64
	}{
		{"bob", true, 1},
		{"alice", true, 2},
		{"bob", false, 1},
		{"bob", true, 2},
		{"alice", false, 1},
		{"bob", false, 0},
	}
	for i, step := range sequence {
		res, err := cs.ToggleLike(ctx, "biz", c.ID, step.user)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.liked, res.Liked, "step %d", i)
		assert.Equal(t, step.likes, res.Likes, "step %d", i)
		check()
	}

	_, err = cs.ToggleLike(ctx, "biz", uuid.NewString(), "bob")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestToggleLikeRejectsMalformedCommentIDs(t *testing.T) {
	cs, store, _ := newCommentFixture(t)
	ctx := context.Background()

	c, err := cs.AddComment(ctx, "biz", "alice", "Friendly staff")
	require.NoError(t, err)

	for _, id := range []string{
		"no-such-comment",
		c.ID + ".likes",
		"$where",
		c.ID + ".liked_by.0",
	} {
		_, err := cs.ToggleLike(ctx, "biz", id, "bob")
		assert.ErrorIs(t, err, models.ErrValidation, "id %q", id)
	}

	b, err := store.GetBusiness(ctx, "biz")
	require.NoError(t, err)
	assert.Zero(t, b.Comments[c.ID].Likes)
	assert.Empty(t, b.Comments[c.ID].LikedBy)
}

func TestListCommentsSortingAndOrphans(t *testing.T) {
	store := memory.NewStore()
	seedBusiness(t, store, newTestBusiness("biz", markhamLat, markhamLng))
	seedUser(t, store, "alice", models.AccountStandard)
	seedUser(t, store, "bob", models.AccountStandard)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	comments := []models.Comment{
		{ID: "old-popular", AuthorID: "alice", Text: "a", Likes: 2, LikedBy: []string{"bob", "carol"}, CreatedAt: base},
		{ID: "mid", AuthorID: "bob", Text: "b", Likes: 0, LikedBy: []string{}, CreatedAt: base.Add(time.Hour)},
		{ID: "new-popular", AuthorID: "bob", Text: "c", Likes: 2, LikedBy: []string{"alice", "carol"}, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "orphan", AuthorID: "deleted-user", Text: "d", Likes: 5, LikedBy: []string{"1", "2", "3", "4", "5"}, CreatedAt: base.Add(3 * time.Hour)},
	}
	for i := range comments {
		ok, err := store.InsertComment(ctx, "biz", int64(i), &comments[i])
		require.NoError(t, err)
		require.True(t, ok)
	}

	cs := NewCommentService(store, store, store, nil)

	newest, err := cs.ListComments(ctx, "biz", "bob", 1, 0, SortNewest)
	require.NoError(t, err)
	assert.Equal(t, 1, newest.TotalPages)
	require.Len(t, newest.Comments, 3)
	assert.Equal(t, []string{"new-popular", "mid", "old-popular"}, commentIDs(newest.Comments))
	assert.True(t, newest.Comments[2].Liked)
	assert.False(t, newest.Comments[0].Liked)
	assert.Equal(t, "User bob", newest.Comments[0].AuthorName)

	helpful, err := cs.ListComments(ctx, "biz", "", 1, 0, SortMostHelpful)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-popular", "old-popular", "mid"}, commentIDs(helpful.Comments))
	for _, c := range helpful.Comments {
		assert.False(t, c.Liked)
	}

	empty, err := cs.ListComments(ctx, "biz", "", 2, 0, SortNewest)
	require.NoError(t, err)
	assert.Empty(t, empty.Comments)
}

func TestListCommentsPaging(t *testing.T) {
	store := memory.NewStore()
	seedBusiness(t, store, newTestBusiness("biz", markhamLat, markhamLng))
	seedUser(t, store, "alice", models.AccountStandard)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 23; i++ {
		ok, err := store.InsertComment(ctx, "biz", int64(i), &models.Comment{
			ID:        idN(i),
			AuthorID:  "alice",
			Text:      idN(i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		require.True(t, ok)
	}

	cs := NewCommentService(store, store, store, nil)
	page, err := cs.ListComments(ctx, "biz", "", 3, 0, "bogus")
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, CommentsPageSize, page.PageSize)
	assert.Equal(t, SortNewest, page.Sort)
	assert.Equal(t, []string{idN(2), idN(1), idN(0)}, commentIDs(page.Comments))

	page, err = cs.ListComments(ctx, "biz", "", 2, 5, SortNewest)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, 5, page.PageSize)
	assert.Equal(t, []string{idN(17), idN(16), idN(15), idN(14), idN(13)}, commentIDs(page.Comments))

	page, err = cs.ListComments(ctx, "biz", "", 1, 500, SortNewest)
	require.NoError(t, err)
	assert.Equal(t, MaxCommentsPageSize, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Comments, 23)
}

func commentIDs(views []CommentView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}
