package service

import (
	"context"
	"testing"
	"time"

	"socialnest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captions(page *models.FeedPage) []string {
	out := make([]string, 0, len(page.Posts))
	for _, p := range page.Posts {
		out = append(out, p.Caption)
	}
	return out
}

func TestFeedService_NewsfeedAndExplore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "anna")
	b := env.register(t, "ben")
	c := env.register(t, "cleo")

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	env.postAt(t, a.ID, "p1", base.Add(1*time.Minute))
	env.postAt(t, b.ID, "p2", base.Add(2*time.Minute))
	env.postAt(t, c.ID, "p3", base.Add(3*time.Minute))
	require.NoError(t, env.follow.Follow(ctx, a.ID, b.ID))

	news, err := env.feed.NewsFeed(ctx, a.ID, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, captions(news))
	assert.Equal(t, "ben", news.Posts[0].User.Username)
	assert.Empty(t, news.NextCursor)

	explore, err := env.feed.ExploreFeed(ctx, a.ID, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2"}, captions(explore))

	all, err := env.feed.AllPosts(ctx, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1"}, captions(all))

	_, err = env.feed.NewsFeed(ctx, 999, PageRequest{})
	requireKind(t, err, models.KindNotFound)
}

func TestFeedService_NewsfeedWithoutFollowsShowsOwnPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "anna")
	b := env.register(t, "ben")
	env.postAt(t, b.ID, "theirs", time.Now().UTC())

	news, err := env.feed.NewsFeed(ctx, a.ID, PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, news.Posts)
	assert.NotNil(t, news.Posts)

	env.postAt(t, a.ID, "mine", time.Now().UTC())
	news, err = env.feed.NewsFeed(ctx, a.ID, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, captions(news))
}

func TestFeedService_PopulatesLikesAndComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "anna")
	b := env.register(t, "ben")
	p := env.postAt(t, a.ID, "hello", time.Now().UTC())

	_, err := env.post.LikePost(ctx, p.ID, b.ID)
	require.NoError(t, err)
	_, err = env.comment.AddComment(ctx, p.ID, b.ID, "nice")
	require.NoError(t, err)

	page, err := env.feed.AllPosts(ctx, PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	view := page.Posts[0]
	assert.Equal(t, models.UserSummary{ID: a.ID, Username: "anna"}, view.User)
	assert.Equal(t, []uint{b.ID}, view.Likes)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "ben", view.Comments[0].User.Username)
}

func TestFeedService_CursorPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "anna")

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, caption := range []string{"p1", "p2", "p3", "p4", "p5"} {
		at := base.Add(time.Duration(i) * time.Minute)
		if caption == "p4" {
			// Same timestamp as p3: id breaks the tie.
			at = base.Add(2 * time.Minute)
		}
		env.postAt(t, a.ID, caption, at)
	}

	first, err := env.feed.AllPosts(ctx, PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"p5", "p4"}, captions(first))
	require.NotEmpty(t, first.NextCursor)

	second, err := env.feed.AllPosts(ctx, PageRequest{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2"}, captions(second))

	third, err := env.feed.AllPosts(ctx, PageRequest{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, captions(third))
	assert.Empty(t, third.NextCursor)

	// Restarting from an emitted cursor yields the same page.
	again, err := env.feed.AllPosts(ctx, PageRequest{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, captions(second), captions(again))

	_, err = env.feed.AllPosts(ctx, PageRequest{Cursor: "%%%"})
	assertValidationError(t, err)
}

func TestFeedService_Pager(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, "anna")
	b := env.register(t, "ben")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		env.postAt(t, b.ID, "post", base.Add(time.Duration(i)*time.Minute))
	}

	pager, err := env.feed.Pager(FeedExplore, a.ID, PageRequest{Limit: 2})
	require.NoError(t, err)

	seen := map[uint]bool{}
	pages := 0
	for !pager.Done() {
		page, err := pager.Next(ctx)
		require.NoError(t, err)
		pages++
		for _, p := range page.Posts {
			assert.False(t, seen[p.ID], "post %d returned twice", p.ID)
			seen[p.ID] = true
		}
	}
	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 5)

	page, err := pager.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, page)

	_, err = env.feed.Pager("trending", a.ID, PageRequest{})
	assertValidationError(t, err)
}

func TestPageRequest_Normalize(t *testing.T) {
	limit, cursor, err := PageRequest{}.normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultFeedLimit, limit)
	assert.Nil(t, cursor)

	limit, _, err = PageRequest{Limit: 1000}.normalize()
	require.NoError(t, err)
	assert.Equal(t, MaxFeedLimit, limit)
}
