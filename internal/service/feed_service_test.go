package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
)

func newFeedSvc(f *fixture) FeedService {
	return NewFeedService(f.store, testTimeout, FeedOptions{
		PhotoPerPage: 12, SearchPerPage: 20, ExploreSampleSize: 12, TrendingTagLimit: 10,
	})
}

func TestHomeFeed(t *testing.T) {
	f := newFixture(t)
	svc := newFeedSvc(f)
	a, b, c := f.user("alice"), f.user("bob"), f.user("carol")
	older := f.photo(b)
	f.photo(c)
	newer := f.photo(b)
	_, err := f.store.Follows.Create(f.ctx, a.ID, b.ID)
	require.NoError(t, err)

	feed, err := svc.Home(f.ctx, asActor(a), 1, 0)
	require.NoError(t, err)
	assert.False(t, feed.Anonymous)
	assert.EqualValues(t, 2, feed.Photos.Total)
	require.Len(t, feed.Photos.Items, 2)
	assert.Equal(t, newer.ID, feed.Photos.Items[0].ID)
	assert.Equal(t, older.ID, feed.Photos.Items[1].ID)

	page2, err := svc.Home(f.ctx, asActor(a), 2, 1)
	require.NoError(t, err)
	require.Len(t, page2.Photos.Items, 1)
	assert.Equal(t, older.ID, page2.Photos.Items[0].ID)
}

func TestHomeFeedAnonymous(t *testing.T) {
	f := newFixture(t)
	svc := newFeedSvc(f)
	f.photo(f.user("alice"))

	feed, err := svc.Home(f.ctx, Anonymous, 1, 10)
	require.NoError(t, err)
	assert.True(t, feed.Anonymous)
	assert.Nil(t, feed.Photos)
}

func TestTrendingTagsTieBreak(t *testing.T) {
	f := newFixture(t)
	svc := newFeedSvc(f)
	a := f.user("alice")
	names := []string{"t1", "t2", "t3", "t4"}
	counts := []int{5, 5, 3, 1}
	tags := make([]*model.Tag, len(names))
	for i, name := range names {
		tag, err := f.store.Tags.FindOrCreate(f.ctx, name)
		require.NoError(t, err)
		tags[i] = tag
	}
	// 倒序挂载，排除插入顺序对结果的影响
	for i := len(tags) - 1; i >= 0; i-- {
		for n := 0; n < counts[i]; n++ {
			require.NoError(t, f.store.Tags.Attach(f.ctx, f.photo(a).ID, tags[i].ID))
		}
	}

	got, err := svc.TrendingTags(f.ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Less(t, tags[0].ID, tags[1].ID)
	assert.Equal(t, tags[0].ID, got[0].ID)
	assert.Equal(t, tags[1].ID, got[1].ID)
	assert.Equal(t, tags[2].ID, got[2].ID)
	assert.EqualValues(t, 5, got[0].PhotoCount)
	assert.EqualValues(t, 3, got[2].PhotoCount)
}

func TestExplore(t *testing.T) {
	f := newFixture(t)
	svc := newFeedSvc(f)
	a := f.user("alice")
	for i := 0; i < 5; i++ {
		f.photo(a)
	}

	got, err := svc.Explore(f.ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	seen := map[string]bool{}
	for _, p := range got {
		assert.False(t, seen[p.ID], "sample has no duplicates")
		seen[p.ID] = true
	}

	all, err := svc.Explore(f.ctx, 50)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestTagPhotosOrder(t *testing.T) {
	f := newFixture(t)
	svc := newFeedSvc(f)
	a, b, c := f.user("alice"), f.user("bob"), f.user("carol")
	p1, p2, p3 := f.photo(a), f.photo(a), f.photo(a)
	tag := f.tag(p1, "sky")
	f.tag(p2, "sky")
	f.tag(p3, "sky")
	for _, u := range []*model.User{b, c} {
		_, err := f.store.Collects.Create(f.ctx, u.ID, p1.ID)
		require.NoError(t, err)
	}
	_, err := f.store.Collects.Create(f.ctx, b.ID, p2.ID)
	require.NoError(t, err)

	byTime, err := svc.TagPhotos(f.ctx, tag.ID, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, repository.OrderByTime, byTime.Order)
	require.Len(t, byTime.Photos.Items, 3)
	assert.Equal(t, p3.ID, byTime.Photos.Items[0].ID)

	// 全局排序：第一页只取一张时也必须是收藏最多的那张
	top, err := svc.TagPhotos(f.ctx, tag.ID, repository.OrderByCollects, 1, 1)
	require.NoError(t, err)
	require.Len(t, top.Photos.Items, 1)
	assert.Equal(t, p1.ID, top.Photos.Items[0].ID)
	assert.EqualValues(t, 3, top.Photos.Total)

	rest, err := svc.TagPhotos(f.ctx, tag.ID, repository.OrderByCollects, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest.Photos.Items, 1)
	assert.Equal(t, p3.ID, rest.Photos.Items[0].ID)

	_, err = svc.TagPhotos(f.ctx, "missing", repository.OrderByTime, 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	svc := newFeedSvc(f)
	a := f.user("alice", func(u *model.User) { u.Name = "Alice Liddell" })
	f.user("bob")
	f.photo(a, func(p *model.Photo) { p.Description = "Golden Sunset over 100% water" })
	f.photo(a, func(p *model.Photo) { p.Description = "morning" })
	f.tag(f.photo(a), "sunset_beach")

	res, err := svc.Search(f.ctx, "  sunset ", "", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, SearchPhoto, res.Category)
	assert.Equal(t, "sunset", res.Query)
	require.NotNil(t, res.Photos)
	assert.EqualValues(t, 1, res.Photos.Total)
	assert.Nil(t, res.Users)

	res, err = svc.Search(f.ctx, "100%", SearchPhoto, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Photos.Total)

	res, err = svc.Search(f.ctx, "liddell", SearchUser, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Users.Items, 1)
	assert.Equal(t, a.ID, res.Users.Items[0].ID)

	res, err = svc.Search(f.ctx, "u_s", SearchTag, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Tags.Total, "underscore is literal")

	res, err = svc.Search(f.ctx, "_beach", SearchTag, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Tags.Total)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newFixture(t)
	svc := newFeedSvc(f)
	f.photo(f.user("alice"))

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := svc.Search(f.ctx, q, SearchPhoto, 1, 10)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
}

func TestStoreTimeout(t *testing.T) {
	f := newFixture(t)
	svc := NewFeedService(f.store, time.Nanosecond, FeedOptions{})
	a := f.user("alice")

	_, err := svc.Home(f.ctx, asActor(a), 1, 10)
	assert.ErrorIs(t, err, ErrStoreTimeout)

	_, err = svc.TrendingTags(f.ctx, 3)
	assert.ErrorIs(t, err, ErrStoreTimeout)
}
