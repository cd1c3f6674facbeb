package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/albumy/internal/model"
)

func TestFollowUnfollow(t *testing.T) {
	f := newFixture(t)
	svc := NewRelationshipService(f.store, testTimeout, 20)
	a, b := f.user("alice"), f.user("bob")

	require.NoError(t, svc.Follow(f.ctx, asActor(a), b.ID))
	ok, err := svc.IsFollowing(f.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsFollowing(f.ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok, "follow edge is directed")

	require.NoError(t, svc.Unfollow(f.ctx, asActor(a), b.ID))
	ok, err = svc.IsFollowing(f.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowErrors(t *testing.T) {
	f := newFixture(t)
	svc := NewRelationshipService(f.store, testTimeout, 20)
	a, b := f.user("alice"), f.user("bob")

	assert.ErrorIs(t, svc.Follow(f.ctx, asActor(a), a.ID), ErrFollowSelf)

	require.NoError(t, svc.Follow(f.ctx, asActor(a), b.ID))
	assert.ErrorIs(t, svc.Follow(f.ctx, asActor(a), b.ID), ErrAlreadyFollowing)
	assert.EqualValues(t, 1, f.count(&model.Follow{}, ""))

	assert.ErrorIs(t, svc.Follow(f.ctx, asActor(a), "missing"), ErrNotFound)
	assert.ErrorIs(t, svc.Follow(f.ctx, Anonymous, b.ID), ErrForbidden)

	require.NoError(t, svc.Unfollow(f.ctx, asActor(a), b.ID))
	assert.ErrorIs(t, svc.Unfollow(f.ctx, asActor(a), b.ID), ErrNotFollowing)
}

func TestListFollowingAndFollowers(t *testing.T) {
	f := newFixture(t)
	svc := NewRelationshipService(f.store, testTimeout, 20)
	a, b, c := f.user("alice"), f.user("bob"), f.user("carol")

	require.NoError(t, svc.Follow(f.ctx, asActor(a), b.ID))
	require.NoError(t, svc.Follow(f.ctx, asActor(a), c.ID))
	require.NoError(t, svc.Follow(f.ctx, asActor(c), b.ID))

	following, err := svc.ListFollowing(f.ctx, a.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, following.Total)
	assert.Len(t, following.Items, 2)

	followers, err := svc.ListFollowers(f.ctx, b.ID, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, followers.Total)
	assert.Len(t, followers.Items, 1)

	_, err = svc.ListFollowers(f.ctx, "missing", 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}
