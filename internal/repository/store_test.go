package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/pkg/database"
)

func newTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	return NewStore(database.OpenTest(t)), context.Background()
}

func createUser(t *testing.T, s *Store, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", PasswordHash: "p", Role: model.RoleUser}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func TestTransactionRollback(t *testing.T) {
	s, ctx := newTestStore(t)
	a, b := createUser(t, s, "alice"), createUser(t, s, "bob")
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *Store) error {
		created, err := tx.Follows.Create(ctx, a.ID, b.ID)
		require.NoError(t, err)
		require.True(t, created)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := s.Follows.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNestedTransactionIsSavepoint(t *testing.T) {
	s, ctx := newTestStore(t)
	a, b := createUser(t, s, "alice"), createUser(t, s, "bob")

	err := s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.Follows.Create(ctx, a.ID, b.ID); err != nil {
			return err
		}
		inner := tx.Transaction(ctx, func(sp *Store) error {
			if err := sp.Notifications.Create(ctx, &model.Notification{ReceiverID: b.ID, Kind: model.NotificationComment, Message: "m"}); err != nil {
				return err
			}
			return errors.New("discard")
		})
		assert.Error(t, inner)
		return nil
	})
	require.NoError(t, err)

	ok, err := s.Follows.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok, "outer write committed")
	n, err := s.Notifications.CountUnread(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "inner write rolled back")
}

func TestEdgeCreateIsIdempotent(t *testing.T) {
	s, ctx := newTestStore(t)
	a, b := createUser(t, s, "alice"), createUser(t, s, "bob")

	created, err := s.Follows.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.Follows.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)

	p := &model.Photo{AuthorID: a.ID, Filename: "x.jpg"}
	require.NoError(t, s.Photos.Create(ctx, p))
	created, err = s.Collects.Create(ctx, b.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.Collects.Create(ctx, b.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, created)

	deleted, err := s.Collects.Delete(ctx, b.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.Collects.Delete(ctx, b.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTagFindOrCreateAndOrphans(t *testing.T) {
	s, ctx := newTestStore(t)
	a := createUser(t, s, "alice")
	p := &model.Photo{AuthorID: a.ID, Filename: "x.jpg"}
	require.NoError(t, s.Photos.Create(ctx, p))

	first, err := s.Tags.FindOrCreate(ctx, "sky")
	require.NoError(t, err)
	again, err := s.Tags.FindOrCreate(ctx, "sky")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	require.NoError(t, s.Tags.Attach(ctx, p.ID, first.ID))
	require.NoError(t, s.Tags.Attach(ctx, p.ID, first.ID))
	tags, err := s.Tags.ListByPhoto(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	removed, err := s.Tags.DeleteOrphans(ctx, []string{first.ID})
	require.NoError(t, err)
	assert.Empty(t, removed, "still attached")

	ids, err := s.Tags.DetachAll(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, ids)
	removed, err = s.Tags.DeleteOrphans(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, removed)
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b%`, likePattern("A_b"))
	assert.Equal(t, `%c:\\d%`, likePattern(`c:\d`))
}
