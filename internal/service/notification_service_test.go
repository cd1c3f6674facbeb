package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/albumy/internal/model"
)

func seedNotifications(t *testing.T, f *fixture, receiver *model.User, n int) []*model.Notification {
	t.Helper()
	out := make([]*model.Notification, n)
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		note := &model.Notification{
			ReceiverID: receiver.ID,
			Kind:       model.NotificationComment,
			PhotoID:    "p",
			Message:    "m",
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, f.store.Notifications.Create(f.ctx, note))
		out[i] = note
	}
	return out
}

func TestPushRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	svc := NewNotificationService(f.store, testTimeout, 20)
	a := f.user("alice")

	_, err := svc.Push(f.ctx, NotificationEvent{Kind: "follow", ReceiverID: a.ID})
	assert.ErrorIs(t, err, ErrInvalidNotification)

	n, err := svc.Push(f.ctx, NotificationEvent{Kind: model.NotificationComment, ReceiverID: a.ID, PhotoID: "p1", Reply: true})
	require.NoError(t, err)
	assert.Equal(t, "Someone replied to your comment.", n.Message)
}

func TestMarkReadOwnership(t *testing.T) {
	f := newFixture(t)
	svc := NewNotificationService(f.store, testTimeout, 20)
	a, b := f.user("alice"), f.user("bob")
	notes := seedNotifications(t, f, a, 1)

	assert.ErrorIs(t, svc.MarkRead(f.ctx, asActor(b), notes[0].ID), ErrForbidden)
	assert.ErrorIs(t, svc.MarkRead(f.ctx, asActor(a), "missing"), ErrNotFound)

	require.NoError(t, svc.MarkRead(f.ctx, asActor(a), notes[0].ID))
	n, err := svc.UnreadCount(f.ctx, asActor(a))
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestMarkAllRead(t *testing.T) {
	f := newFixture(t)
	svc := NewNotificationService(f.store, testTimeout, 20)
	a, b := f.user("alice"), f.user("bob")
	seedNotifications(t, f, a, 3)
	seedNotifications(t, f, b, 2)

	n, err := svc.MarkAllRead(f.ctx, asActor(a))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	unreadA, err := svc.UnreadCount(f.ctx, asActor(a))
	require.NoError(t, err)
	assert.EqualValues(t, 0, unreadA)

	unreadB, err := svc.UnreadCount(f.ctx, asActor(b))
	require.NoError(t, err)
	assert.EqualValues(t, 2, unreadB, "other receivers untouched")
}

func TestListNotificationsNewestFirst(t *testing.T) {
	f := newFixture(t)
	svc := NewNotificationService(f.store, testTimeout, 20)
	a := f.user("alice")
	notes := seedNotifications(t, f, a, 3)
	require.NoError(t, svc.MarkRead(f.ctx, asActor(a), notes[2].ID))

	all, err := svc.List(f.ctx, asActor(a), false, 1, 10)
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, notes[2].ID, all.Items[0].ID)
	assert.Equal(t, notes[0].ID, all.Items[2].ID)

	unread, err := svc.List(f.ctx, asActor(a), true, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread.Total)
	assert.Equal(t, notes[1].ID, unread.Items[0].ID)

	_, err = svc.List(f.ctx, Anonymous, false, 1, 10)
	assert.ErrorIs(t, err, ErrForbidden)
}
