package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/pkg/logger"
)

// NotificationEvent 一次待写入的通知
type NotificationEvent struct {
	Kind       model.NotificationKind
	PhotoID    string
	ReceiverID string
	Actor      Actor
	Page       int
	Reply      bool
}

// NotificationService 通知引擎
type NotificationService interface {
	Push(ctx context.Context, ev NotificationEvent) (*model.Notification, error)
	MarkRead(ctx context.Context, actor Actor, notificationID string) error
	MarkAllRead(ctx context.Context, actor Actor) (int64, error)
	List(ctx context.Context, actor Actor, unreadOnly bool, page, pageSize int) (*Page[*model.Notification], error)
	UnreadCount(ctx context.Context, actor Actor) (int64, error)
}

type notificationService struct {
	base
	perPage int
}

func NewNotificationService(store *repository.Store, timeout time.Duration, perPage int) NotificationService {
	return &notificationService{base: newBase(store, timeout), perPage: perPage}
}

func (s *notificationService) Push(ctx context.Context, ev NotificationEvent) (*model.Notification, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	return pushNotification(ctx, s.store.Notifications, ev)
}

// pushNotification 立即落库，不重试；repo 可以是事务内的仓储
func pushNotification(ctx context.Context, repo repository.NotificationRepository, ev NotificationEvent) (*model.Notification, error) {
	msg, err := notificationMessage(ev)
	if err != nil {
		return nil, err
	}
	n := &model.Notification{
		ReceiverID: ev.ReceiverID,
		Kind:       ev.Kind,
		PhotoID:    ev.PhotoID,
		Page:       ev.Page,
		Message:    msg,
	}
	if ev.Actor.Authenticated() {
		id := ev.Actor.ID
		n.ActorID = &id
	}
	if err := repo.Create(ctx, n); err != nil {
		logger.Error("push notification failed",
			zap.Error(err),
			zap.String("kind", string(ev.Kind)),
			zap.String("receiver", ev.ReceiverID),
			zap.String("photo", ev.PhotoID),
		)
		return nil, storeErr(err)
	}
	return n, nil
}

func notificationMessage(ev NotificationEvent) (string, error) {
	who := ev.Actor.Username
	if who == "" {
		who = "Someone"
	}
	switch ev.Kind {
	case model.NotificationComment:
		if ev.Reply {
			return fmt.Sprintf("%s replied to your comment.", who), nil
		}
		return fmt.Sprintf("%s commented on your photo.", who), nil
	case model.NotificationCollect:
		return fmt.Sprintf("%s collected your photo.", who), nil
	default:
		return "", ErrInvalidNotification
	}
}

// wantsNotification 接收者开启了对应偏好且不是操作者本人
func wantsNotification(receiver *model.User, actorID string, kind model.NotificationKind) bool {
	if receiver == nil || receiver.ID == actorID {
		return false
	}
	switch kind {
	case model.NotificationComment:
		return receiver.ReceiveCommentNotification
	case model.NotificationCollect:
		return receiver.ReceiveCollectNotification
	}
	return false
}

func (s *notificationService) MarkRead(ctx context.Context, actor Actor, notificationID string) error {
	if !actor.Authenticated() {
		return ErrForbidden
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	n, err := s.store.Notifications.GetByID(ctx, notificationID)
	if err != nil {
		return storeErr(err)
	}
	if n.ReceiverID != actor.ID {
		return ErrForbidden
	}
	if n.IsRead {
		return nil
	}
	return storeErr(s.store.Notifications.MarkRead(ctx, n.ID))
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	if !actor.Authenticated() {
		return 0, ErrForbidden
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	n, err := s.store.Notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

func (s *notificationService) List(ctx context.Context, actor Actor, unreadOnly bool, page, pageSize int) (*Page[*model.Notification], error) {
	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	page, pageSize, offset := normalizePage(page, pageSize, s.perPage)
	ctx, cancel := s.begin(ctx)
	defer cancel()

	items, total, err := s.store.Notifications.List(ctx, actor.ID, unreadOnly, offset, pageSize)
	if err != nil {
		return nil, storeErr(err)
	}
	return &Page[*model.Notification]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	if !actor.Authenticated() {
		return 0, nil
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	n, err := s.store.Notifications.CountUnread(ctx, actor.ID)
	return n, storeErr(err)
}
