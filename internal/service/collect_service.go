package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/pkg/logger"
)

// CollectService 收藏
type CollectService interface {
	Collect(ctx context.Context, actor Actor, photoID string) error
	Uncollect(ctx context.Context, actor Actor, photoID string) error
	IsCollecting(ctx context.Context, userID, photoID string) (bool, error)
	ListCollectors(ctx context.Context, photoID string, page, pageSize int) (*Page[*model.User], error)
}

type collectService struct {
	base
	notifications NotificationService
	perPage       int
}

func NewCollectService(store *repository.Store, timeout time.Duration, notifications NotificationService, perPage int) CollectService {
	return &collectService{base: newBase(store, timeout), notifications: notifications, perPage: perPage}
}

// Collect 收藏提交后再尽力发送通知；通知失败只记日志，收藏照常成功
func (s *collectService) Collect(ctx context.Context, actor Actor, photoID string) error {
	if err := actor.require(model.PermCollect, true); err != nil {
		return err
	}
	tctx, cancel := s.begin(ctx)
	defer cancel()

	var author *model.User
	err := storeErr(s.store.Transaction(tctx, func(tx *repository.Store) error {
		photo, err := tx.Photos.GetByID(tctx, photoID)
		if err != nil {
			return storeErr(err)
		}
		created, err := tx.Collects.Create(tctx, actor.ID, photo.ID)
		if err != nil {
			return storeErr(err)
		}
		if !created {
			return ErrAlreadyCollected
		}
		author, err = tx.Users.GetByID(tctx, photo.AuthorID)
		if err = storeErr(err); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}))
	if err != nil {
		return err
	}

	if !wantsNotification(author, actor.ID, model.NotificationCollect) {
		return nil
	}
	if s.notifications == nil {
		return nil
	}
	_, err = s.notifications.Push(ctx, NotificationEvent{
		Kind:       model.NotificationCollect,
		PhotoID:    photoID,
		ReceiverID: author.ID,
		Actor:      actor,
	})
	if err != nil {
		logger.Warn("collect notification dropped",
			zap.Error(errors.Join(ErrNotificationDeliveryFailed, err)),
			zap.String("photo", photoID),
			zap.String("receiver", author.ID),
		)
	}
	return nil
}

func (s *collectService) Uncollect(ctx context.Context, actor Actor, photoID string) error {
	if err := actor.require(model.PermCollect, true); err != nil {
		return err
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	deleted, err := s.store.Collects.Delete(ctx, actor.ID, photoID)
	if err != nil {
		return storeErr(err)
	}
	if !deleted {
		return ErrNotCollected
	}
	return nil
}

func (s *collectService) IsCollecting(ctx context.Context, userID, photoID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	ok, err := s.store.Collects.Exists(ctx, userID, photoID)
	return ok, storeErr(err)
}

func (s *collectService) ListCollectors(ctx context.Context, photoID string, page, pageSize int) (*Page[*model.User], error) {
	page, pageSize, offset := normalizePage(page, pageSize, s.perPage)
	ctx, cancel := s.begin(ctx)
	defer cancel()

	if _, err := s.store.Photos.GetByID(ctx, photoID); err != nil {
		return nil, storeErr(err)
	}
	items, total, err := s.store.Collects.ListByPhoto(ctx, photoID, offset, pageSize)
	if err != nil {
		return nil, storeErr(err)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.UserID
	}
	users, err := s.store.Users.GetMany(ctx, ids)
	if err != nil {
		return nil, storeErr(err)
	}
	return &Page[*model.User]{Items: orderedUsers(ids, users), Page: page, PageSize: pageSize, Total: total}, nil
}
