package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/pkg/logger"
)

// RelationshipService 关注关系
type RelationshipService interface {
	Follow(ctx context.Context, actor Actor, followedID string) error
	Unfollow(ctx context.Context, actor Actor, followedID string) error
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	ListFollowing(ctx context.Context, userID string, page, pageSize int) (*Page[*model.User], error)
	ListFollowers(ctx context.Context, userID string, page, pageSize int) (*Page[*model.User], error)
}

type relationshipService struct {
	base
	perPage int
}

func NewRelationshipService(store *repository.Store, timeout time.Duration, perPage int) RelationshipService {
	return &relationshipService{base: newBase(store, timeout), perPage: perPage}
}

func (s *relationshipService) Follow(ctx context.Context, actor Actor, followedID string) error {
	if err := actor.require(model.PermFollow, false); err != nil {
		return err
	}
	if actor.ID == followedID {
		return ErrFollowSelf
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	err := storeErr(s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByID(ctx, followedID); err != nil {
			return storeErr(err)
		}
		created, err := tx.Follows.Create(ctx, actor.ID, followedID)
		if err != nil {
			return storeErr(err)
		}
		if !created {
			return ErrAlreadyFollowing
		}
		return nil
	}))
	if err != nil {
		return err
	}
	logger.Debug("follow created", zap.String("follower", actor.ID), zap.String("followed", followedID))
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, actor Actor, followedID string) error {
	if !actor.Authenticated() {
		return ErrForbidden
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	deleted, err := s.store.Follows.Delete(ctx, actor.ID, followedID)
	if err != nil {
		return storeErr(err)
	}
	if !deleted {
		return ErrNotFollowing
	}
	return nil
}

func (s *relationshipService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	if followerID == "" || followedID == "" {
		return false, nil
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	ok, err := s.store.Follows.Exists(ctx, followerID, followedID)
	return ok, storeErr(err)
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) (*Page[*model.User], error) {
	return s.list(ctx, userID, page, pageSize, true)
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID string, page, pageSize int) (*Page[*model.User], error) {
	return s.list(ctx, userID, page, pageSize, false)
}

func (s *relationshipService) list(ctx context.Context, userID string, page, pageSize int, following bool) (*Page[*model.User], error) {
	page, pageSize, offset := normalizePage(page, pageSize, s.perPage)
	ctx, cancel := s.begin(ctx)
	defer cancel()

	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, storeErr(err)
	}
	var (
		items []*model.Follow
		total int64
		err   error
	)
	if following {
		items, total, err = s.store.Follows.ListFollowings(ctx, userID, offset, pageSize)
	} else {
		items, total, err = s.store.Follows.ListFollowers(ctx, userID, offset, pageSize)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		if following {
			ids[i] = it.FollowedID
		} else {
			ids[i] = it.FollowerID
		}
	}
	users, err := s.store.Users.GetMany(ctx, ids)
	if err != nil {
		return nil, storeErr(err)
	}
	return &Page[*model.User]{Items: orderedUsers(ids, users), Page: page, PageSize: pageSize, Total: total}, nil
}
