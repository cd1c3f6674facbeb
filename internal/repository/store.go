package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 聚合全部仓储；Transaction 内拿到的是绑定同一事务的副本
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Photos        PhotoRepository
	Tags          TagRepository
	Comments      CommentRepository
	Follows       FollowRepository
	Collects      CollectRepository
	Notifications NotificationRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Photos:        NewPhotoRepository(db),
		Tags:          NewTagRepository(db),
		Comments:      NewCommentRepository(db),
		Follows:       NewFollowRepository(db),
		Collects:      NewCollectRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// Transaction 在单个事务内执行 fn，fn 返回错误则整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB { return s.db }
