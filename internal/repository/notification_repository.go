package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/albumy/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	// MarkAllRead 单条 UPDATE 完成，返回被置为已读的条数
	MarkAllRead(ctx context.Context, receiverID string) (int64, error)
	List(ctx context.Context, receiverID string, unreadOnly bool, offset, limit int) ([]*model.Notification, int64, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = model.NewID()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, receiverID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) List(ctx context.Context, receiverID string, unreadOnly bool, offset, limit int) ([]*model.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where("receiver_id = ?", receiverID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Notification
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&cnt).Error
	return cnt, err
}
