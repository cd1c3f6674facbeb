package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/albumy/internal/model"
)

type FollowRepository interface {
	// Create 返回 false 表示关系已存在
	Create(ctx context.Context, followerID, followedID string) (bool, error)
	// Delete 返回 false 表示关系不存在
	Delete(ctx context.Context, followerID, followedID string) (bool, error)
	Exists(ctx context.Context, followerID, followedID string) (bool, error)
	ListFollowings(ctx context.Context, followerID string, offset, limit int) ([]*model.Follow, int64, error)
	ListFollowers(ctx context.Context, followedID string, offset, limit int) ([]*model.Follow, int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Create(ctx context.Context, followerID, followedID string) (bool, error) {
	f := &model.Follow{ID: model.NewID(), FollowerID: followerID, FollowedID: followedID}
	// 唯一键冲突时不写入，用 RowsAffected 判断是否重复
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followedID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&model.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) ListFollowings(ctx context.Context, followerID string, offset, limit int) ([]*model.Follow, int64, error) {
	return r.list(ctx, "follower_id = ?", followerID, offset, limit)
}

func (r *followRepository) ListFollowers(ctx context.Context, followedID string, offset, limit int) ([]*model.Follow, int64, error) {
	return r.list(ctx, "followed_id = ?", followedID, offset, limit)
}

func (r *followRepository) list(ctx context.Context, cond, id string, offset, limit int) ([]*model.Follow, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Follow{}).Where(cond, id).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Follow
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}
