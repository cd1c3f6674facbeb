package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/albumy/internal/model"
)

type CollectRepository interface {
	Create(ctx context.Context, userID, photoID string) (bool, error)
	Delete(ctx context.Context, userID, photoID string) (bool, error)
	Exists(ctx context.Context, userID, photoID string) (bool, error)
	ListByPhoto(ctx context.Context, photoID string, offset, limit int) ([]*model.Collect, int64, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Collect, int64, error)
	CountByPhotos(ctx context.Context, photoIDs []string) (map[string]int64, error)
	DeleteByPhoto(ctx context.Context, photoID string) error
}

type collectRepository struct{ db *gorm.DB }

func NewCollectRepository(db *gorm.DB) CollectRepository { return &collectRepository{db: db} }

func (r *collectRepository) Create(ctx context.Context, userID, photoID string) (bool, error) {
	c := &model.Collect{ID: model.NewID(), UserID: userID, PhotoID: photoID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(c)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *collectRepository) Delete(ctx context.Context, userID, photoID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Delete(&model.Collect{})
	return res.RowsAffected > 0, res.Error
}

func (r *collectRepository) Exists(ctx context.Context, userID, photoID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Collect{}).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Count(&cnt).Error
	return cnt > 0, err
}

// ListByPhoto 收藏者列表，按收藏时间正序
func (r *collectRepository) ListByPhoto(ctx context.Context, photoID string, offset, limit int) ([]*model.Collect, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Collect{}).Where("photo_id = ?", photoID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Collect
	err := q.Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}

func (r *collectRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Collect, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Collect{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Collect
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}

func (r *collectRepository) CountByPhotos(ctx context.Context, photoIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(photoIDs))
	if len(photoIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PhotoID string
		Cnt     int64
	}
	err := r.db.WithContext(ctx).Model(&model.Collect{}).
		Select("photo_id, COUNT(*) AS cnt").
		Where("photo_id IN ?", photoIDs).
		Group("photo_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PhotoID] = row.Cnt
	}
	return out, nil
}

func (r *collectRepository) DeleteByPhoto(ctx context.Context, photoID string) error {
	return r.db.WithContext(ctx).Where("photo_id = ?", photoID).Delete(&model.Collect{}).Error
}
