package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/albumy/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	GetMany(ctx context.Context, ids []string) (map[string]*model.Comment, error)
	Delete(ctx context.Context, id string) error
	IncrementFlag(ctx context.Context, id string) error
	// ListByPhoto 评论按时间正序
	ListByPhoto(ctx context.Context, photoID string, offset, limit int) ([]*model.Comment, int64, error)
	DeleteByPhoto(ctx context.Context, photoID string) error
}

type commentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commentRepository) GetMany(ctx context.Context, ids []string) (map[string]*model.Comment, error) {
	out := make(map[string]*model.Comment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*model.Comment
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{}).Error
}

func (r *commentRepository) IncrementFlag(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ?", id).
		Update("flag", gorm.Expr("flag + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *commentRepository) ListByPhoto(ctx context.Context, photoID string, offset, limit int) ([]*model.Comment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Comment{}).Where("photo_id = ?", photoID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Comment
	err := q.Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&res).Error
	return res, total, err
}

func (r *commentRepository) DeleteByPhoto(ctx context.Context, photoID string) error {
	return r.db.WithContext(ctx).Where("photo_id = ?", photoID).Delete(&model.Comment{}).Error
}
