package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/albumy/internal/model"
)

// PhotoOrder 标签页排序方式
type PhotoOrder string

const (
	OrderByTime     PhotoOrder = "by_time"
	OrderByCollects PhotoOrder = "by_collects"
)

type PhotoRepository interface {
	Create(ctx context.Context, p *model.Photo) error
	GetByID(ctx context.Context, id string) (*model.Photo, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	IncrementFlag(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// ListFollowedFeed 读时扇出：follower 关注的所有作者的照片，新的在前
	ListFollowedFeed(ctx context.Context, followerID string, offset, limit int) ([]*model.Photo, int64, error)
	ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Photo, int64, error)
	ListByTag(ctx context.Context, tagID string, order PhotoOrder, offset, limit int) ([]*model.Photo, int64, error)
	Random(ctx context.Context, n int) ([]*model.Photo, error)
	// Neighbor 同作者相邻照片；older=true 取 id 更小的一张
	Neighbor(ctx context.Context, authorID, photoID string, older bool) (*model.Photo, error)
	Search(ctx context.Context, q string, offset, limit int) ([]*model.Photo, int64, error)
}

type photoRepository struct{ db *gorm.DB }

func NewPhotoRepository(db *gorm.DB) PhotoRepository { return &photoRepository{db: db} }

func (r *photoRepository) Create(ctx context.Context, p *model.Photo) error {
	if p.ID == "" {
		p.ID = model.NewID()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *photoRepository) GetByID(ctx context.Context, id string) (*model.Photo, error) {
	var p model.Photo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *photoRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Photo{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *photoRepository) IncrementFlag(ctx context.Context, id string) error {
	return r.Update(ctx, id, map[string]any{"flag": gorm.Expr("flag + 1")})
}

func (r *photoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Photo{}).Error
}

func (r *photoRepository) ListFollowedFeed(ctx context.Context, followerID string, offset, limit int) ([]*model.Photo, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Photo{}).
		Joins("JOIN follows ON follows.followed_id = photos.author_id").
		Where("follows.follower_id = ?", followerID)
	return r.page(q, "photos.created_at DESC, photos.id DESC", offset, limit)
}

func (r *photoRepository) ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Photo, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Photo{}).Where("photos.author_id = ?", authorID)
	return r.page(q, "photos.created_at DESC, photos.id DESC", offset, limit)
}

// ListByTag 按收藏数排序时在分页之前全局排序
func (r *photoRepository) ListByTag(ctx context.Context, tagID string, order PhotoOrder, offset, limit int) ([]*model.Photo, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Photo{}).
		Joins("JOIN photo_tags ON photo_tags.photo_id = photos.id").
		Where("photo_tags.tag_id = ?", tagID)
	orderBy := "photos.created_at DESC, photos.id DESC"
	if order == OrderByCollects {
		orderBy = "(SELECT COUNT(*) FROM collects WHERE collects.photo_id = photos.id) DESC, " + orderBy
	}
	return r.page(q, orderBy, offset, limit)
}

func (r *photoRepository) page(q *gorm.DB, orderBy string, offset, limit int) ([]*model.Photo, int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var photos []*model.Photo
	err := q.Select("photos.*").Order(orderBy).Offset(offset).Limit(limit).Find(&photos).Error
	return photos, total, err
}

func (r *photoRepository) Random(ctx context.Context, n int) ([]*model.Photo, error) {
	var photos []*model.Photo
	// RANDOM() 在 sqlite 与 postgres 下均可用
	err := r.db.WithContext(ctx).Order("RANDOM()").Limit(n).Find(&photos).Error
	return photos, err
}

func (r *photoRepository) Neighbor(ctx context.Context, authorID, photoID string, older bool) (*model.Photo, error) {
	q := r.db.WithContext(ctx).Where("author_id = ?", authorID)
	if older {
		q = q.Where("id < ?", photoID).Order("id DESC")
	} else {
		q = q.Where("id > ?", photoID).Order("id ASC")
	}
	var p model.Photo
	if err := q.Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *photoRepository) Search(ctx context.Context, q string, offset, limit int) ([]*model.Photo, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Photo{}).
		Where("LOWER(photos.description) LIKE ? ESCAPE '\\'", likePattern(q))
	return r.page(tx, "photos.created_at DESC, photos.id DESC", offset, limit)
}
