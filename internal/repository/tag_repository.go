package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/albumy/internal/model"
)

// TagCount 标签及其照片数
type TagCount struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PhotoCount int64  `json:"photo_count"`
}

type TagRepository interface {
	GetByID(ctx context.Context, id string) (*model.Tag, error)
	// FindOrCreate 按名称精确匹配，不存在则创建
	FindOrCreate(ctx context.Context, name string) (*model.Tag, error)
	Attach(ctx context.Context, photoID, tagID string) error
	// Detach 返回 false 表示该标签原本不在照片上
	Detach(ctx context.Context, photoID, tagID string) (bool, error)
	// DetachAll 移除照片的全部标签，返回受影响的标签 id
	DetachAll(ctx context.Context, photoID string) ([]string, error)
	// DeleteOrphans 删除给定标签中已无照片的那些，返回被删除的 id
	DeleteOrphans(ctx context.Context, tagIDs []string) ([]string, error)
	ListByPhoto(ctx context.Context, photoID string) ([]*model.Tag, error)
	Trending(ctx context.Context, limit int) ([]TagCount, error)
	Search(ctx context.Context, q string, offset, limit int) ([]*model.Tag, int64, error)
}

type tagRepository struct{ db *gorm.DB }

func NewTagRepository(db *gorm.DB) TagRepository { return &tagRepository{db: db} }

func (r *tagRepository) GetByID(ctx context.Context, id string) (*model.Tag, error) {
	var t model.Tag
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepository) FindOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	t := &model.Tag{ID: model.NewID(), Name: name}
	// 并发创建同名标签时唯一索引兜底，再按名称回读
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(t).Error; err != nil {
		return nil, err
	}
	var out model.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *tagRepository) Attach(ctx context.Context, photoID, tagID string) error {
	pt := &model.PhotoTag{PhotoID: photoID, TagID: tagID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(pt).Error
}

func (r *tagRepository) Detach(ctx context.Context, photoID, tagID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("photo_id = ? AND tag_id = ?", photoID, tagID).
		Delete(&model.PhotoTag{})
	return res.RowsAffected > 0, res.Error
}

func (r *tagRepository) DetachAll(ctx context.Context, photoID string) ([]string, error) {
	var tagIDs []string
	if err := r.db.WithContext(ctx).Model(&model.PhotoTag{}).
		Where("photo_id = ?", photoID).
		Pluck("tag_id", &tagIDs).Error; err != nil {
		return nil, err
	}
	if len(tagIDs) == 0 {
		return nil, nil
	}
	if err := r.db.WithContext(ctx).Where("photo_id = ?", photoID).Delete(&model.PhotoTag{}).Error; err != nil {
		return nil, err
	}
	return tagIDs, nil
}

func (r *tagRepository) DeleteOrphans(ctx context.Context, tagIDs []string) ([]string, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var orphans []string
	if err := r.db.WithContext(ctx).Model(&model.Tag{}).
		Where("id IN ?", tagIDs).
		Where("NOT EXISTS (SELECT 1 FROM photo_tags WHERE photo_tags.tag_id = tags.id)").
		Pluck("id", &orphans).Error; err != nil {
		return nil, err
	}
	if len(orphans) == 0 {
		return nil, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", orphans).Delete(&model.Tag{}).Error; err != nil {
		return nil, err
	}
	return orphans, nil
}

func (r *tagRepository) ListByPhoto(ctx context.Context, photoID string) ([]*model.Tag, error) {
	var tags []*model.Tag
	err := r.db.WithContext(ctx).Model(&model.Tag{}).
		Joins("JOIN photo_tags ON photo_tags.tag_id = tags.id").
		Where("photo_tags.photo_id = ?", photoID).
		Order("photo_tags.created_at ASC, tags.id ASC").
		Select("tags.*").
		Find(&tags).Error
	return tags, err
}

// Trending 照片数降序，数量相同按 id 升序
func (r *tagRepository) Trending(ctx context.Context, limit int) ([]TagCount, error) {
	var rows []TagCount
	err := r.db.WithContext(ctx).Model(&model.Tag{}).
		Select("tags.id, tags.name, COUNT(photo_tags.photo_id) AS photo_count").
		Joins("JOIN photo_tags ON photo_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("photo_count DESC, tags.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *tagRepository) Search(ctx context.Context, q string, offset, limit int) ([]*model.Tag, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Tag{}).
		Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(q)).
		Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var tags []*model.Tag
	err := tx.Order("name ASC").Offset(offset).Limit(limit).Find(&tags).Error
	return tags, total, err
}
