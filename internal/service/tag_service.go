package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/pkg/logger"
)

// TagService 照片标签
type TagService interface {
	// AddTags 按空白切分 raw，去重后逐个查找或创建并挂到照片上，返回照片当前全部标签
	AddTags(ctx context.Context, actor Actor, photoID, raw string) ([]*model.Tag, error)
	RemoveTag(ctx context.Context, actor Actor, photoID, tagID string) error
	ListByPhoto(ctx context.Context, photoID string) ([]*model.Tag, error)
}

type tagService struct {
	base
}

func NewTagService(store *repository.Store, timeout time.Duration) TagService {
	return &tagService{base: newBase(store, timeout)}
}

// splitTagNames 空白切分、丢弃空串、保序去重；大小写敏感
func splitTagNames(raw string) []string {
	fields := strings.Fields(raw)
	seen := make(map[string]struct{}, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		names = append(names, f)
	}
	return names
}

func (s *tagService) AddTags(ctx context.Context, actor Actor, photoID, raw string) ([]*model.Tag, error) {
	names := splitTagNames(raw)
	ctx, cancel := s.begin(ctx)
	defer cancel()

	var tags []*model.Tag
	err := storeErr(s.store.Transaction(ctx, func(tx *repository.Store) error {
		photo, err := tx.Photos.GetByID(ctx, photoID)
		if err != nil {
			return storeErr(err)
		}
		if !actor.owns(photo.AuthorID) {
			return ErrForbidden
		}
		if len(names) == 0 {
			return ErrInvalidInput
		}
		for _, name := range names {
			if utf8.RuneCountInString(name) > model.MaxTagNameLength {
				return ErrInvalidInput
			}
		}
		for _, name := range names {
			tag, err := tx.Tags.FindOrCreate(ctx, name)
			if err != nil {
				return storeErr(err)
			}
			if err := tx.Tags.Attach(ctx, photo.ID, tag.ID); err != nil {
				return storeErr(err)
			}
		}
		tags, err = tx.Tags.ListByPhoto(ctx, photo.ID)
		return storeErr(err)
	}))
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// RemoveTag 摘除后若标签不再挂在任何照片上则删除标签
func (s *tagService) RemoveTag(ctx context.Context, actor Actor, photoID, tagID string) error {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	return storeErr(s.store.Transaction(ctx, func(tx *repository.Store) error {
		photo, err := tx.Photos.GetByID(ctx, photoID)
		if err != nil {
			return storeErr(err)
		}
		if !actor.owns(photo.AuthorID) {
			return ErrForbidden
		}
		if _, err := tx.Tags.GetByID(ctx, tagID); err != nil {
			return storeErr(err)
		}
		detached, err := tx.Tags.Detach(ctx, photo.ID, tagID)
		if err != nil {
			return storeErr(err)
		}
		if !detached {
			return ErrNotAttached
		}
		removed, err := tx.Tags.DeleteOrphans(ctx, []string{tagID})
		if err != nil {
			return storeErr(err)
		}
		if len(removed) > 0 {
			logger.Debug("orphan tag deleted", zap.String("tag", tagID))
		}
		return nil
	}))
}

func (s *tagService) ListByPhoto(ctx context.Context, photoID string) ([]*model.Tag, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	tags, err := s.store.Tags.ListByPhoto(ctx, photoID)
	return tags, storeErr(err)
}
