package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/internal/imaging"
	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/pkg/logger"
)

// PhotoDetail 照片页所需的聚合数据
type PhotoDetail struct {
	*model.Photo
	Author         *model.User  `json:"author,omitempty"`
	Tags           []*model.Tag `json:"tags"`
	CollectorCount int64        `json:"collector_count"`
}

// ImageRemover 删除照片后清理文件（可选）
type ImageRemover interface {
	Remove(stored imaging.Stored) error
}

// PhotoService 照片
type PhotoService interface {
	Create(ctx context.Context, actor Actor, stored imaging.Stored, description string) (*model.Photo, error)
	Get(ctx context.Context, photoID string) (*PhotoDetail, error)
	EditDescription(ctx context.Context, actor Actor, photoID, description string) error
	ToggleComment(ctx context.Context, actor Actor, photoID string) (bool, error)
	Report(ctx context.Context, actor Actor, photoID string) error
	// Delete 显式级联：评论、收藏、标签关联、孤儿标签，最后删照片
	Delete(ctx context.Context, actor Actor, photoID string) error
	Next(ctx context.Context, photoID string) (*model.Photo, error)
	Previous(ctx context.Context, photoID string) (*model.Photo, error)
	ListByAuthor(ctx context.Context, authorID string, page, pageSize int) (*Page[*model.Photo], error)
}

type photoService struct {
	base
	images  ImageRemover
	perPage int
}

func NewPhotoService(store *repository.Store, timeout time.Duration, images ImageRemover, perPage int) PhotoService {
	return &photoService{base: newBase(store, timeout), images: images, perPage: perPage}
}

func (s *photoService) Create(ctx context.Context, actor Actor, stored imaging.Stored, description string) (*model.Photo, error) {
	if err := actor.require(model.PermUpload, true); err != nil {
		return nil, err
	}
	if stored.Filename == "" {
		return nil, ErrInvalidInput
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	p := &model.Photo{
		AuthorID:    actor.ID,
		Description: description,
		Filename:    stored.Filename,
		FilenameS:   stored.Small,
		FilenameM:   stored.Medium,
		CanComment:  true,
	}
	if err := s.store.Photos.Create(ctx, p); err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

func (s *photoService) Get(ctx context.Context, photoID string) (*PhotoDetail, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	p, err := s.store.Photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, storeErr(err)
	}
	d := &PhotoDetail{Photo: p}
	if d.Author, err = s.store.Users.GetByID(ctx, p.AuthorID); err != nil {
		if err = storeErr(err); !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if d.Tags, err = s.store.Tags.ListByPhoto(ctx, p.ID); err != nil {
		return nil, storeErr(err)
	}
	counts, err := s.store.Collects.CountByPhotos(ctx, []string{p.ID})
	if err != nil {
		return nil, storeErr(err)
	}
	d.CollectorCount = counts[p.ID]
	return d, nil
}

func (s *photoService) EditDescription(ctx context.Context, actor Actor, photoID, description string) error {
	return s.updateOwned(ctx, actor, photoID, func(tx *repository.Store, p *model.Photo) error {
		return tx.Photos.Update(ctx, p.ID, map[string]any{"description": description})
	})
}

// ToggleComment 切换是否允许评论，返回切换后的状态
func (s *photoService) ToggleComment(ctx context.Context, actor Actor, photoID string) (bool, error) {
	var enabled bool
	err := s.updateOwned(ctx, actor, photoID, func(tx *repository.Store, p *model.Photo) error {
		enabled = !p.CanComment
		return tx.Photos.Update(ctx, p.ID, map[string]any{"can_comment": enabled})
	})
	return enabled, err
}

func (s *photoService) updateOwned(ctx context.Context, actor Actor, photoID string, fn func(tx *repository.Store, p *model.Photo) error) error {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	return storeErr(s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Photos.GetByID(ctx, photoID)
		if err != nil {
			return storeErr(err)
		}
		if !actor.owns(p.AuthorID) {
			return ErrForbidden
		}
		return storeErr(fn(tx, p))
	}))
}

func (s *photoService) Report(ctx context.Context, actor Actor, photoID string) error {
	if !actor.Authenticated() {
		return ErrForbidden
	}
	if !actor.Confirmed {
		return ErrUnconfirmed
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	return storeErr(s.store.Photos.IncrementFlag(ctx, photoID))
}

func (s *photoService) Delete(ctx context.Context, actor Actor, photoID string) error {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	var deleted *model.Photo
	err := storeErr(s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Photos.GetByID(ctx, photoID)
		if err != nil {
			return storeErr(err)
		}
		if !actor.owns(p.AuthorID) {
			return ErrForbidden
		}
		if err := tx.Comments.DeleteByPhoto(ctx, p.ID); err != nil {
			return storeErr(err)
		}
		if err := tx.Collects.DeleteByPhoto(ctx, p.ID); err != nil {
			return storeErr(err)
		}
		tagIDs, err := tx.Tags.DetachAll(ctx, p.ID)
		if err != nil {
			return storeErr(err)
		}
		if _, err := tx.Tags.DeleteOrphans(ctx, tagIDs); err != nil {
			return storeErr(err)
		}
		if err := tx.Photos.Delete(ctx, p.ID); err != nil {
			return storeErr(err)
		}
		deleted = p
		return nil
	}))
	if err != nil {
		return err
	}

	if s.images != nil {
		stored := imaging.Stored{Filename: deleted.Filename, Small: deleted.FilenameS, Medium: deleted.FilenameM}
		if err := s.images.Remove(stored); err != nil {
			logger.Warn("remove photo files failed", zap.Error(err), zap.String("photo", deleted.ID))
		}
	}
	return nil
}

func (s *photoService) Next(ctx context.Context, photoID string) (*model.Photo, error) {
	return s.neighbor(ctx, photoID, true)
}

func (s *photoService) Previous(ctx context.Context, photoID string) (*model.Photo, error) {
	return s.neighbor(ctx, photoID, false)
}

func (s *photoService) neighbor(ctx context.Context, photoID string, older bool) (*model.Photo, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	p, err := s.store.Photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, storeErr(err)
	}
	n, err := s.store.Photos.Neighbor(ctx, p.AuthorID, p.ID, older)
	if err != nil {
		return nil, storeErr(err)
	}
	return n, nil
}

func (s *photoService) ListByAuthor(ctx context.Context, authorID string, page, pageSize int) (*Page[*model.Photo], error) {
	page, pageSize, offset := normalizePage(page, pageSize, s.perPage)
	ctx, cancel := s.begin(ctx)
	defer cancel()

	photos, total, err := s.store.Photos.ListByAuthor(ctx, authorID, offset, pageSize)
	if err != nil {
		return nil, storeErr(err)
	}
	return &Page[*model.Photo]{Items: photos, Page: page, PageSize: pageSize, Total: total}, nil
}
