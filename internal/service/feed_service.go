package service

import (
	"context"
	"strings"
	"time"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
)

// SearchCategory 搜索对象
type SearchCategory string

const (
	SearchPhoto SearchCategory = "photo"
	SearchUser  SearchCategory = "user"
	SearchTag   SearchCategory = "tag"
)

// HomeFeed 匿名访问时 Anonymous=true 且 Photos 为空，不视为错误
type HomeFeed struct {
	Anonymous bool                `json:"anonymous"`
	Photos    *Page[*model.Photo] `json:"photos,omitempty"`
}

// TagPhotos 标签页
type TagPhotos struct {
	Tag    *model.Tag            `json:"tag"`
	Order  repository.PhotoOrder `json:"order"`
	Photos *Page[*model.Photo]   `json:"photos"`
}

// SearchResult 只有与 Category 对应的字段非空
type SearchResult struct {
	Query    string              `json:"query"`
	Category SearchCategory      `json:"category"`
	Photos   *Page[*model.Photo] `json:"photos,omitempty"`
	Users    *Page[*model.User]  `json:"users,omitempty"`
	Tags     *Page[*model.Tag]   `json:"tags,omitempty"`
}

// FeedService 只读聚合查询：首页、热门标签、探索、标签页、搜索
type FeedService interface {
	Home(ctx context.Context, actor Actor, page, pageSize int) (*HomeFeed, error)
	TrendingTags(ctx context.Context, limit int) ([]repository.TagCount, error)
	Explore(ctx context.Context, sampleSize int) ([]*model.Photo, error)
	TagPhotos(ctx context.Context, tagID string, order repository.PhotoOrder, page, pageSize int) (*TagPhotos, error)
	Search(ctx context.Context, query string, category SearchCategory, page, pageSize int) (*SearchResult, error)
}

// FeedOptions 默认分页尺寸
type FeedOptions struct {
	PhotoPerPage      int
	SearchPerPage     int
	ExploreSampleSize int
	TrendingTagLimit  int
}

type feedService struct {
	base
	opts FeedOptions
}

func NewFeedService(store *repository.Store, timeout time.Duration, opts FeedOptions) FeedService {
	return &feedService{base: newBase(store, timeout), opts: opts}
}

func (s *feedService) Home(ctx context.Context, actor Actor, page, pageSize int) (*HomeFeed, error) {
	if !actor.Authenticated() {
		return &HomeFeed{Anonymous: true}, nil
	}
	page, pageSize, offset := normalizePage(page, pageSize, s.opts.PhotoPerPage)
	ctx, cancel := s.begin(ctx)
	defer cancel()

	photos, total, err := s.store.Photos.ListFollowedFeed(ctx, actor.ID, offset, pageSize)
	if err != nil {
		return nil, storeErr(err)
	}
	return &HomeFeed{Photos: &Page[*model.Photo]{Items: photos, Page: page, PageSize: pageSize, Total: total}}, nil
}

func (s *feedService) TrendingTags(ctx context.Context, limit int) ([]repository.TagCount, error) {
	if limit <= 0 {
		limit = s.opts.TrendingTagLimit
	}
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	tags, err := s.store.Tags.Trending(ctx, limit)
	return tags, storeErr(err)
}

func (s *feedService) Explore(ctx context.Context, sampleSize int) ([]*model.Photo, error) {
	if sampleSize <= 0 {
		sampleSize = s.opts.ExploreSampleSize
	}
	if sampleSize <= 0 {
		sampleSize = 12
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	photos, err := s.store.Photos.Random(ctx, sampleSize)
	return photos, storeErr(err)
}

func (s *feedService) TagPhotos(ctx context.Context, tagID string, order repository.PhotoOrder, page, pageSize int) (*TagPhotos, error) {
	if order != repository.OrderByCollects {
		order = repository.OrderByTime
	}
	page, pageSize, offset := normalizePage(page, pageSize, s.opts.PhotoPerPage)
	ctx, cancel := s.begin(ctx)
	defer cancel()

	tag, err := s.store.Tags.GetByID(ctx, tagID)
	if err != nil {
		return nil, storeErr(err)
	}
	photos, total, err := s.store.Photos.ListByTag(ctx, tag.ID, order, offset, pageSize)
	if err != nil {
		return nil, storeErr(err)
	}
	return &TagPhotos{
		Tag:    tag,
		Order:  order,
		Photos: &Page[*model.Photo]{Items: photos, Page: page, PageSize: pageSize, Total: total},
	}, nil
}

func (s *feedService) Search(ctx context.Context, query string, category SearchCategory, page, pageSize int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	page, pageSize, offset := normalizePage(page, pageSize, s.opts.SearchPerPage)
	ctx, cancel := s.begin(ctx)
	defer cancel()

	res := &SearchResult{Query: query, Category: category}
	switch category {
	case SearchUser:
		users, total, err := s.store.Users.Search(ctx, query, offset, pageSize)
		if err != nil {
			return nil, storeErr(err)
		}
		res.Users = &Page[*model.User]{Items: users, Page: page, PageSize: pageSize, Total: total}
	case SearchTag:
		tags, total, err := s.store.Tags.Search(ctx, query, offset, pageSize)
		if err != nil {
			return nil, storeErr(err)
		}
		res.Tags = &Page[*model.Tag]{Items: tags, Page: page, PageSize: pageSize, Total: total}
	default:
		res.Category = SearchPhoto
		photos, total, err := s.store.Photos.Search(ctx, query, offset, pageSize)
		if err != nil {
			return nil, storeErr(err)
		}
		res.Photos = &Page[*model.Photo]{Items: photos, Page: page, PageSize: pageSize, Total: total}
	}
	return res, nil
}
