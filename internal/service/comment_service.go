package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/pkg/logger"
)

// PostCommentInput 发表评论参数；ReplyTo 为空表示直接评论照片
type PostCommentInput struct {
	PhotoID string
	Body    string
	ReplyTo string
	Page    int
}

// CommentView 评论及其被回复评论（被回复评论已删除时 ReplyDeleted=true）
type CommentView struct {
	*model.Comment
	Author       *model.User    `json:"author,omitempty"`
	ReplyTo      *model.Comment `json:"reply_to,omitempty"`
	ReplyDeleted bool           `json:"reply_deleted,omitempty"`
}

// CommentService 评论
type CommentService interface {
	Post(ctx context.Context, actor Actor, in PostCommentInput) (*model.Comment, error)
	Delete(ctx context.Context, actor Actor, commentID string) error
	Report(ctx context.Context, actor Actor, commentID string) error
	List(ctx context.Context, photoID string, page, pageSize int) (*Page[*CommentView], error)
}

type commentService struct {
	base
	perPage int
}

func NewCommentService(store *repository.Store, timeout time.Duration, perPage int) CommentService {
	return &commentService{base: newBase(store, timeout), perPage: perPage}
}

// Post 评论与通知在同一事务中提交；单条通知写入失败时回滚到保存点并记录日志
func (s *commentService) Post(ctx context.Context, actor Actor, in PostCommentInput) (*model.Comment, error) {
	if err := actor.require(model.PermComment, false); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, ErrInvalidInput
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	var comment *model.Comment
	err := storeErr(s.store.Transaction(ctx, func(tx *repository.Store) error {
		photo, err := tx.Photos.GetByID(ctx, in.PhotoID)
		if err != nil {
			return storeErr(err)
		}
		if !photo.CanComment {
			return ErrCommentsDisabled
		}

		var replied *model.Comment
		if in.ReplyTo != "" {
			replied, err = tx.Comments.GetByID(ctx, in.ReplyTo)
			if err != nil {
				return storeErr(err)
			}
			if replied.PhotoID != photo.ID {
				return ErrNotFound
			}
		}

		comment = &model.Comment{AuthorID: actor.ID, PhotoID: photo.ID, Body: body}
		if replied != nil {
			comment.RepliedID = &replied.ID
		}
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return storeErr(err)
		}

		if replied != nil {
			if err := s.notify(ctx, tx, replied.AuthorID, NotificationEvent{
				Kind: model.NotificationComment, PhotoID: photo.ID, Actor: actor, Page: in.Page, Reply: true,
			}); err != nil {
				return err
			}
		}
		return s.notify(ctx, tx, photo.AuthorID, NotificationEvent{
			Kind: model.NotificationComment, PhotoID: photo.ID, Actor: actor, Page: in.Page,
		})
	}))
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// notify 按接收者偏好决定是否写通知；写入失败被吞掉，只有读取接收者失败才中断事务
func (s *commentService) notify(ctx context.Context, tx *repository.Store, receiverID string, ev NotificationEvent) error {
	receiver, err := tx.Users.GetByID(ctx, receiverID)
	if err = storeErr(err); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if !wantsNotification(receiver, ev.Actor.ID, ev.Kind) {
		return nil
	}
	ev.ReceiverID = receiver.ID
	err = storeErr(tx.Transaction(ctx, func(sp *repository.Store) error {
		_, err := pushNotification(ctx, sp.Notifications, ev)
		return err
	}))
	if err != nil {
		if errors.Is(err, ErrStoreTimeout) {
			return err
		}
		logger.Warn("comment notification dropped",
			zap.Error(errors.Join(ErrNotificationDeliveryFailed, err)),
			zap.String("photo", ev.PhotoID),
			zap.String("receiver", receiver.ID),
		)
	}
	return nil
}

func (s *commentService) Delete(ctx context.Context, actor Actor, commentID string) error {
	if !actor.Authenticated() {
		return ErrForbidden
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	c, err := s.store.Comments.GetByID(ctx, commentID)
	if err != nil {
		return storeErr(err)
	}
	if !actor.owns(c.AuthorID) {
		return ErrForbidden
	}
	return storeErr(s.store.Comments.Delete(ctx, c.ID))
}

// Report 举报只累加计数，没有阈值动作
func (s *commentService) Report(ctx context.Context, actor Actor, commentID string) error {
	if !actor.Authenticated() {
		return ErrForbidden
	}
	if !actor.Confirmed {
		return ErrUnconfirmed
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	return storeErr(s.store.Comments.IncrementFlag(ctx, commentID))
}

func (s *commentService) List(ctx context.Context, photoID string, page, pageSize int) (*Page[*CommentView], error) {
	page, pageSize, offset := normalizePage(page, pageSize, s.perPage)
	ctx, cancel := s.begin(ctx)
	defer cancel()

	if _, err := s.store.Photos.GetByID(ctx, photoID); err != nil {
		return nil, storeErr(err)
	}
	comments, total, err := s.store.Comments.ListByPhoto(ctx, photoID, offset, pageSize)
	if err != nil {
		return nil, storeErr(err)
	}

	authorIDs := make([]string, 0, len(comments))
	replyIDs := make([]string, 0)
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
		if c.RepliedID != nil {
			replyIDs = append(replyIDs, *c.RepliedID)
		}
	}
	authors, err := s.store.Users.GetMany(ctx, authorIDs)
	if err != nil {
		return nil, storeErr(err)
	}
	replies, err := s.store.Comments.GetMany(ctx, replyIDs)
	if err != nil {
		return nil, storeErr(err)
	}

	views := make([]*CommentView, len(comments))
	for i, c := range comments {
		v := &CommentView{Comment: c, Author: authors[c.AuthorID]}
		if c.RepliedID != nil {
			if target, ok := replies[*c.RepliedID]; ok {
				v.ReplyTo = target
			} else {
				v.ReplyDeleted = true
			}
		}
		views[i] = v
	}
	return &Page[*CommentView]{Items: views, Page: page, PageSize: pageSize, Total: total}, nil
}
