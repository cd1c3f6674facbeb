package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/albumy/internal/api/middleware"
	"github.com/d60-Lab/albumy/internal/imaging"
	"github.com/d60-Lab/albumy/internal/service"
)

// ImageStore 上传图片落盘并生成缩略图
type ImageStore interface {
	Save(originalName string, r io.Reader) (imaging.Stored, error)
	Remove(stored imaging.Stored) error
}

// Services 处理器依赖的全部服务
type Services struct {
	Identity      service.IdentityService
	Relations     service.RelationshipService
	Collects      service.CollectService
	Comments      service.CommentService
	Tags          service.TagService
	Photos        service.PhotoService
	Feed          service.FeedService
	Notifications service.NotificationService
	Images        ImageStore
}

type Handler struct {
	identity      service.IdentityService
	relService    service.RelationshipService
	collects      service.CollectService
	comments      service.CommentService
	tags          service.TagService
	photos        service.PhotoService
	feed          service.FeedService
	notifications service.NotificationService
	images        ImageStore
	maxUpload     int64
}

func New(s Services, maxUploadBytes int64) *Handler {
	return &Handler{
		identity:      s.Identity,
		relService:    s.Relations,
		collects:      s.Collects,
		comments:      s.Comments,
		tags:          s.Tags,
		photos:        s.Photos,
		feed:          s.Feed,
		notifications: s.Notifications,
		images:        s.Images,
		maxUpload:     maxUploadBytes,
	}
}

func actor(c *gin.Context) service.Actor { return middleware.CurrentActor(c) }

// pageQuery 解析 page/page_size，缺省或非法时交给服务层取默认值
func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return page, pageSize
}
