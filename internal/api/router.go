package api

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/albumy/docs"
	"github.com/d60-Lab/albumy/internal/api/handler"
	"github.com/d60-Lab/albumy/internal/api/middleware"
)

// Options 路由层开关
type Options struct {
	Mode        string
	ServiceName string
	Tracing     bool
	Sentry      bool
	RateRPS     float64
	RateBurst   int
	UploadDir   string
}

// NewRouter 组装中间件与全部路由
func NewRouter(h *handler.Handler, auth middleware.Authenticator, opts Options) (*gin.Engine, error) {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	limiter := middleware.NewRateLimiter(opts.RateRPS, opts.RateBurst)
	v1 := r.Group("/api/v1", limiter.Middleware(), middleware.Auth(auth))
	RegisterRoutes(v1, h)
	return r, nil
}

// RegisterRoutes 挂载业务路由；需要登录的接口统一经过 RequireLogin
func RegisterRoutes(v1 *gin.RouterGroup, h *handler.Handler) {
	login := middleware.RequireLogin()

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/forget-password", h.ForgetPassword)
		authGroup.POST("/reset-password", h.ResetPassword)
		authGroup.POST("/confirm", login, h.Confirm)
		authGroup.POST("/resend-confirm", login, h.ResendConfirm)
	}
	v1.PUT("/settings/notifications", login, h.UpdateNotificationSettings)

	users := v1.Group("/users")
	{
		users.GET("/by-name/:username", h.GetUser)
		users.POST("/:user_id/follow", login, h.Follow)
		users.DELETE("/:user_id/follow", login, h.Unfollow)
		users.GET("/:user_id/following", h.ListFollowing)
		users.GET("/:user_id/followers", h.ListFollowers)
	}

	photos := v1.Group("/photos")
	{
		photos.POST("", login, h.UploadPhoto)
		photos.GET("/:photo_id", h.GetPhoto)
		photos.DELETE("/:photo_id", login, h.DeletePhoto)
		photos.PUT("/:photo_id/description", login, h.EditDescription)
		photos.POST("/:photo_id/toggle-comment", login, h.ToggleComment)
		photos.POST("/:photo_id/report", login, h.ReportPhoto)
		photos.GET("/:photo_id/next", h.NextPhoto)
		photos.GET("/:photo_id/previous", h.PreviousPhoto)
		photos.POST("/:photo_id/collect", login, h.Collect)
		photos.DELETE("/:photo_id/collect", login, h.Uncollect)
		photos.GET("/:photo_id/collectors", h.ListCollectors)
		photos.GET("/:photo_id/comments", h.ListComments)
		photos.POST("/:photo_id/comments", login, h.PostComment)
		photos.POST("/:photo_id/tags", login, h.AddTags)
		photos.DELETE("/:photo_id/tags/:tag_id", login, h.RemoveTag)
	}

	comments := v1.Group("/comments", login)
	{
		comments.DELETE("/:comment_id", h.DeleteComment)
		comments.POST("/:comment_id/report", h.ReportComment)
	}

	tags := v1.Group("/tags")
	{
		tags.GET("/trending", h.TrendingTags)
		tags.GET("/:tag_id/photos", h.TagPhotos)
	}

	notifications := v1.Group("/notifications", login)
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.POST("/:notification_id/read", h.MarkRead)
	}

	v1.GET("/feed", h.Home)
	v1.GET("/explore", h.Explore)
	v1.GET("/search", h.Search)
}
