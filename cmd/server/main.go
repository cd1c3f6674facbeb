package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/config"
	"github.com/d60-Lab/albumy/internal/api"
	"github.com/d60-Lab/albumy/internal/api/handler"
	"github.com/d60-Lab/albumy/internal/imaging"
	"github.com/d60-Lab/albumy/internal/mailer"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/internal/service"
	"github.com/d60-Lab/albumy/pkg/database"
	"github.com/d60-Lab/albumy/pkg/logger"
	"github.com/d60-Lab/albumy/pkg/token"
	"github.com/d60-Lab/albumy/pkg/tracing"
)

// @title Albumy API
// @version 1.0
// @description 照片分享：关注、收藏、评论、标签、通知与发现
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("init database failed", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close(db)

	var sender mailer.Sender = mailer.LogSender{}
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, mail events only logged", zap.Error(err))
		} else {
			sender = mailer.NewRedisQueue(rdb, cfg.Redis.MailQueue)
		}
	}
	dispatcher := mailer.NewDispatcher(sender, 1024)
	stopDispatcher := dispatcher.Start(2)

	images, err := imaging.NewLocalStore(cfg.App.UploadPath, cfg.App.PhotoSizes)
	if err != nil {
		logger.Error("init upload dir failed", zap.Error(err))
		os.Exit(1)
	}

	store := repository.NewStore(db)
	timeout := cfg.Database.StatementTimeout
	identity := service.NewIdentityService(store, timeout,
		token.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.TokenTTL),
		dispatcher,
		service.IdentityOptions{AdminEmail: cfg.App.AdminEmail},
	)
	service.SetMaxPageSize(cfg.App.MaxPageSize)
	notifications := service.NewNotificationService(store, timeout, cfg.App.NotificationPerPage)
	feed := service.NewFeedService(store, timeout, service.FeedOptions{
		PhotoPerPage:      cfg.App.PhotoPerPage,
		SearchPerPage:     cfg.App.SearchPerPage,
		ExploreSampleSize: cfg.App.ExploreSampleSize,
		TrendingTagLimit:  cfg.App.TrendingTagLimit,
	})
	h := handler.New(handler.Services{
		Identity:      identity,
		Relations:     service.NewRelationshipService(store, timeout, cfg.App.UserPerPage),
		Collects:      service.NewCollectService(store, timeout, notifications, cfg.App.UserPerPage),
		Comments:      service.NewCommentService(store, timeout, cfg.App.CommentPerPage),
		Tags:          service.NewTagService(store, timeout),
		Photos:        service.NewPhotoService(store, timeout, images, cfg.App.PhotoPerPage),
		Feed:          feed,
		Notifications: notifications,
		Images:        images,
	}, cfg.App.MaxUploadBytes)

	router, err := api.NewRouter(h, identity, api.Options{
		Mode:        cfg.Server.Mode,
		ServiceName: cfg.Tracing.ServiceName,
		Tracing:     cfg.Tracing.Enabled,
		Sentry:      cfg.Sentry.DSN != "",
		RateRPS:     cfg.RateLimit.RPS,
		RateBurst:   cfg.RateLimit.Burst,
		UploadDir:   images.Dir(),
	})
	if err != nil {
		logger.Error("init router failed", zap.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := stopDispatcher(shutdownCtx); err != nil {
		logger.Warn("mail dispatcher did not drain", zap.Error(err), zap.Int("pending", dispatcher.QueueLen()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}
