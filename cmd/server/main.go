// Package main runs the membership association HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nexus-society/backend/config"
	"github.com/nexus-society/backend/internal/admin"
	"github.com/nexus-society/backend/internal/auth"
	"github.com/nexus-society/backend/internal/blogs"
	"github.com/nexus-society/backend/internal/events"
	"github.com/nexus-society/backend/internal/feedback"
	"github.com/nexus-society/backend/internal/gallery"
	"github.com/nexus-society/backend/internal/middleware"
	"github.com/nexus-society/backend/internal/models"
	"github.com/nexus-society/backend/internal/notifications"
	"github.com/nexus-society/backend/internal/registrations"
	"github.com/nexus-society/backend/pkg/database"
	"github.com/nexus-society/backend/pkg/queue"
	"github.com/nexus-society/backend/pkg/redis"
	"github.com/nexus-society/backend/pkg/response"
	"github.com/nexus-society/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, logger)

	// Registration ledger + workflow
	regRepo := registrations.NewRepository(pool)
	notifier := notifications.NewQueueNotifier(jobQueue)
	engine := registrations.NewEngine(regRepo, notifier, logger)
	regHandler := registrations.NewHandler(engine, jobQueue, logger)

	// Blog
	blogRepo := blogs.NewRepository(pool)
	blogHandler := blogs.NewHandler(blogRepo, s3Client, logger)

	// Gallery (S3-backed images)
	galleryRepo := gallery.NewRepository(pool)
	galleryHandler := gallery.NewHandler(galleryRepo, s3Client, logger)

	// Feedback inbox
	feedbackRepo := feedback.NewRepository(pool)
	feedbackHandler := feedback.NewHandler(feedbackRepo, logger)

	// Admin dashboard
	emailLogRepo := notifications.NewRepository(pool)
	adminHandler := admin.NewHandler(authRepo, eventRepo, regRepo, blogRepo, feedbackRepo, emailLogRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public reads
	router.GET("/events", eventHandler.List)
	router.GET("/events/:id", eventHandler.GetByID)
	router.GET("/blogs", blogHandler.List)
	router.GET("/blogs/:id", blogHandler.GetByID)
	router.GET("/gallery", galleryHandler.List)
	router.GET("/gallery/:id", galleryHandler.GetByID)

	// Feedback intake is open to visitors; authenticated submissions get attributed.
	router.POST("/feedback", middleware.OptionalJWT(jwtService), feedbackHandler.Submit)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Profile
		api.GET("/users/me", authHandler.Me)
		api.GET("/users/me/registrations", regHandler.ListMine)

		// Registration workflow (member side)
		api.POST("/events/:id/register", regHandler.Register)
		api.DELETE("/events/:id/register", regHandler.Withdraw)

		// Feedback (member side)
		api.GET("/feedback/my", feedbackHandler.ListMine)

		// Admin
		adminOnly := middleware.RequireRole(string(models.RoleAdmin))

		api.POST("/events", adminOnly, eventHandler.Create)
		api.PATCH("/events/:id", adminOnly, eventHandler.Update)
		api.DELETE("/events/:id", adminOnly, eventHandler.Delete)
		api.GET("/events/:id/registrations", adminOnly, regHandler.ListByEvent)
		api.PUT("/registrations/:id/approve", adminOnly, regHandler.Approve)
		api.PUT("/registrations/:id/reject", adminOnly, regHandler.Reject)
		api.POST("/events/:id/attendees/rebuild", adminOnly, regHandler.RebuildAttendees)

		api.GET("/blogs/admin/all", adminOnly, blogHandler.ListAll)
		api.POST("/blogs", adminOnly, blogHandler.Create)
		api.POST("/blogs/generate-upload-url", adminOnly, blogHandler.GenerateUploadURL)
		api.PUT("/blogs/:id", adminOnly, blogHandler.Update)
		api.PUT("/blogs/:id/publish", adminOnly, blogHandler.TogglePublish)
		api.DELETE("/blogs/:id", adminOnly, blogHandler.Delete)

		api.POST("/gallery/upload", adminOnly, galleryHandler.Upload)
		api.PUT("/gallery/:id", adminOnly, galleryHandler.Update)
		api.DELETE("/gallery/:id", adminOnly, galleryHandler.Delete)

		api.GET("/feedback", adminOnly, feedbackHandler.List)
		api.GET("/feedback/:id", adminOnly, feedbackHandler.GetByID)
		api.PUT("/feedback/:id/status", adminOnly, feedbackHandler.UpdateStatus)
		api.DELETE("/feedback/:id", adminOnly, feedbackHandler.Delete)

		api.GET("/admin/stats", adminOnly, adminHandler.Stats)
		api.GET("/admin/users", adminOnly, authHandler.List)
		api.GET("/admin/emails", adminOnly, adminHandler.Emails)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
