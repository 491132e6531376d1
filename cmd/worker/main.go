// Package main runs the background job worker (decision emails, attendee cache rebuilds).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nexus-society/backend/config"
	"github.com/nexus-society/backend/internal/auth"
	"github.com/nexus-society/backend/internal/events"
	"github.com/nexus-society/backend/internal/notifications"
	"github.com/nexus-society/backend/internal/registrations"
	"github.com/nexus-society/backend/internal/worker"
	"github.com/nexus-society/backend/pkg/database"
	"github.com/nexus-society/backend/pkg/mailer"
	"github.com/nexus-society/backend/pkg/queue"
	"github.com/nexus-society/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	mail := mailer.New(mailer.Config{
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		User:        cfg.Email.SMTPUser,
		Pass:        cfg.Email.SMTPPass,
	}, logger)
	if !mail.Configured() {
		logger.Warn("smtp not configured, decision emails will fail until SMTP_HOST is set")
	}

	regRepo := registrations.NewRepository(pool)
	userRepo := auth.NewRepository(pool)
	eventRepo := events.NewRepository(pool)
	emailLogRepo := notifications.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewProcessor(regRepo, userRepo, eventRepo, emailLogRepo, mail, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
