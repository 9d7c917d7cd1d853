// Package main runs the background jobs: the email resend worker and the
// daily reminder sweep.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/1Sidetechnology/webinaire-backend/config"
	"github.com/1Sidetechnology/webinaire-backend/internal/emaillogs"
	"github.com/1Sidetechnology/webinaire-backend/internal/mailer"
	"github.com/1Sidetechnology/webinaire-backend/internal/registrations"
	"github.com/1Sidetechnology/webinaire-backend/internal/reminder"
	"github.com/1Sidetechnology/webinaire-backend/internal/worker"
	"github.com/1Sidetechnology/webinaire-backend/pkg/database"
	"github.com/1Sidetechnology/webinaire-backend/pkg/queue"
	"github.com/1Sidetechnology/webinaire-backend/pkg/redis"
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

	emailLogRepo := emaillogs.NewRepository(pool)
	registrationRepo := registrations.NewRepository(pool)
	mailClient := mailer.New(mailer.Config{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		User:        cfg.SMTP.User,
		Password:    cfg.SMTP.Password,
		FromName:    cfg.SMTP.FromName,
		FromAddress: cfg.SMTP.FromAddress,
		CompanyName: cfg.Company.Name,
	}, emailLogRepo, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	emailProcessor := worker.NewEmailProcessor(emailLogRepo, registrationRepo, mailClient, jobQueue, logger)
	sweeper := reminder.NewSweeper(registrationRepo, mailClient, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go emailProcessor.Run(workerCtx)
	go sweeper.Run(workerCtx)
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
