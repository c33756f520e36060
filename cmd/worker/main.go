// Package main runs the background job worker (template usage counting).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-events/backend/config"
	"github.com/aura-events/backend/internal/templates"
	"github.com/aura-events/backend/internal/worker"
	"github.com/aura-events/backend/pkg/database"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/redis"
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

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewTemplateUsageProcessor(templates.NewRepository(pool), jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()
	logger.Info("worker started", zap.String("queue", queue.QueueTemplateUsage))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
