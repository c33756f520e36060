// Package main runs the event platform HTTP server with graceful shutdown.
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

	"github.com/aura-events/backend/config"
	"github.com/aura-events/backend/internal/access"
	"github.com/aura-events/backend/internal/auth"
	"github.com/aura-events/backend/internal/drafts"
	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/organizations"
	"github.com/aura-events/backend/internal/payouts"
	"github.com/aura-events/backend/internal/templates"
	"github.com/aura-events/backend/pkg/database"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/redis"
	"github.com/aura-events/backend/pkg/response"
	"github.com/aura-events/backend/pkg/slug"
	"github.com/aura-events/backend/pkg/storage"
)

// waiter is implemented by the usage recorders so shutdown can flush them.
type waiter interface{ Wait() }

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

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Cover storage is optional; cover endpoints answer 503 without it.
	var covers events.CoverStorage
	if cfg.AWS.CoversBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			CoversBucket:         cfg.AWS.CoversBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			covers = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	orgRepo := organizations.NewRepository(pool)
	orgHandler := organizations.NewHandler(orgRepo, logger)
	checker := access.NewChecker(orgRepo)

	payoutRepo := payouts.NewRepository(pool)
	var verifier payouts.Verifier
	if cfg.Stripe.SecretKey != "" {
		verifier = payouts.NewStripeVerifier(cfg.Stripe.SecretKey)
	} else {
		logger.Warn("payout status sync disabled (STRIPE_SECRET_KEY not set)")
	}
	payoutHandler := payouts.NewHandler(payoutRepo, orgRepo, verifier, logger)

	draftHandler := drafts.NewHandler(drafts.NewService(drafts.NewRepository(pool), checker), logger)

	// Template usage counting
	templateRepo := templates.NewRepository(pool)
	usageTimeout := time.Duration(cfg.Templates.UsageTimeoutMilli) * time.Millisecond
	var usage interface {
		templates.UsageRecorder
		waiter
	}
	switch cfg.Templates.UsageMode {
	case config.UsageModeQueue:
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		usage = templates.NewQueueRecorder(queue.NewQueue(rdb.Client, logger), usageTimeout, logger)
	default:
		usage = templates.NewDirectRecorder(templateRepo, usageTimeout, logger)
	}
	logger.Info("template usage recorder", zap.String("mode", cfg.Templates.UsageMode))
	templateHandler := templates.NewHandler(templates.NewService(templateRepo, checker, usage), logger)

	eventHandler := events.NewHandler(events.NewService(events.Deps{
		Events:  events.NewRepository(pool),
		Orgs:    orgRepo,
		Payouts: payoutRepo,
		Authz:   checker,
		Slugs:   slug.NewGenerator(),
		Covers:  covers,
		Logger:  logger,
	}), logger)

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

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Organizations
		api.GET("/organizations", orgHandler.ListMyOrganizations)
		api.POST("/organizations", orgHandler.CreateOrganization)
		orgMembers := api.Group("/organizations/:id/members", organizations.RequireManager(orgRepo, logger))
		orgMembers.GET("", orgHandler.ListMembers)
		orgMembers.PUT("", orgHandler.SetMember)

		// Payout accounts
		api.GET("/payout-accounts", payoutHandler.Get)
		api.PUT("/payout-accounts", payoutHandler.Link)
		api.POST("/payout-accounts/sync", payoutHandler.Sync)

		// Events
		api.POST("/events", eventHandler.Create)
		api.POST("/events/cover-upload-url", eventHandler.PresignCover)
		api.GET("/events/:id", eventHandler.Get)
		api.PATCH("/events/:id", eventHandler.Update)
		api.POST("/events/:id/cover", eventHandler.UploadCover)

		// Drafts
		api.PUT("/drafts", draftHandler.Save)
		api.GET("/drafts", draftHandler.Load)
		api.DELETE("/drafts", draftHandler.Discard)

		// Templates
		api.GET("/templates", templateHandler.List)
		api.POST("/templates", templateHandler.Create)
		api.GET("/templates/:id", templateHandler.Get)
		api.PATCH("/templates/:id", templateHandler.Update)
		api.DELETE("/templates/:id", templateHandler.Delete)
		api.POST("/templates/:id/instantiate", templateHandler.Instantiate)
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
	usage.Wait()
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
