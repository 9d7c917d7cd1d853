// Package main runs the webinar registration HTTP server.
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

	"github.com/1Sidetechnology/webinaire-backend/config"
	"github.com/1Sidetechnology/webinaire-backend/internal/auth"
	"github.com/1Sidetechnology/webinaire-backend/internal/emaillogs"
	"github.com/1Sidetechnology/webinaire-backend/internal/gcal"
	"github.com/1Sidetechnology/webinaire-backend/internal/invoice"
	"github.com/1Sidetechnology/webinaire-backend/internal/mailer"
	"github.com/1Sidetechnology/webinaire-backend/internal/middleware"
	"github.com/1Sidetechnology/webinaire-backend/internal/payments"
	"github.com/1Sidetechnology/webinaire-backend/internal/registrations"
	"github.com/1Sidetechnology/webinaire-backend/internal/sumup"
	"github.com/1Sidetechnology/webinaire-backend/internal/users"
	"github.com/1Sidetechnology/webinaire-backend/internal/webinars"
	"github.com/1Sidetechnology/webinaire-backend/pkg/database"
	"github.com/1Sidetechnology/webinaire-backend/pkg/queue"
	"github.com/1Sidetechnology/webinaire-backend/pkg/redis"
	"github.com/1Sidetechnology/webinaire-backend/pkg/response"
	"github.com/1Sidetechnology/webinaire-backend/pkg/storage"
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

	var archive registrations.InvoiceArchive
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			InvoicesBucket:       cfg.AWS.InvoicesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("invoice archive disabled", zap.Error(err))
		} else {
			archive = s3Client
		}
	}

	// Repositories
	userRepo := users.NewRepository(pool)
	webinarRepo := webinars.NewRepository(pool)
	registrationRepo := registrations.NewRepository(pool)
	paymentRepo := payments.NewRepository(pool)
	emailLogRepo := emaillogs.NewRepository(pool)

	// External clients
	sumupClient := sumup.NewClient(sumup.Config{
		APIURL:        cfg.SumUp.APIURL,
		APIKey:        cfg.SumUp.APIKey,
		MerchantCode:  cfg.SumUp.MerchantCode,
		WebhookSecret: cfg.SumUp.WebhookSecret,
		ReturnURL:     cfg.Server.APIBaseURL + "/payment/return",
	}, logger)
	calendarClient, err := gcal.NewClient(ctx, gcal.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURI:  cfg.Google.RedirectURI,
		RefreshToken: cfg.Google.RefreshToken,
		CalendarID:   cfg.Google.CalendarID,
	}, logger)
	if err != nil {
		logger.Fatal("google calendar", zap.Error(err))
	}
	mailClient := mailer.New(mailer.Config{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		User:        cfg.SMTP.User,
		Password:    cfg.SMTP.Password,
		FromName:    cfg.SMTP.FromName,
		FromAddress: cfg.SMTP.FromAddress,
		CompanyName: cfg.Company.Name,
	}, emailLogRepo, logger)
	invoiceRenderer := invoice.NewRenderer(invoice.CompanyInfo{
		Name:    cfg.Company.Name,
		Address: cfg.Company.Address,
		SIRET:   cfg.Company.SIRET,
		VAT:     cfg.Company.VAT,
	})

	// Services and handlers
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authHandler := auth.NewHandler(userRepo, jwtService, logger)
	userHandler := users.NewHandler(userRepo, logger)

	registrationSvc := registrations.NewService(webinarRepo, userRepo, registrationRepo, paymentRepo,
		sumupClient, calendarClient, mailClient, invoiceRenderer, archive, logger)
	registrationHandler := registrations.NewHandler(registrationSvc)

	webinarHandler := webinars.NewHandler(webinarRepo, registrationSvc)

	paymentWebhook := payments.NewWebhook(sumupClient, paymentRepo, registrationSvc, logger)
	paymentHandler := payments.NewHandler(paymentRepo, sumupClient, registrationSvc, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	emailLogHandler := emaillogs.NewHandler(emailLogRepo, jobQueue)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	api := router.Group("/api")

	// Public
	api.POST("/registrations", registrationHandler.Register)
	api.GET("/webinars", webinarHandler.List)
	api.GET("/webinars/:id", webinarHandler.GetByID)
	api.POST("/payment/webhook", paymentWebhook.Handle)
	api.GET("/payment/return", paymentHandler.Return)

	// Authenticated
	authed := api.Group("")
	authed.Use(middleware.JWT(jwtService))
	{
		authed.GET("/my/registrations", registrationHandler.ListMine)
		authed.GET("/registrations/:id", registrationHandler.GetByID)
		authed.DELETE("/registrations/:id", registrationHandler.Cancel)
		authed.GET("/payments/:id/status", paymentHandler.Status)

		admin := authed.Group("")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.PUT("/account/password", userHandler.ChangePassword)
			admin.POST("/webinars", webinarHandler.Create)
			admin.PUT("/webinars/:id", webinarHandler.Update)
			admin.DELETE("/webinars/:id", webinarHandler.Delete)
			admin.GET("/webinars/:id/stats", webinarHandler.Stats)
			admin.GET("/stats/webinars", webinarHandler.Summary)
			admin.GET("/webinars/:id/registrations", registrationHandler.ListByWebinar)
			admin.GET("/webinars/:id/emails", emailLogHandler.ListByWebinar)
			admin.POST("/webinars/:id/emails/resend", emailLogHandler.Resend)
			admin.GET("/payments", paymentHandler.List)
		}
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
