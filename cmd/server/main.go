package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/quantora/signals-backend/internal/chat"
	"github.com/quantora/signals-backend/internal/config"
	"github.com/quantora/signals-backend/internal/database"
	"github.com/quantora/signals-backend/internal/handler"
	"github.com/quantora/signals-backend/internal/logger"
	"github.com/quantora/signals-backend/internal/mailer"
	mw "github.com/quantora/signals-backend/internal/middleware"
	"github.com/quantora/signals-backend/internal/otp"
	"github.com/quantora/signals-backend/internal/queue"
	"github.com/quantora/signals-backend/internal/repository"
	"github.com/quantora/signals-backend/internal/router"
	"github.com/quantora/signals-backend/internal/subscription"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	cfg := config.Load()
	zl := logger.New(cfg.Env)
	defer func() { _ = zl.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is absent; limiter and cache fail open

	// Repositories.
	users := repository.NewUserRepo(db)
	otps := repository.NewOtpRepo(db)
	subs := repository.NewSubscriptionRepo(db)
	verifs := repository.NewVerificationRepo(db)
	partners := repository.NewPartnerRepo(db)
	announcements := repository.NewAnnouncementRepo(db)
	results := repository.NewResultRepo(db)
	signals := repository.NewSignalRepo(db)
	analysis := repository.NewAnalysisRepo(db)

	// OTP engine with a real SMTP sender when configured.
	var sender otp.Sender
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	} else {
		zl.Warn("SMTP_HOST not set, otp codes will be logged instead of mailed")
		sender = &mailer.LogSender{Log: zl}
	}
	engine := otp.NewEngine(otps, sender, zl)

	subSvc := subscription.NewService(db, subs, verifs, users, zl)

	// Premium chat hub plus the broker consumer feeding it.
	hub := chat.NewHub(zl)
	defer hub.Close()
	go queue.StartAnalysisConsumer(cfg.AMQPURL, hub, zl)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI: true, LogStatus: true, LogMethod: true, LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			zl.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, subs, partners, engine, zl),
		Signals:       handler.NewSignalHandler(signals),
		Analysis:      handler.NewAnalysisHandler(cfg, analysis, zl),
		Content:       handler.NewContentHandler(announcements, results),
		Verifications: handler.NewVerificationHandler(cfg, verifs, subSvc),
		AdminUsers:    handler.NewAdminUserHandler(cfg, users, subSvc),
		AdminPartners: handler.NewAdminPartnerHandler(partners),
		AdminSubs:     handler.NewAdminSubscriptionHandler(subs),
		Chat:          handler.NewChatHandler(cfg, hub, zl),
	}
	router.Register(e, h, router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: mw.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     mw.NewRedisCache(config.LoadCacheConfig(), rdb),
		UploadDir: cfg.UploadDir,
	})

	addr := ":" + cfg.Port
	zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
