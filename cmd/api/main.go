package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/storefront-api/internal/application/payment"
	"github.com/sangkips/storefront-api/internal/application/pricing"
	"github.com/sangkips/storefront-api/internal/application/service"
	"github.com/sangkips/storefront-api/internal/application/store"
	"github.com/sangkips/storefront-api/internal/config"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	domainRepo "github.com/sangkips/storefront-api/internal/domain/repository"
	"github.com/sangkips/storefront-api/internal/infrastructure/cache"
	"github.com/sangkips/storefront-api/internal/infrastructure/database"
	"github.com/sangkips/storefront-api/internal/infrastructure/httpclient"
	"github.com/sangkips/storefront-api/internal/infrastructure/medusa"
	"github.com/sangkips/storefront-api/internal/infrastructure/repository"
	"github.com/sangkips/storefront-api/internal/infrastructure/storefront"
	"github.com/sangkips/storefront-api/internal/presentation/http/handler"
	"github.com/sangkips/storefront-api/internal/presentation/http/routes"
	"github.com/sangkips/storefront-api/pkg/email"
	"github.com/sangkips/storefront-api/pkg/logger"
	"github.com/sangkips/storefront-api/pkg/utils"
	"go.uber.org/zap"
)

const (
	couponCacheTTL      = 5 * time.Minute
	resumeBatchSize     = 100
	idempotencySweepInt = time.Hour
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.Must(cfg.App.Env, cfg.App.Debug)
	defer func() { _ = log.Sync() }()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Session state lives in Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	cancelPing()
	stateRepo := cache.NewRedisStateRepository(rdb, cfg.App.Name, cfg.Redis.StateTTL)

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	pendingRepo := repository.NewPendingVerificationRepository(db)
	verifiedRepo := repository.NewPaymentVerificationRepository(db)

	breaker := httpclient.BreakerSettings{
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		FailureRatio: cfg.Breaker.FailureRatio,
		MinRequests:  cfg.Breaker.MinRequests,
	}

	// Upstream clients
	medusaHTTP := httpclient.New(httpclient.Config{
		Name:    "medusa",
		BaseURL: cfg.Medusa.BaseURL,
		Timeout: cfg.Medusa.Timeout,
		Headers: map[string]string{"x-publishable-api-key": cfg.Medusa.PublishableKey},
		Breaker: breaker,
	}, log)
	backendHeaders := map[string]string{}
	if cfg.Backend.ServiceKey != "" {
		backendHeaders["Authorization"] = "Bearer " + cfg.Backend.ServiceKey
	}
	backendHTTP := httpclient.New(httpclient.Config{
		Name:    "storefront-backend",
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Headers: backendHeaders,
		Breaker: breaker,
	}, log)
	carts := medusa.NewClient(medusaHTTP)
	backend := storefront.NewClient(backendHTTP)

	// Payments
	attempts := payment.NewAttemptRegistry(cfg.Payment.AttemptTimeout, log)
	dispatcher := payment.NewDispatcher(backend, attempts, attempts, pendingRepo, verifiedRepo, payment.Config{
		RazorpayKeyID:        cfg.Payment.RazorpayKeyID,
		RazorpayKeySecret:    cfg.Payment.RazorpayKeySecret,
		StripePublishableKey: cfg.Payment.StripePublishableKey,
	}, log)

	// Initialize email service
	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:      cfg.Email.SMTPHost,
		SMTPPort:      cfg.Email.SMTPPort,
		SMTPUsername:  cfg.Email.SMTPUsername,
		SMTPPassword:  cfg.Email.SMTPPassword,
		FromName:      cfg.Email.FromName,
		FromEmail:     cfg.Email.FromEmail,
		StorefrontURL: cfg.Email.StorefrontURL,
	})
	if !emailService.Enabled() {
		log.Info("SMTP not configured, order confirmation emails disabled")
	}

	// Initialize services
	calc := pricing.NewCalculator(cfg.Pricing.TaxRate, cfg.Pricing.DefaultCurrency)
	sessions := service.NewSessionService(stateRepo, carts, backend, service.SessionConfig{
		RegionID: cfg.Medusa.RegionID,
		Store: store.Options{
			Policy:      enum.ParseSyncPolicy(cfg.Store.SyncPolicy),
			QueueSize:   cfg.Store.QueueSize,
			SyncTimeout: cfg.Store.SyncTimeout,
		},
		IdleTTL: cfg.Store.SessionTTL,
	}, log)
	promos := service.NewPromotionService(backend, calc, couponCacheTTL, log)
	checkout := service.NewCheckoutService(promos, calc, dispatcher, attempts, emailService, log)

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.App.Name, cfg.JWT.Expiry)

	// Initialize handlers
	handlers := &routes.Handlers{
		Session:   handler.NewSessionHandler(sessions, jwtManager),
		Cart:      handler.NewCartHandler(sessions, checkout, promos),
		Wishlist:  handler.NewWishlistHandler(sessions),
		Promotion: handler.NewPromotionHandler(sessions, promos),
		Checkout:  handler.NewCheckoutHandler(sessions, checkout),
	}

	limiter := routes.NewRateLimiter(cfg.RateLimit)

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     limiter,
		Logger:          log,
		Health: func() gin.H {
			return gin.H{
				"active_sessions": sessions.Active(),
				"rate_limiter":    limiter.Stats(),
			}
		},
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	go resumeLoop(bgCtx, dispatcher, cfg.Payment.ResumeInterval, log)
	go idempotencySweepLoop(bgCtx, idempotencyRepo, log)

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("app", cfg.App.Name), zap.String("port", port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	stopBackground()
	limiter.Close()
	// flushes pending syncs and saves every live session
	sessions.Close(ctx)
	attempts.Close()

	if err := rdb.Close(); err != nil {
		log.Warn("redis close failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// resumeLoop retries payment verifications left behind by crashes or timeouts
func resumeLoop(ctx context.Context, d *payment.Dispatcher, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.ResumeAll(ctx, resumeBatchSize)
			if err != nil {
				log.Warn("resume pending verifications failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("resumed pending verifications", zap.Int("count", n))
			}
		}
	}
}

func idempotencySweepLoop(ctx context.Context, repo domainRepo.IdempotencyRepository, log *zap.Logger) {
	ticker := time.NewTicker(idempotencySweepInt)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				log.Warn("idempotency sweep failed", zap.Error(err))
			}
		}
	}
}
