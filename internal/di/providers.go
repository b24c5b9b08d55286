package di

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/FrogonXO/shopify-student-verify/internal/app"
	"github.com/FrogonXO/shopify-student-verify/internal/config"
	"github.com/FrogonXO/shopify-student-verify/internal/database"
	"github.com/FrogonXO/shopify-student-verify/internal/http/handler"
	"github.com/FrogonXO/shopify-student-verify/internal/http/middleware"
	"github.com/FrogonXO/shopify-student-verify/internal/http/router"
	"github.com/FrogonXO/shopify-student-verify/internal/observability"
	"github.com/FrogonXO/shopify-student-verify/internal/repository"
	"github.com/FrogonXO/shopify-student-verify/internal/service"
	"github.com/FrogonXO/shopify-student-verify/internal/shopify"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(provideLogger)

var DatabaseSet = wire.NewSet(provideDB)

var RepositorySet = wire.NewSet(repository.NewVerificationRepository)

var ShopifySet = wire.NewSet(provideShopifyClient, provideOrderSystem)

var ServiceSet = wire.NewSet(
	provideClassifier,
	provideMailer,
	service.NewActivationService,
	service.NewVerificationService,
	service.NewReconciler,
	provideScheduler,
)

var HTTPSet = wire.NewSet(
	handler.NewVerificationHandler,
	provideWebhookHandler,
	handler.NewCronHandler,
	provideLimiter,
	provideRouterDependencies,
	router.New,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideLogger(cfg *config.Config) *slog.Logger {
	return observability.NewLogger(cfg.Env, cfg.LogLevel)
}

func provideDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideShopifyClient(cfg *config.Config, logger *slog.Logger) *shopify.Client {
	return shopify.NewClient(
		cfg.ShopifyStoreDomain,
		shopify.StaticCredential(cfg.ShopifyAccessToken),
		cfg.ShopifyTimeout,
		logger,
	)
}

func provideOrderSystem(client *shopify.Client) service.OrderSystem {
	return client
}

func provideClassifier(cfg *config.Config) *service.Classifier {
	return service.NewClassifier(cfg.StudentEmailSuffixes, cfg.BlacklistedDomains)
}

// provideMailer picks SMTP when configured, otherwise a logger-backed dev
// mailer so local runs work without a mail server.
func provideMailer(cfg *config.Config, logger *slog.Logger) service.Mailer {
	if cfg.SMTPHost == "" {
		return service.NewDevMailer(logger, cfg.AppURL)
	}
	return service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromEmail, cfg.AppURL)
}

func provideScheduler(cfg *config.Config, reconciler *service.Reconciler, logger *slog.Logger) (*service.Scheduler, error) {
	return service.NewScheduler(cfg.ReconcileSchedule, reconciler, logger)
}

// provideLimiter backs the rate limiter with Redis when an address is
// configured so the window is shared across instances.
func provideLimiter(cfg *config.Config) middleware.Limiter {
	if cfg.RedisAddr == "" {
		return middleware.NewLocalFixedWindowLimiter()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return middleware.NewRedisFixedWindowLimiter(client, "verify_rl")
}

func provideWebhookHandler(svc *service.VerificationService, cfg *config.Config, logger *slog.Logger) *handler.WebhookHandler {
	return handler.NewWebhookHandler(svc, cfg.ShopifyWebhookSecret, logger)
}

func provideRouterDependencies(
	verification *handler.VerificationHandler,
	webhook *handler.WebhookHandler,
	cron *handler.CronHandler,
	limiter middleware.Limiter,
	cfg *config.Config,
	logger *slog.Logger,
) router.Dependencies {
	return router.Dependencies{
		Verification:      verification,
		Webhook:           webhook,
		Cron:              cron,
		Limiter:           limiter,
		VerifyRateLimit:   cfg.VerifyRateLimitPerMin,
		RateLimitFailMode: middleware.FailOpen,
		CronSecret:        cfg.CronSecret,
		Logger:            logger,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
