package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/logger"
	"storefront/internal/infra/payment"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/pricing"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnvFiles(".env", "../.env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.GoEnv, cfg.LogLevel)

	//DB接続
	gormDB, err := db.Open(cfg.DSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	donationRepo := infraRepo.NewDonationGormRepository(gormDB)
	causeRepo := infraRepo.NewCauseGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//外部API
	fetcher := payment.NewStripeSessionFetcher(payment.StripeConfig{
		SecretKey: cfg.StripeSecretKey,
		APIURL:    cfg.StripeAPIURL,
		Timeout:   cfg.ProviderTimeout,
	})
	stripeVerifier := payment.NewStripeWebhookVerifier(cfg.StripeWebhookSecret)

	vendor := pricing.NewHTTPVendorClient(cfg.PriceVendorURL, cfg.PriceVendorAPIKey, cfg.ProviderTimeout, cfg.PriceVendorRPS)
	prefetcher := pricing.NewPrefetcher(
		vendor,
		pricing.NewMemoryCache(),
		pricing.NewCircuitBreaker(pricing.DefaultFailureThreshold, pricing.DefaultCooldown, pricing.SystemClock{}),
		log,
	)

	//Usecase生成
	ledgerUC := usecase.NewLedgerUsecase(txm, orderRepo, donationRepo, log, cfg.MilestoneGoalCents)
	checkoutUC := usecase.NewCheckoutUsecase(fetcher, ledgerUC, cfg.ProviderTimeout, log)
	webhookUC := usecase.NewWebhookUsecase(ledgerUC, orderRepo, donationRepo, auditRepo, validator.NewSubmissionValidator(), cfg.WebhookSecret, log)
	causeUC := usecase.NewCauseUsecase(txm, causeRepo, cfg.MilestoneGoalCents, log)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	if cfg.WebhookSecret == "" {
		log.Warn().Msg("WEBHOOK_SECRET is not set; form webhook secret verification is disabled")
	}

	//Handler生成
	e := server.New(log, cfg.RequestTimeout)
	server.RegisterRoutes(e, []byte(cfg.JWTSecret), server.Handlers{
		Health:        handler.NewHealthHandler(sqlDB),
		Checkout:      handler.NewCheckoutHandler(checkoutUC),
		FormWebhook:   handler.NewFormWebhookHandler(webhookUC),
		StripeWebhook: handler.NewStripeWebhookHandler(stripeVerifier, checkoutUC, log),
		Causes:        handler.NewCauseHandler(causeUC),
		Admin:         handler.NewAdminHandler(causeUC, auditUC, prefetcher),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//Server起動
	log.Info().Str("addr", cfg.Addr()).Msg("server starting")
	return server.Start(ctx, e, cfg.Addr())
}
