package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	procmock "github.com/kevin07696/payment-intents/internal/adapters/mock"
	"github.com/kevin07696/payment-intents/internal/adapters/postgres"
	"github.com/kevin07696/payment-intents/internal/adapters/stripe"
	"github.com/kevin07696/payment-intents/internal/config"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
	adminHandler "github.com/kevin07696/payment-intents/internal/handlers/admin"
	cronHandler "github.com/kevin07696/payment-intents/internal/handlers/cron"
	intentHandler "github.com/kevin07696/payment-intents/internal/handlers/intent"
	webhookHandler "github.com/kevin07696/payment-intents/internal/handlers/webhook"
	intentService "github.com/kevin07696/payment-intents/internal/services/intent"
	reconcileService "github.com/kevin07696/payment-intents/internal/services/reconcile"
	"github.com/kevin07696/payment-intents/pkg/middleware"
	"github.com/kevin07696/payment-intents/pkg/observability"
	"github.com/kevin07696/payment-intents/pkg/resilience"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting payment intents service",
		zap.String("processor_driver", cfg.Processor.Driver),
		zap.String("secrets_backend", cfg.Secrets.Backend),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		cancel()
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	secretManager, err := initSecretManager(ctx, cfg, logger)
	if err != nil {
		cancel()
		logger.Fatal("Failed to initialize secret manager", zap.Error(err))
	}

	gateway, verifier, err := initProcessor(ctx, cfg, secretManager, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize payment processor", zap.Error(err))
	}

	// Wire services
	timeouts := resilience.DefaultTimeoutConfig()
	portLogger := observability.NewZapLogger(logger)

	payments := postgres.NewPaymentRepository(db)
	events := postgres.NewEventRepository(db)

	intents := intentService.NewService(db, payments, gateway, portLogger, timeouts, cfg.Processor.DefaultCurrency)
	reconciler := reconcileService.NewService(db, events, payments, portLogger)

	intentH := intentHandler.NewHandler(intents, logger)
	webhookH := webhookHandler.NewHandler(verifier, reconciler, logger)
	adminH := adminHandler.NewHandler(intents, reconciler, logger)
	cronH := cronHandler.NewReconcileHandler(reconciler, logger, timeouts, cfg.Cron.Secret)

	// Public endpoints are rate limited per client IP; the webhook and
	// cron endpoints are not, since the processor retries on 429 and the
	// scheduler authenticates with a shared secret.
	rateLimiter := middleware.NewRateLimiter(10, 20)
	defer rateLimiter.Shutdown()

	mux := http.NewServeMux()
	handle := func(route string, h http.HandlerFunc) {
		mux.Handle(route, observability.MetricsMiddleware(route, h))
	}
	handle("/create-payment-intent", rateLimiter.HTTPHandlerFunc(intentH.CreateIntent))
	handle("/webhook", webhookH.HandleWebhook)
	handle("/payments", rateLimiter.HTTPHandlerFunc(adminH.ListPayments))
	handle("/payments/", rateLimiter.HTTPHandlerFunc(adminH.GetPayment))
	handle("/events", rateLimiter.HTTPHandlerFunc(adminH.ListEvents))
	handle("/cron/reconcile", cronH.Reconcile)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second, // handler budget plus headroom
		IdleTimeout:  60 * time.Second,
	}

	healthChecker := observability.NewHealthChecker(db.GetDB())
	metricsServer := observability.StartMetricsServer(
		fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker, logger)
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

// initLogger initializes the logger
func initLogger(cfg config.LoggerConfig) *zap.Logger {
	if cfg.Development {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, _ := zapCfg.Build()
	return logger
}

// initDatabase initializes the PostgreSQL connection pool
func initDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*postgres.DBExecutor, error) {
	dbCfg := postgres.DefaultConfig(cfg.Database.ConnectionString())
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns
	return postgres.NewDBExecutor(ctx, dbCfg, logger)
}

// initProcessor builds the processor gateway and webhook verifier for the
// configured driver. The driver names the implementation explicitly; a
// typo is a startup failure, never a silent fallback to the mock.
func initProcessor(
	ctx context.Context,
	cfg *config.Config,
	secretManager ports.SecretManagerAdapter,
	logger *zap.Logger,
) (ports.ProcessorGateway, ports.WebhookVerifier, error) {
	webhookSecret, err := secretManager.GetSecret(ctx, cfg.Processor.WebhookSecretPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load webhook signing secret: %w", err)
	}
	verifier := stripe.NewWebhookVerifier(webhookSecret.Value)

	switch cfg.Processor.Driver {
	case "stripe":
		apiKey, err := secretManager.GetSecret(ctx, cfg.Processor.APIKeySecretPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load processor API key: %w", err)
		}
		client := stripe.NewClient(stripe.ClientConfig{
			BaseURL:    cfg.Processor.BaseURL,
			APIKey:     apiKey.Value,
			Timeout:    time.Duration(cfg.Processor.Timeout) * time.Second,
			MaxRetries: cfg.Processor.MaxRetries,
		}, logger)
		return client, verifier, nil

	case "mock":
		logger.Warn("Using mock payment processor; intents are not real")
		return procmock.NewProcessor(), verifier, nil

	default:
		return nil, nil, fmt.Errorf("unknown processor driver %q", cfg.Processor.Driver)
	}
}
