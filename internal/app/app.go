// Package app wires configuration, infrastructure, and domain handlers into
// a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/wisbric/leadping/internal/audit"
	"github.com/wisbric/leadping/internal/auth"
	"github.com/wisbric/leadping/internal/config"
	"github.com/wisbric/leadping/internal/httpserver"
	"github.com/wisbric/leadping/internal/identity"
	"github.com/wisbric/leadping/internal/platform"
	"github.com/wisbric/leadping/internal/seed"
	"github.com/wisbric/leadping/internal/telemetry"
	"github.com/wisbric/leadping/pkg/account"
	"github.com/wisbric/leadping/pkg/mfa"
	"github.com/wisbric/leadping/pkg/notification"
	"github.com/wisbric/leadping/pkg/pricing"
	"github.com/wisbric/leadping/pkg/slack"
	"github.com/wisbric/leadping/pkg/webhook"
)

// Run is the main application entry point. It reads config, connects to
// infrastructure, and starts the requested mode.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting leadping",
		"mode", cfg.Mode,
		"listen", cfg.ListenAddr(),
	)

	// Database
	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	// Redis
	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	// Metrics
	metricsReg := telemetry.NewMetricsRegistry()

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg)
	case "seed":
		return seed.Run(ctx, db, logger)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) error {
	// OIDC authenticator (optional — nil if not configured).
	var oidcAuth *auth.OIDCAuthenticator
	if cfg.OIDCIssuerURL != "" && cfg.OIDCClientID != "" {
		var err error
		oidcAuth, err = auth.NewOIDCAuthenticator(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID)
		if err != nil {
			return fmt.Errorf("initializing OIDC authenticator: %w", err)
		}
		logger.Info("OIDC authentication enabled", "issuer", cfg.OIDCIssuerURL)
	} else {
		logger.Info("OIDC authentication disabled (OIDC_ISSUER not set)")
	}

	// Audit log writer (async, buffered).
	auditWriter := audit.NewWriter(db, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	srv := httpserver.NewServer(cfg, logger, db, rdb, metricsReg, oidcAuth)

	// Identity provider client.
	idProvider := identity.NewClient(cfg.IdentityURL, cfg.IdentityServiceKey)

	// Notification settings.
	configStore := notification.NewStore(db)
	notifService := notification.NewService(configStore, cfg.PublicBaseURL, logger)
	reconciler := notification.NewReconciler(configStore, logger)
	srv.APIRouter.Mount("/settings/notifications", notification.NewHandler(logger, auditWriter, notifService).Routes())

	// MFA.
	mfaService := mfa.NewService(idProvider, logger, telemetry.MFAVerificationsTotal)
	srv.APIRouter.Mount("/mfa", mfa.NewHandler(logger, auditWriter, mfaService).Routes())

	// Account surface.
	accountService := account.NewService(idProvider, reconciler, mfaService, logger, notifService.WebhookURL)
	srv.APIRouter.Mount("/", account.NewHandler(logger, auditWriter, accountService).Routes())

	// Audit trail readback.
	srv.APIRouter.Mount("/audit-log", audit.NewHandler(db, logger).Routes())

	// Outbound messaging gateway.
	var gateway webhook.Gateway
	if cfg.GatewayURL != "" {
		gateway = webhook.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayToken, logger)
	} else {
		logger.Warn("GATEWAY_URL not set, lead delivery is simulated")
		gateway = &webhook.NoopGateway{Logger: logger}
	}

	// Ops failure reporting.
	opsNotifier := slack.NewNotifier(cfg.SlackBotToken, cfg.SlackOpsChannel, logger)

	// Inbound lead webhook (unauthenticated; the secret token is the auth).
	dedup := webhook.NewDeduplicator(rdb, logger, telemetry.LeadsDeduplicatedTotal)
	dispatcher := webhook.NewDispatcher(configStore, gateway, dedup, opsNotifier, logger)
	webhookMetrics := &webhook.Metrics{
		ReceivedTotal:    telemetry.LeadsReceivedTotal,
		DispatchesTotal:  telemetry.DispatchesTotal,
		DispatchDuration: telemetry.DispatchDuration,
	}
	srv.Router.Mount("/hooks", webhook.NewHandler(logger, dispatcher, webhookMetrics).Routes())

	// Public pricing catalog.
	srv.Router.Mount("/pricing", pricing.NewHandler().Routes())

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
