package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"devbills/internal/auth"
	"devbills/internal/backend"
	"devbills/internal/cli"
	apphttp "devbills/internal/http"
	applog "devbills/internal/log"
	"devbills/internal/services"
	"devbills/internal/session"
)

const sweepInterval = 10 * time.Minute

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize finance backend", applog.FieldError, err, "backend", cfg.APIBackend)
		os.Exit(1)
	}

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var (
		events     services.EventPublisher
		eventsConn apphttp.HealthChecker
	)
	if client := cli.InitEventPublisher(logger, cfg); client != nil {
		events = client
		eventsConn = client
	}
	txService := services.NewTransactionService(result.Backend, events)

	sessions := cli.InitSessionStore(logger, cfg)

	var (
		verifier auth.Verifier
		issuer   auth.Issuer
	)
	if cfg.DevLogin() {
		verifier = auth.DevVerifier{TTL: time.Hour}
		issuer = auth.StaticIssuer{}
		logger.WithComponent(applog.ComponentAuth).Warn("Development sign-in enabled: no identity provider configured")
	} else {
		fv, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize Firebase", applog.FieldError, err, "project_id", cfg.FirebaseProjectID)
			os.Exit(1)
		}
		verifier = fv
		issuer = auth.NewRefresher(cfg.FirebaseAPIKey, auth.WithOnRefresh(func(ctx context.Context, sessionID string, t auth.Tokens) {
			if err := sessions.UpdateTokens(ctx, sessionID, t); err != nil && !errors.Is(err, session.ErrNotFound) {
				logger.WithComponent(applog.ComponentSession).Warn("Failed to store refreshed tokens",
					applog.FieldError, err, applog.FieldOperation, applog.OpRefresh)
			}
		}))
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:         ":" + cfg.Port,
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
		Firebase: apphttp.FirebaseWebConfig{
			APIKey:     cfg.FirebaseAPIKey,
			AuthDomain: cfg.FirebaseAuthDomain,
			ProjectID:  cfg.FirebaseProjectID,
			AppID:      cfg.FirebaseAppID,
		},
		DevLogin:           cfg.DevLogin(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	}, apphttp.Deps{
		Transactions: txService,
		Sessions:     sessions,
		Verifier:     verifier,
		Issuer:       issuer,
		Events:       eventsConn,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go session.RunSweeper(sweepCtx, sessions, sweepInterval, issuer.Forget, logger.Logger.With(applog.FieldComponent, applog.ComponentSession))

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		stopSweep()
		if err := txService.Close(); err != nil {
			logger.Warn("Event publisher close error", applog.FieldError, err)
		}
		if err := sessions.Close(); err != nil {
			logger.Warn("Session store close error", applog.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting devbills server",
		"port", cfg.Port,
		"backend", cfg.APIBackend,
		"session_store", cfg.SessionStore,
		"dev_login", cfg.DevLogin(),
		applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
