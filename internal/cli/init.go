// Package cli provides common initialization utilities shared by the
// devbills web server and the devbills-cli commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"devbills/internal/amqp"
	"devbills/internal/config"
	applog "devbills/internal/log"
	"devbills/internal/session"
	"devbills/internal/storage"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL value.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// NewSessionStore opens the session store selected by SESSION_STORE.
func NewSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.SessionStore {
	case "sqlite":
		repo, err := storage.NewSessionRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite session store at %s: %w", cfg.SQLiteDBPath, err)
		}
		return repo, nil
	case "", "memory":
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

// InitSessionStore is NewSessionStore that exits the process on failure.
func InitSessionStore(logger *applog.Logger, cfg *config.Config) session.Store {
	store, err := NewSessionStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize session store", applog.FieldError, err, "store", cfg.SessionStore)
		os.Exit(1)
	}
	logger.Info("Initialized session store", "store", cfg.SessionStore)
	return store
}

// InitEventPublisher connects to the broker when AMQP_URL is set. Activity
// events are optional, so a failed connection is logged and the server
// runs without them; the returned client is nil in both cases.
func InitEventPublisher(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WithComponent(applog.ComponentAMQP).Warn("Activity events disabled", applog.FieldError, err)
		return nil
	}
	logger.WithComponent(applog.ComponentAMQP).Info("Publishing activity events",
		"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when cleanup is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
