package backend

import (
	"context"
	"fmt"
	"log/slog"

	"devbills/internal/auth"
	"devbills/internal/finance/api"
	"devbills/internal/finance/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	tokens api.TokenFunc
}

// NewFactory creates a backend factory. Requests made by the api backend
// carry the ID token found in the request context.
func NewFactory(logger *slog.Logger) Factory {
	return NewFactoryWithTokens(logger, auth.CurrentIDToken)
}

// NewFactoryWithTokens is NewFactory with a custom token lookup, used by the
// command line client which has no per-request session.
func NewFactoryWithTokens(logger *slog.Logger, tokens api.TokenFunc) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		tokens: tokens,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(_ context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAPIBackend(config Config) (*BackendResult, error) {
	timeout := config.APITimeout
	if timeout <= 0 {
		timeout = api.DefaultTimeout
	}

	client, err := api.New(config.APIURL, timeout, f.tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API client: %w", err)
	}

	f.logger.Info("Initialized API backend", "api_url", config.APIURL, "timeout", timeout)

	return &BackendResult{Backend: client}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{Backend: store}, nil
}
