package finance

import (
	"context"
	"errors"

	"devbills/internal/core"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Ports for outbound adapters.
type (
	// TransactionReader serves the month-scoped views.
	TransactionReader interface {
		ListTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error)
		// Summary returns totals and the per-category expense breakdown of a month.
		Summary(ctx context.Context, p core.Period) (core.TransactionSummary, error)
		// Monthly returns the count-month income/expense series ending at p.
		Monthly(ctx context.Context, p core.Period, count int) ([]core.MonthlyItem, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, in core.CreateTransactionInput) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// Backend bundles every port a finance data source implements.
	Backend interface {
		TransactionReader
		TransactionWriter
		CategoryReader
		// Ping reports whether the data source is reachable.
		Ping(ctx context.Context) error
	}
)
