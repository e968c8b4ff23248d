package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"devbills/internal/amqp"
	"devbills/internal/auth"
	"devbills/internal/core"
	"devbills/internal/finance"
)

// DashboardMonths is the length of the dashboard's income/expense series.
const DashboardMonths = 6

// EventPublisher announces transaction activity. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, e *amqp.TransactionEvent) error
}

// TransactionService orchestrates transaction operations across the finance
// backend and the optional activity event publisher.
type TransactionService struct {
	backend finance.Backend
	events  EventPublisher
}

func NewTransactionService(backend finance.Backend, events EventPublisher) *TransactionService {
	return &TransactionService{
		backend: backend,
		events:  events,
	}
}

// Dashboard is the month summary plus the trailing series. MonthlyErr holds
// the series failure, which does not fail the whole dashboard.
type Dashboard struct {
	Period     core.Period
	Summary    core.TransactionSummary
	Monthly    []core.MonthlyItem
	MonthlyErr error
}

// Dashboard fetches the month summary and the trailing series concurrently.
// Only a summary failure is returned as an error.
func (s *TransactionService) Dashboard(ctx context.Context, p core.Period) (Dashboard, error) {
	d := Dashboard{Period: p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.backend.Summary(gctx, p)
		if err != nil {
			return fmt.Errorf("load summary: %w", err)
		}
		d.Summary = sum
		return nil
	})
	g.Go(func() error {
		series, err := s.backend.Monthly(gctx, p, DashboardMonths)
		if err != nil {
			d.MonthlyErr = fmt.Errorf("load monthly series: %w", err)
			return nil
		}
		d.Monthly = series
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// Monthly returns the count-month series ending at p.
func (s *TransactionService) Monthly(ctx context.Context, p core.Period, count int) ([]core.MonthlyItem, error) {
	return s.backend.Monthly(ctx, p, count)
}

// Summary returns the totals of one month.
func (s *TransactionService) Summary(ctx context.Context, p core.Period) (core.TransactionSummary, error) {
	return s.backend.Summary(ctx, p)
}

// Transactions lists a month and applies the description search.
func (s *TransactionService) Transactions(ctx context.Context, filter core.TransactionFilter, search string) ([]core.Transaction, error) {
	txs, err := s.backend.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.FilterByDescription(txs, search), nil
}

// Categories lists the categories of one transaction type.
func (s *TransactionService) Categories(ctx context.Context, t core.TransactionType) ([]core.Category, error) {
	cats, err := s.backend.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return core.FilterCategoriesByType(cats, t), nil
}

// AllCategories lists every category.
func (s *TransactionService) AllCategories(ctx context.Context) ([]core.Category, error) {
	return s.backend.ListCategories(ctx)
}

// CreateFromForm parses the form and creates the transaction.
func (s *TransactionService) CreateFromForm(ctx context.Context, form core.TransactionForm) (core.Transaction, error) {
	in, err := form.Parse()
	if err != nil {
		return core.Transaction{}, err
	}
	return s.CreateTransaction(ctx, in)
}

// CreateTransaction validates in, stores it and publishes a created event.
func (s *TransactionService) CreateTransaction(ctx context.Context, in core.CreateTransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.backend.CreateTransaction(ctx, in)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	e := amqp.NewTransactionEvent(amqp.TransactionCreated, tx.ID, s.userID(ctx, tx.UserID))
	e.Amount = tx.Amount.StringFixed(2)
	e.TransactionType = string(tx.Type)
	s.publish(ctx, e)

	return tx, nil
}

// DeleteTransaction removes a transaction and publishes a deleted event.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.backend.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	s.publish(ctx, amqp.NewTransactionEvent(amqp.TransactionDeleted, id, s.userID(ctx, "")))
	return nil
}

// Ping checks the finance backend.
func (s *TransactionService) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// publish never fails the caller: the transaction is already stored.
func (s *TransactionService) publish(ctx context.Context, e *amqp.TransactionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", e.Type,
			"transaction_id", e.TransactionID,
			"error", err)
	}
}

func (s *TransactionService) userID(ctx context.Context, fallback string) string {
	if u, ok := auth.UserFrom(ctx); ok && u.UID != "" {
		return u.UID
	}
	return fallback
}

// Close releases the event publisher when it holds a connection.
func (s *TransactionService) Close() error {
	if c, ok := s.events.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close event publisher: %w", err)
		}
	}
	return nil
}
