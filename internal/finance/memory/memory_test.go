package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"devbills/internal/auth"
	"devbills/internal/core"
	"devbills/internal/finance"
)

func userCtx(uid string) context.Context {
	return auth.WithUser(context.Background(), &auth.User{UID: uid, DisplayName: uid})
}

func input(desc, amount, cat string, typ core.TransactionType, date time.Time) core.CreateTransactionInput {
	return core.CreateTransactionInput{
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		CategoryID:  cat,
		Type:        typ,
	}
}

func TestMemoryStoreCreateListDelete(t *testing.T) {
	s := New(DefaultCategories())
	ctx := userCtx("u1")
	march := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	created, err := s.CreateTransaction(ctx, input("Mercado", "120.50", "alimentacao", core.Expense, march))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "mem-1" || created.UserID != "u1" || created.Category.Name != "Alimentação" {
		t.Fatalf("unexpected created: %+v", created)
	}
	if created.Date.Hour() != 12 {
		t.Errorf("date not pinned to noon: %v", created.Date)
	}

	if _, err := s.CreateTransaction(ctx, input("Salário", "5000", "salario", core.Income, march.AddDate(0, 0, 5))); err != nil {
		t.Fatalf("create income: %v", err)
	}

	list, err := s.ListTransactions(ctx, core.TransactionFilter{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Description != "Salário" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	other, err := s.ListTransactions(userCtx("u2"), core.TransactionFilter{Year: 2025, Month: 3})
	if err != nil || len(other) != 0 {
		t.Fatalf("expected isolation between users, got %v %v", other, err)
	}

	if err := s.DeleteTransaction(ctx, "mem-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "mem-1"); !errors.Is(err, finance.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreRequiresUser(t *testing.T) {
	s := New(DefaultCategories())
	if _, err := s.ListTransactions(context.Background(), core.TransactionFilter{Year: 2025, Month: 1}); !errors.Is(err, finance.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestMemoryStoreRejectsMismatchedCategory(t *testing.T) {
	s := New(DefaultCategories())
	ctx := userCtx("u1")
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.CreateTransaction(ctx, input("x", "1", "salario", core.Expense, day)); err == nil {
		t.Fatal("expected error for income category on expense")
	}
	if _, err := s.CreateTransaction(ctx, input("x", "1", "nope", core.Expense, day)); !errors.Is(err, finance.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if _, err := s.CreateTransaction(ctx, input("x", "-1", "lazer", core.Expense, day)); !errors.Is(err, core.ErrNonPositiveAmount) {
		t.Fatalf("error = %v, want ErrNonPositiveAmount", err)
	}
}

func TestMemoryStoreSummaryAndMonthly(t *testing.T) {
	s := New(DefaultCategories())
	ctx := userCtx("u1")
	mustCreate := func(in core.CreateTransactionInput) {
		t.Helper()
		if _, err := s.CreateTransaction(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mustCreate(input("Aluguel", "1500", "moradia", core.Expense, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)))
	mustCreate(input("Mercado", "500", "alimentacao", core.Expense, time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)))
	mustCreate(input("Salário", "4000", "salario", core.Income, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	mustCreate(input("Mercado", "300", "alimentacao", core.Expense, time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)))

	sum, err := s.Summary(ctx, core.Period{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !sum.Balance.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("balance = %s, want 2000", sum.Balance)
	}
	if len(sum.ExpensesByCategory) != 2 || sum.ExpensesByCategory[0].CategoryID != "moradia" {
		t.Errorf("breakdown = %+v", sum.ExpensesByCategory)
	}

	series, err := s.Monthly(ctx, core.Period{Year: 2025, Month: 3}, 4)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(series) != 4 || series[0].Name != "Dez/24" {
		t.Fatalf("series = %+v", series)
	}
	if !series[0].Expenses.Equal(decimal.NewFromInt(300)) {
		t.Errorf("december expenses = %s", series[0].Expenses)
	}
	if !series[3].Income.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("march income = %s", series[3].Income)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != len(DefaultCategories()) {
		t.Fatalf("expected defaults when file missing, got %d", len(cats))
	}

	content := "# id|name|color|type\nfood|Comida|#fff|expense\nfood|Dup|#000|expense\n\nbad line\njob|Trabalho|#0f0|income\nx|X|#000|transfer\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 2 || cats[0].Name != "Comida" || cats[1].Type != core.Income {
		t.Fatalf("unexpected cats: %+v", cats)
	}
}
