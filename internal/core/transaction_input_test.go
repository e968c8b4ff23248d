package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionFormParse(t *testing.T) {
	good := TransactionForm{
		Description: "  Supermercado ",
		Amount:      "150,75",
		Date:        "2025-03-10",
		CategoryID:  "cat-food",
		Type:        "expense",
	}
	in, err := good.Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if in.Description != "Supermercado" {
		t.Errorf("Description = %q", in.Description)
	}
	if in.Amount.String() != "150.75" {
		t.Errorf("Amount = %s", in.Amount)
	}
	if !in.Date.Equal(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", in.Date)
	}
	if got := in.WireDate(); got != "2025-03-10T12:00:00.000Z" {
		t.Errorf("WireDate = %q", got)
	}
	if in.Type != Expense {
		t.Errorf("Type = %q", in.Type)
	}
	if err := in.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestTransactionFormDefaultsToExpense(t *testing.T) {
	in, err := TransactionForm{Description: "a", Amount: "1", Date: "2025-01-01", CategoryID: "c"}.Parse()
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if in.Type != Expense {
		t.Errorf("Type = %q, want expense", in.Type)
	}
}

func TestTransactionFormErrors(t *testing.T) {
	base := TransactionForm{Description: "a", Amount: "10", Date: "2025-01-01", CategoryID: "c", Type: "income"}
	cases := []struct {
		name   string
		mutate func(*TransactionForm)
		want   error
	}{
		{"missing description", func(f *TransactionForm) { f.Description = "  " }, ErrMissingFields},
		{"missing amount", func(f *TransactionForm) { f.Amount = "" }, ErrMissingFields},
		{"zero amount", func(f *TransactionForm) { f.Amount = "0" }, ErrMissingFields},
		{"missing category", func(f *TransactionForm) { f.CategoryID = "" }, ErrMissingFields},
		{"missing date", func(f *TransactionForm) { f.Date = "" }, ErrMissingFields},
		{"negative amount", func(f *TransactionForm) { f.Amount = "-5" }, ErrNonPositiveAmount},
		{"garbage amount", func(f *TransactionForm) { f.Amount = "dez" }, ErrInvalidAmountInput},
		{"bad date", func(f *TransactionForm) { f.Date = "10/03/2025" }, ErrInvalidDate},
		{"bad type", func(f *TransactionForm) { f.Type = "transfer" }, ErrInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := base
			tc.mutate(&f)
			_, err := f.Parse()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	if ErrMissingFields.Error() != "Preencha todos os campos" {
		t.Errorf("ErrMissingFields = %q", ErrMissingFields.Error())
	}
	if ErrNonPositiveAmount.Error() != "O valor deve ser maio que zero" {
		t.Errorf("ErrNonPositiveAmount = %q", ErrNonPositiveAmount.Error())
	}
	var ve *ValidationError
	if !errors.As(error(ErrInvalidDate), &ve) {
		t.Error("expected ErrInvalidDate to be a *ValidationError")
	}
}

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"", Expense, true},
		{"expense", Expense, true},
		{"INCOME", Income, true},
		{"other", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseTransactionType(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseTransactionType(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	if Income.Label() != "Receita" || Expense.Label() != "Despesa" {
		t.Errorf("labels = %q/%q", Income.Label(), Expense.Label())
	}
}
