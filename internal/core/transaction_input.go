package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationError carries a message meant for the person filling the form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrMissingFields      = &ValidationError{Message: "Preencha todos os campos"}
	ErrNonPositiveAmount  = &ValidationError{Message: "O valor deve ser maio que zero"}
	ErrInvalidAmountInput = &ValidationError{Message: "Valor inválido"}
	ErrInvalidDate        = &ValidationError{Message: "Data inválida"}
	ErrInvalidType        = &ValidationError{Message: "Tipo de transação inválido"}
)

const (
	formDateLayout = "2006-01-02"
	maxDescription = 200
)

// TransactionForm holds the raw values of the new transaction form.
type TransactionForm struct {
	Description string
	Amount      string
	Date        string
	CategoryID  string
	Type        string
}

// CreateTransactionInput is a validated new transaction.
type CreateTransactionInput struct {
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	CategoryID  string
	Type        TransactionType
}

// Parse validates the form. Missing description, amount or category is
// reported before any amount check, and a zero amount counts as missing.
func (f TransactionForm) Parse() (CreateTransactionInput, error) {
	desc := strings.TrimSpace(f.Description)
	rawAmount := strings.TrimSpace(f.Amount)
	categoryID := strings.TrimSpace(f.CategoryID)
	rawDate := strings.TrimSpace(f.Date)

	if desc == "" || rawAmount == "" || categoryID == "" || rawDate == "" {
		return CreateTransactionInput{}, ErrMissingFields
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return CreateTransactionInput{}, ErrInvalidAmountInput
	}
	if amount.IsZero() {
		return CreateTransactionInput{}, ErrMissingFields
	}
	if !amount.IsPositive() {
		return CreateTransactionInput{}, ErrNonPositiveAmount
	}

	day, err := time.Parse(formDateLayout, rawDate)
	if err != nil {
		return CreateTransactionInput{}, ErrInvalidDate
	}

	txType, ok := ParseTransactionType(f.Type)
	if !ok {
		return CreateTransactionInput{}, ErrInvalidType
	}

	if len([]rune(desc)) > maxDescription {
		desc = string([]rune(desc)[:maxDescription])
	}

	return CreateTransactionInput{
		Description: desc,
		Amount:      amount,
		Date:        NoonUTC(day),
		CategoryID:  categoryID,
		Type:        txType,
	}, nil
}

// Validate re-checks an input built outside of TransactionForm.
func (in CreateTransactionInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" || in.Amount.IsZero() || strings.TrimSpace(in.CategoryID) == "" {
		return ErrMissingFields
	}
	if !in.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	if !in.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

// WireDate renders the date the way the transactions API stores it:
// the calendar day at 12:00 UTC, e.g. "2025-03-10T12:00:00.000Z".
func (in CreateTransactionInput) WireDate() string {
	return in.Date.UTC().Format(formDateLayout) + "T12:00:00.000Z"
}

// NoonUTC pins the calendar day of t to 12:00 UTC so the day survives any
// timezone shift on display.
func NoonUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}
