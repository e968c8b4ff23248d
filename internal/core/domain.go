package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

type (
	TransactionType string

	Category struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Color string          `json:"color"`
		Type  TransactionType `json:"type"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Date        time.Time       `json:"date"`
		CategoryID  string          `json:"categoryId"`
		Category    Category        `json:"category"`
		Type        TransactionType `json:"type"`
		UpdatedAt   time.Time       `json:"updateAt"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	CategorySummary struct {
		CategoryID    string          `json:"categoryId"`
		CategoryName  string          `json:"categoryName"`
		CategoryColor string          `json:"categoryColor"`
		Amount        decimal.Decimal `json:"amount"`
		Percentage    float64         `json:"percentage"`
	}

	TransactionSummary struct {
		TotalExpenses      decimal.Decimal   `json:"totalExpenses"`
		TotalIncomes       decimal.Decimal   `json:"totalIncomes"`
		Balance            decimal.Decimal   `json:"balance"`
		ExpensesByCategory []CategorySummary `json:"expensesByCategory"`
	}

	// MonthlyItem is one point of the trailing income/expense series.
	MonthlyItem struct {
		Name     string          `json:"name"`
		Expenses decimal.Decimal `json:"expenses"`
		Income   decimal.Decimal `json:"income"`
	}

	// TransactionFilter selects the transactions of one month. CategoryID and
	// Type are optional narrowing criteria.
	TransactionFilter struct {
		Month      int
		Year       int
		CategoryID string
		Type       TransactionType
	}
)

// ParseTransactionType maps user input to a TransactionType. Empty input
// selects Expense, the default of the new transaction form.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case "", Expense:
		return Expense, true
	case Income:
		return Income, true
	default:
		return "", false
	}
}

func (t TransactionType) IsValid() bool {
	return t == Expense || t == Income
}

// Label returns the pt-BR label shown in the type selector.
func (t TransactionType) Label() string {
	if t == Income {
		return "Receita"
	}
	return "Despesa"
}

func (t TransactionType) String() string {
	return string(t)
}

// Period returns the month the filter selects.
func (f TransactionFilter) Period() Period {
	return Period{Year: f.Year, Month: f.Month}
}

// Matches reports whether tx satisfies the filter's month and optional criteria.
func (f TransactionFilter) Matches(tx Transaction) bool {
	if !f.Period().Contains(tx.Date) {
		return false
	}
	if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	return true
}

// IsIncome reports whether the transaction adds to the balance.
func (tx Transaction) IsIncome() bool {
	return tx.Type == Income
}
