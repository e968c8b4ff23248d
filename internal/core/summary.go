package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summarize totals incomes and expenses and breaks expenses down by
// category. Categories are sorted by amount, largest first, and their
// percentages are relative to total expenses.
func Summarize(txs []Transaction) TransactionSummary {
	var (
		incomes  = decimal.Zero
		expenses = decimal.Zero
		byCat    = map[string]*CategorySummary{}
		order    []string
	)

	for _, tx := range txs {
		if tx.IsIncome() {
			incomes = incomes.Add(tx.Amount)
			continue
		}
		expenses = expenses.Add(tx.Amount)
		cs, ok := byCat[tx.CategoryID]
		if !ok {
			cs = &CategorySummary{
				CategoryID:    tx.CategoryID,
				CategoryName:  tx.Category.Name,
				CategoryColor: tx.Category.Color,
				Amount:        decimal.Zero,
			}
			byCat[tx.CategoryID] = cs
			order = append(order, tx.CategoryID)
		}
		cs.Amount = cs.Amount.Add(tx.Amount)
	}

	list := make([]CategorySummary, 0, len(order))
	for _, id := range order {
		cs := byCat[id]
		if expenses.IsPositive() {
			cs.Percentage = cs.Amount.Mul(hundred).Div(expenses).Round(2).InexactFloat64()
		}
		list = append(list, *cs)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Amount.GreaterThan(list[j].Amount)
	})

	return TransactionSummary{
		TotalExpenses:      expenses,
		TotalIncomes:       incomes,
		Balance:            incomes.Sub(expenses),
		ExpensesByCategory: list,
	}
}

// MonthlySeries builds the trailing count-month income/expense series
// ending at end, oldest first. Months without transactions are zero.
func MonthlySeries(txs []Transaction, end Period, count int) []MonthlyItem {
	periods := end.Trailing(count)
	items := make([]MonthlyItem, len(periods))
	for i, p := range periods {
		items[i] = MonthlyItem{Name: p.ShortName(), Expenses: decimal.Zero, Income: decimal.Zero}
	}
	for _, tx := range txs {
		for i, p := range periods {
			if !p.Contains(tx.Date) {
				continue
			}
			if tx.IsIncome() {
				items[i].Income = items[i].Income.Add(tx.Amount)
			} else {
				items[i].Expenses = items[i].Expenses.Add(tx.Amount)
			}
			break
		}
	}
	return items
}
