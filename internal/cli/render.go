package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"devbills/internal/amqp"
	"devbills/internal/core"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5429CC"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#12A454"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E52E4D"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#969CB3"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#12A454")).Bold(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// signedAmount formats an amount the way the transaction list shows it:
// expenses carry a leading minus.
func signedAmount(tx core.Transaction) string {
	s := core.FormatCurrency(tx.Amount)
	if tx.IsIncome() {
		return incomeStyle.Render(s)
	}
	return expenseStyle.Render("- " + s)
}

// RenderTransactions prints the month's transactions as a table.
func RenderTransactions(w io.Writer, p core.Period, txs []core.Transaction) {
	fmt.Fprintln(w, titleStyle.Render("Transações · "+p.String()))
	if len(txs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nenhuma transação encontrada."))
		return
	}

	t := newTable("ID", "Descrição", "Data", "Categoria", "Valor")
	for _, tx := range txs {
		t.Row(tx.ID, tx.Description, core.FormatDate(tx.Date), tx.Category.Name, signedAmount(tx))
	}
	fmt.Fprintln(w, t.String())
}

// RenderSummary prints the month totals and the expense breakdown.
func RenderSummary(w io.Writer, p core.Period, s core.TransactionSummary) {
	fmt.Fprintln(w, titleStyle.Render("Resumo · "+p.String()))

	balance := core.FormatCurrency(s.Balance)
	if s.Balance.IsNegative() {
		balance = expenseStyle.Render(balance)
	} else {
		balance = incomeStyle.Render(balance)
	}
	totals := newTable("Receitas", "Despesas", "Saldo").
		Row(incomeStyle.Render(core.FormatCurrency(s.TotalIncomes)),
			expenseStyle.Render(core.FormatCurrency(s.TotalExpenses)),
			balance)
	fmt.Fprintln(w, totals.String())

	if len(s.ExpensesByCategory) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nenhuma despesa no período."))
		return
	}
	cats := newTable("Categoria", "Valor", "%")
	for _, c := range s.ExpensesByCategory {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.CategoryColor)).Render("●")
		cats.Row(swatch+" "+c.CategoryName, core.FormatCurrency(c.Amount), core.FormatPercent(c.Percentage))
	}
	fmt.Fprintln(w, cats.String())
}

// RenderMonthly prints the trailing income/expense series, oldest first.
func RenderMonthly(w io.Writer, items []core.MonthlyItem) {
	fmt.Fprintln(w, titleStyle.Render("Histórico mensal"))
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Sem dados."))
		return
	}
	t := newTable("Mês", "Receitas", "Despesas")
	for _, it := range items {
		t.Row(it.Name,
			incomeStyle.Render(core.FormatCurrency(it.Income)),
			expenseStyle.Render(core.FormatCurrency(it.Expenses)))
	}
	fmt.Fprintln(w, t.String())
}

// RenderCategories prints categories with their type.
func RenderCategories(w io.Writer, cats []core.Category) {
	if len(cats) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nenhuma categoria."))
		return
	}
	t := newTable("ID", "Nome", "Tipo")
	for _, c := range cats {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
		t.Row(c.ID, swatch+" "+c.Name, c.Type.Label())
	}
	fmt.Fprintln(w, t.String())
}

// RenderCreated confirms a new transaction.
func RenderCreated(w io.Writer, tx core.Transaction) {
	fmt.Fprintf(w, "%s %s %s (%s)\n",
		okStyle.Render("✓"), tx.Description, signedAmount(tx), mutedStyle.Render(tx.ID))
}

// RenderDeleted confirms a deletion.
func RenderDeleted(w io.Writer, id string) {
	fmt.Fprintf(w, "%s Transação %s deletada\n", okStyle.Render("✓"), id)
}

// RenderEvent prints one activity event on a single line.
func RenderEvent(w io.Writer, e *amqp.TransactionEvent) {
	var kind string
	switch e.Type {
	case amqp.TransactionCreated:
		kind = incomeStyle.Render("criada ")
	case amqp.TransactionDeleted:
		kind = expenseStyle.Render("deletada")
	default:
		kind = string(e.Type)
	}

	parts := []string{
		mutedStyle.Render(e.Timestamp.Local().Format("02/01/2006 15:04:05")),
		kind,
		e.TransactionID,
	}
	if e.Amount != "" {
		parts = append(parts, e.Amount)
	}
	if e.TransactionType != "" {
		parts = append(parts, e.TransactionType)
	}
	parts = append(parts, mutedStyle.Render("user="+e.UserID))
	fmt.Fprintln(w, strings.Join(parts, "  "))
}
