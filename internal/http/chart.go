package http

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"devbills/internal/core"
)

var (
	incomeColor  = drawing.ColorFromHex("37E359")
	expenseColor = drawing.ColorFromHex("F75A68")
	gridColor    = drawing.ColorFromHex("E5E7EB")
)

// renderMonthlyChart draws the income and expense lines of items as SVG.
func renderMonthlyChart(w io.Writer, items []core.MonthlyItem) error {
	// go-chart derives the x range from the ticks and needs two of them.
	for len(items) < 2 {
		items = append(items[:len(items):len(items)], core.MonthlyItem{})
	}
	n := len(items)
	xs := make([]float64, n)
	incomes := make([]float64, n)
	expenses := make([]float64, n)
	ticks := make([]chart.Tick, n)

	maxValue := 0.0
	for i, it := range items {
		xs[i] = float64(i)
		incomes[i] = it.Income.InexactFloat64()
		expenses[i] = it.Expenses.InexactFloat64()
		ticks[i] = chart.Tick{Value: float64(i), Label: it.Name}
		maxValue = max(maxValue, incomes[i], expenses[i])
	}

	yMax := maxValue * 1.1
	if yMax <= 0 {
		yMax = 1
	}

	graph := chart.Chart{
		Width:  720,
		Height: 320,
		Background: chart.Style{
			Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(n - 1)},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Receitas",
				XValues: xs,
				YValues: incomes,
				Style:   chart.Style{StrokeColor: incomeColor, StrokeWidth: 3, DotColor: incomeColor, DotWidth: 4},
			},
			chart.ContinuousSeries{
				Name:    "Despesas",
				XValues: xs,
				YValues: expenses,
				Style:   chart.Style{StrokeColor: expenseColor, StrokeWidth: 3, DotColor: expenseColor, DotWidth: 4},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.SVG, w)
}
