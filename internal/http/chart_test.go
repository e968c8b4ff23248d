package http

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"devbills/internal/core"
)

func TestRenderMonthlyChart(t *testing.T) {
	items := []core.MonthlyItem{
		{Name: "Jan/25", Income: decimal.NewFromInt(5000), Expenses: decimal.NewFromInt(3200)},
		{Name: "Fev/25", Income: decimal.NewFromInt(5000), Expenses: decimal.RequireFromString("4100.50")},
		{Name: "Mar/25", Income: decimal.NewFromInt(6200), Expenses: decimal.NewFromInt(2900)},
	}

	var buf bytes.Buffer
	if err := renderMonthlyChart(&buf, items); err != nil {
		t.Fatalf("renderMonthlyChart() error = %v", err)
	}
	svg := buf.String()
	if !strings.Contains(svg, "<svg") {
		t.Fatalf("output is not SVG: %.80s", svg)
	}
	for _, want := range []string{"Jan/25", "Mar/25", "Receitas", "Despesas"} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestRenderMonthlyChartWithoutData(t *testing.T) {
	cases := map[string][]core.MonthlyItem{
		"nil":          nil,
		"empty":        {},
		"all zero":     {{Name: "Jan/25"}, {Name: "Fev/25"}},
		"single month": {{Name: "Mar/25", Income: decimal.NewFromInt(10)}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := renderMonthlyChart(&buf, items); err != nil {
				t.Fatalf("renderMonthlyChart() error = %v", err)
			}
			if buf.Len() == 0 {
				t.Fatal("empty output")
			}
			for _, it := range items {
				if !strings.Contains(buf.String(), it.Name) {
					t.Errorf("SVG missing %q", it.Name)
				}
			}
		})
	}
}
