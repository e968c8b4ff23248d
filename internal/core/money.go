// Package core provides money parsing and formatting utilities.
//
// Amounts are decimal.Decimal values in reais. Formatting follows the pt-BR
// conventions of the BRL currency: "." groups thousands, "," separates cents
// and a non-breaking space follows the "R$" symbol.
package core

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

const currencySymbol = "R$\u00a0"

// ParseAmount parses user input such as "12.34", "12,34" or "1.234,56".
// A comma marks the decimal separator whenever present, in which case dots
// are treated as thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatCurrency renders v as BRL, e.g. "R$ 1.234,56" or "-R$ 10,00".
func FormatCurrency(v decimal.Decimal) string {
	v = v.Round(2)
	neg := v.IsNegative()
	intPart, frac, _ := strings.Cut(v.Abs().StringFixed(2), ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(currencySymbol)
	b.WriteString(groupThousands(intPart))
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatPercent renders p with one decimal place and a comma, e.g. "12,5%".
func FormatPercent(p float64) string {
	return strings.Replace(strconv.FormatFloat(p, 'f', 1, 64), ".", ",", 1) + "%"
}

// FormatDate renders the calendar day of t in UTC as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("02/01/2006")
}
