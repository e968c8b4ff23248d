package core

import (
	"fmt"
	"strconv"
	"time"
)

// yearSpan is how many years before and after the current one the
// month/year selector offers.
const yearSpan = 5

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

var monthAbbrevs = [12]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// Period is a calendar month. Month is 1-based.
type Period struct {
	Year  int
	Month int
}

// NewPeriod validates year and month.
func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if !p.Valid() {
		return Period{}, fmt.Errorf("invalid period %04d-%02d", year, month)
	}
	return p, nil
}

// CurrentPeriod returns the period containing now.
func CurrentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Month: int(now.Month())}
}

func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year > 0
}

// Add moves the period by n months, carrying into the year.
func (p Period) Add(n int) Period {
	idx := p.Year*12 + (p.Month - 1) + n
	year := idx / 12
	month := idx % 12
	if month < 0 {
		month += 12
		year--
	}
	return Period{Year: year, Month: month + 1}
}

// Next steps forward one month; December wraps to January of the next year.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Prev steps back one month; January wraps to December of the previous year.
func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Trailing returns count periods ending at p, oldest first.
func (p Period) Trailing(count int) []Period {
	if count <= 0 {
		return nil
	}
	out := make([]Period, count)
	for i := 0; i < count; i++ {
		out[i] = p.Add(i - count + 1)
	}
	return out
}

// Start returns midnight UTC of the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t, read in UTC, falls inside the month.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

// MonthName returns the pt-BR month name, e.g. "Março".
func (p Period) MonthName() string {
	if p.Month < 1 || p.Month > 12 {
		return ""
	}
	return monthNames[p.Month-1]
}

// ShortName returns the abbreviated label used on chart axes, e.g. "Mar/25".
func (p Period) ShortName() string {
	if p.Month < 1 || p.Month > 12 {
		return ""
	}
	return fmt.Sprintf("%s/%02d", monthAbbrevs[p.Month-1], p.Year%100)
}

func (p Period) String() string {
	return p.MonthName() + " de " + strconv.Itoa(p.Year)
}

// MonthOption is one entry of the month select.
type MonthOption struct {
	Value int
	Label string
}

// MonthOptions lists Janeiro..Dezembro with their 1-based values.
func MonthOptions() []MonthOption {
	out := make([]MonthOption, len(monthNames))
	for i, name := range monthNames {
		out[i] = MonthOption{Value: i + 1, Label: name}
	}
	return out
}

// YearOptions lists the selectable years around current, inclusive.
func YearOptions(current int) []int {
	out := make([]int, 0, 2*yearSpan+1)
	for y := current - yearSpan; y <= current+yearSpan; y++ {
		out = append(out, y)
	}
	return out
}
