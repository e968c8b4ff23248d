package http

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"devbills/internal/auth"
	"devbills/internal/core"
	applog "devbills/internal/log"
	appweb "devbills/web"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

var templateFuncs = template.FuncMap{
	"currency": core.FormatCurrency,
	"date":     core.FormatDate,
	"percent":  core.FormatPercent,
	"isoDate": func(p core.Period) string {
		return p.Start().Format("2006-01-02")
	},
	"color": func(c string) template.CSS {
		if hexColor.MatchString(c) {
			return template.CSS(c)
		}
		return "#9CA3AF"
	},
	"barWidth": func(pct float64) string {
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return strconv.FormatFloat(pct, 'f', 2, 64) + "%"
	},
	"negative": func(d decimal.Decimal) bool { return d.IsNegative() },
	"categorySelect": func(cats []core.Category, selected string) categorySelectView {
		return categorySelectView{Categories: cats, Selected: selected}
	},
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("devbills").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// FirebaseWebConfig is the public configuration of the Firebase JS SDK.
type FirebaseWebConfig struct {
	APIKey     string
	AuthDomain string
	ProjectID  string
	AppID      string
}

// page is the data every full page template receives.
type page struct {
	Title    string
	Active   string
	User     *auth.User
	Year     int
	Flash    string
	Firebase FirebaseWebConfig
	DevLogin bool
	Content  any
}

func (s *Server) newPage(w http.ResponseWriter, r *http.Request, title, active string, content any) page {
	u, _ := auth.UserFrom(r.Context())
	return page{
		Title:    title,
		Active:   active,
		User:     u,
		Year:     s.now().Year(),
		Flash:    s.popFlash(w, r),
		Firebase: s.opts.Firebase,
		DevLogin: s.opts.DevLogin,
		Content:  content,
	}
}

// render executes name into a buffer first so a failing template never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(r.Context(), "Template execution failed", err,
			applog.ComponentTemplate, applog.OpRender, applog.LogFields{"template": name})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.DebugContext(r.Context(), "Write response failed", "error", err)
	}
}

type periodNav struct {
	Period core.Period
	Prev   core.Period
	Next   core.Period
	Months []core.MonthOption
	Years  []int
}

func (s *Server) periodNav(p core.Period) periodNav {
	return periodNav{
		Period: p,
		Prev:   p.Prev(),
		Next:   p.Next(),
		Months: core.MonthOptions(),
		Years:  core.YearOptions(s.now().Year()),
	}
}

type dashboardView struct {
	periodNav
	Summary core.TransactionSummary
	Error   string
}

type transactionsView struct {
	periodNav
	Search       string
	Transactions []core.Transaction
	Error        string
}

type transactionFormView struct {
	Form       core.TransactionForm
	Type       core.TransactionType
	Categories []core.Category
	Error      string
}

type categorySelectView struct {
	Categories []core.Category
	Selected   string
}

type loginView struct {
	Error string
}
