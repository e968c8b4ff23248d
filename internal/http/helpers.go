package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"devbills/internal/core"
)

// ParsePeriod reads month and year from query, falling back to the month
// of now for anything missing or out of range.
func ParsePeriod(query url.Values, now time.Time) core.Period {
	p := core.CurrentPeriod(now)

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1970 && y <= 9999 {
			p.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			p.Month = m
		}
	}
	return p
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl removes control characters except tab, newline and
// carriage return. Surrounding spaces are kept.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends the browser to target; HTMX requests get HX-Redirect so
// the whole page navigates instead of swapping the target.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

const flashCookie = "devbills_flash"

// Flash codes carried across a redirect.
const (
	flashTransactionCreated = "transaction-created"
	flashSignedOut          = "signed-out"
)

var flashMessages = map[string]string{
	flashTransactionCreated: msgTransactionCreated,
	flashSignedOut:          "Você saiu da sua conta.",
}

func (s *Server) setFlash(w http.ResponseWriter, code string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    code,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns and clears the pending flash message, if any.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return flashMessages[c.Value]
}
