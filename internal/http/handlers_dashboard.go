package http

import (
	"bytes"
	"net/http"

	applog "devbills/internal/log"
	"devbills/internal/services"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := ParsePeriod(r.URL.Query(), s.now())
	view := dashboardView{periodNav: s.periodNav(p)}

	// The series is loaded by the chart image on its own.
	sum, err := s.tx.Summary(ctx, p)
	if err != nil {
		if s.sessionRevoked(w, r, err) {
			return
		}
		s.appMetrics.backendErrors.Add(1)
		s.structured.LogError(ctx, "Dashboard load failed", err,
			applog.ComponentDashboard, applog.OpList, applog.NewFields().WithPeriod(p.Year, p.Month))
		view.Error = msgDashboardLoadFailed
	} else {
		view.Summary = sum
	}

	if isHTMX(r) {
		s.render(w, r, http.StatusOK, "dashboard_content", view)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard.html", s.newPage(w, r, "Dashboard", "dashboard", view))
}

// handleDashboardChart serves the trailing income/expense series as SVG.
func (s *Server) handleDashboardChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := ParsePeriod(r.URL.Query(), s.now())

	items, err := s.tx.Monthly(ctx, p, services.DashboardMonths)
	if err != nil {
		if s.sessionRevoked(w, r, err) {
			return
		}
		s.appMetrics.backendErrors.Add(1)
		s.structured.LogError(ctx, "Monthly series load failed", err,
			applog.ComponentDashboard, applog.OpList, applog.NewFields().WithPeriod(p.Year, p.Month))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	var buf bytes.Buffer
	if err := renderMonthlyChart(&buf, items); err != nil {
		s.structured.LogError(ctx, "Chart render failed", err,
			applog.ComponentDashboard, applog.OpRender, nil)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
