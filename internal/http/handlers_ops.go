package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"devbills/internal/middleware/ratelimit"
)

// readyTimeout bounds the dependency checks of /ready.
const readyTimeout = 5 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	health := map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady checks templates, the finance backend and the session store,
// and reports the event broker connection when there is one.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	fail := func(name string, err error) {
		checks[name] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", fmt.Errorf("templates not loaded"))
	} else {
		checks["templates"] = "ok"
	}

	if err := s.tx.Ping(ctx); err != nil {
		fail("finance_backend", err)
	} else {
		checks["finance_backend"] = "ok"
	}

	if err := s.sessions.Ping(ctx); err != nil {
		fail("session_store", err)
	} else {
		checks["session_store"] = "ok"
	}

	// Events are best effort: a lost broker is reported without failing.
	if s.events != nil {
		if s.events.Healthy() {
			checks["events"] = "ok"
		} else {
			checks["events"] = "disconnected"
		}
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	traceMetrics := s.traceMiddleware.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	var rateLimitMetrics ratelimit.Metrics
	if s.rateLimiter != nil {
		rateLimitMetrics = s.rateLimiter.GetMetrics()
	}

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_requests_active", "gauge", "Requests being served", traceMetrics.ActiveRequests)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time in microseconds", traceMetrics.AverageResponseTime)

	metric("transactions_created_total", "counter", "Transactions created through the web UI", s.appMetrics.transactionsCreated.Load())
	metric("transactions_deleted_total", "counter", "Transactions deleted through the web UI", s.appMetrics.transactionsDeleted.Load())
	metric("sessions_created_total", "counter", "Successful sign-ins", s.appMetrics.sessionsCreated.Load())
	metric("login_failures_total", "counter", "Rejected sign-in attempts", s.appMetrics.loginFailures.Load())
	metric("backend_errors_total", "counter", "Failed finance backend calls", s.appMetrics.backendErrors.Load())

	metric("rate_limit_rejected_total", "counter", "Requests rejected by the rate limit", rateLimitMetrics.Rejected)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limit", rateLimitMetrics.ClientCount)
	metric("security_suspicious_requests_total", "counter", "Requests matching probe patterns", securityMetrics.SuspiciousRequests)

	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.appMetrics.uptime).Seconds()))
}
