package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"gastos/internal/core"
	applog "gastos/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if _, err := s.store.All(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = map[string]any{
			"status":   "ok",
			"revision": s.store.Revision(),
		}
	}

	if s.reports.SheetsEnabled() {
		checks["sheets"] = "configured"
	} else {
		checks["sheets"] = "not_configured"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	// Prometheus text exposition format
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_request_duration_avg_microseconds", "gauge", "Average request duration", traceMetrics.AverageResponseTime)
	metric("transactions_total", "counter", "Total number of transactions added", s.appMetrics.totalTransactions.Load())
	metric("store_revision", "gauge", "Current transaction store revision", s.store.Revision())
	metric("exports_total", "counter", "Total number of report downloads", s.appMetrics.totalExports.Load())
	metric("sheets_exports_total", "counter", "Total number of reports sent to Google Sheets", s.appMetrics.sheetsExports.Load())
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("invalid_ip_attempts_total", "counter", "Forwarded headers carrying an invalid IP", securityMetrics.InvalidIPAttempts)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.appMetrics.uptime).Seconds()))
}

type indexData struct {
	Lang          string
	Header        []string // Date, Description, Category, Type, Amount
	Summary       summaryView
	Transactions  []transactionView
	Types         []typeOption
	DefaultType   string
	Categories    []string
	SheetsEnabled bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := s.store.Formatter()

	txs, err := s.store.All(ctx)
	if err != nil {
		s.logError(ctx, "Failed to list transactions", err, applog.ComponentTransaction, applog.OpList)
		InternalServerError("Failed to load transactions").Write(w)
		return
	}

	data := indexData{
		Lang:          f.Tag(),
		Header:        f.Header(),
		Summary:       newSummaryView(f, core.Summarize(txs)),
		Transactions:  newHistoryView(f, txs),
		Types:         typeOptions(f),
		DefaultType:   core.Expense.String(),
		Categories:    core.CategoriesFor(core.Expense),
		SheetsEnabled: s.reports.SheetsEnabled(),
	}
	s.render(w, r, "index.html", data)
}

// render executes a template into a buffer so that a failing template
// never produces a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			"template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) logError(ctx context.Context, msg string, err error, component, operation string) {
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogError(ctx, msg, err, component, operation, applog.NewFields())
}
