package http

import (
	"bytes"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"fintrack/internal/export"
	"fintrack/internal/form"
	"fintrack/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}
	writeJSON(w, http.StatusOK, health)
}

// handleReady reports whether templates are parsed and the transaction
// list has finished loading from storage.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.svc.Loaded() {
		checks["transactions"] = "ok"
	} else {
		checks["transactions"] = "loading"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	checks["cache"] = map[string]interface{}{
		"entries": s.views.sizes(),
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	cacheHits, cacheMisses := s.views.stats()
	txs, version := s.svc.Snapshot()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP transactions Current number of transactions\n")
	fmt.Fprintf(w, "# TYPE transactions gauge\n")
	fmt.Fprintf(w, "transactions %d\n\n", len(txs))

	fmt.Fprintf(w, "# HELP transactions_version Transaction list version\n")
	fmt.Fprintf(w, "# TYPE transactions_version gauge\n")
	fmt.Fprintf(w, "transactions_version %d\n\n", version)

	fmt.Fprintf(w, "# HELP transaction_mutations_total Transaction mutations by operation\n")
	fmt.Fprintf(w, "# TYPE transaction_mutations_total counter\n")
	fmt.Fprintf(w, "transaction_mutations_total{op=\"create\"} %d\n", atomic.LoadInt64(&s.appMetrics.created))
	fmt.Fprintf(w, "transaction_mutations_total{op=\"update\"} %d\n", atomic.LoadInt64(&s.appMetrics.updated))
	fmt.Fprintf(w, "transaction_mutations_total{op=\"delete\"} %d\n\n", atomic.LoadInt64(&s.appMetrics.deleted))

	fmt.Fprintf(w, "# HELP exports_total Total XLSX exports served\n")
	fmt.Fprintf(w, "# TYPE exports_total counter\n")
	fmt.Fprintf(w, "exports_total %d\n\n", atomic.LoadInt64(&s.appMetrics.exports))

	fmt.Fprintf(w, "# HELP cache_hits_total Total view cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", cacheHits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total view cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", cacheMisses)

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	for _, name := range []string{"summary", "monthly", "pie", "breakdown", "rows"} {
		fmt.Fprintf(w, "cache_entries{type=%q} %d\n", name, s.views.sizes()[name])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", time.Since(s.appMetrics.uptime).Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	data := struct {
		Form        formView
		RecentLimit int
	}{
		Form:        buildFormView(form.New(s.now)),
		RecentLimit: s.recentLimit,
	}
	s.render(w, r, "dashboard_page", data)
}

// handleExport streams the whole list as a workbook. The file is built in
// memory first so a failure can still produce a clean 500.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	txs, _, now := s.snapshot()
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, txs, now); err != nil {
		s.events.LogError(r.Context(), "Export failed", err, log.OpExport, log.NewFields().WithCount(len(txs)))
		InternalServerError("Export failed").TriggerErrorNotification("Export failed").Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.exports, 1)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(now)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
