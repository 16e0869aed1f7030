package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/adapter/files"
	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/couchcryptid/covid-state-tracker/internal/observability"
	"github.com/couchcryptid/covid-state-tracker/internal/pipeline"
	"github.com/couchcryptid/covid-state-tracker/internal/render"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportSource provides the latest completed report.
type ReportSource interface {
	sharedobs.ReadinessChecker
	Latest() *pipeline.Report
}

// Server exposes health, readiness, metrics, and report endpoints.
type Server struct {
	httpServer *http.Server
	reports    ReportSource
	cache      *reportCache
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /report,
// /api/snapshot and /api/curves routes. Rendered report pages are kept in an
// LRU cache of cacheSize entries.
func NewServer(addr string, reports ReportSource, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		cache:   newReportCache(cacheSize),
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(reports))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/curves", s.handleCurves)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.reports.Latest()
	if report == nil {
		writeError(w, http.StatusServiceUnavailable, "no report available yet")
		return
	}

	key := cacheKey(report, r.URL.Query())
	if page, ok := s.cache.get(key); ok {
		s.metrics.ReportCache.WithLabelValues("hit").Inc()
		writeHTML(w, page)
		return
	}
	s.metrics.ReportCache.WithLabelValues("miss").Inc()

	table, status, err := s.snapshot(report, r.URL.Query())
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	htmlReport := files.HTMLReport(report)
	htmlReport.Snapshot = table

	var buf bytes.Buffer
	if err := render.WriteHTML(&buf, htmlReport); err != nil {
		s.logger.Error("render report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "render error")
		return
	}
	s.cache.put(key, buf.Bytes())
	writeHTML(w, buf.Bytes())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	report := s.reports.Latest()
	if report == nil {
		writeError(w, http.StatusServiceUnavailable, "no report available yet")
		return
	}
	table, status, err := s.snapshot(report, r.URL.Query())
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, table)
}

func (s *Server) handleCurves(w http.ResponseWriter, _ *http.Request) {
	report := s.reports.Latest()
	if report == nil {
		writeError(w, http.StatusServiceUnavailable, "no report available yet")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report.Results.Curves)
}

// snapshot returns the report's own table when the query selects nothing,
// otherwise a fresh snapshot. Regions lacking data are skipped, not fatal.
func (s *Server) snapshot(report *pipeline.Report, q url.Values) (domain.ComparisonTable, int, error) {
	if q.Get("x") == "" && q.Get("y") == "" && q.Get("regions") == "" {
		return report.Snapshot, http.StatusOK, nil
	}

	x, y := report.Snapshot.XMetric, report.Snapshot.YMetric
	labelX, labelY := report.Snapshot.XLabel, report.Snapshot.YLabel
	if v := q.Get("x"); v != "" {
		k, err := domain.ParseMetricKind(v)
		if err != nil {
			return domain.ComparisonTable{}, http.StatusBadRequest, fmt.Errorf("x: %w", err)
		}
		if k != x {
			x, labelX = k, ""
		}
	}
	if v := q.Get("y"); v != "" {
		k, err := domain.ParseMetricKind(v)
		if err != nil {
			return domain.ComparisonTable{}, http.StatusBadRequest, fmt.Errorf("y: %w", err)
		}
		if k != y {
			y, labelY = k, ""
		}
	}

	table, err := report.Results.Snapshot(x, y, labelX, labelY, parseRegions(q.Get("regions")))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUnknownRegion):
		return domain.ComparisonTable{}, http.StatusBadRequest, err
	case errors.Is(err, domain.ErrEmptySeries):
		s.logger.Debug("regions skipped from snapshot", "regions", table.Skipped)
	default:
		return domain.ComparisonTable{}, http.StatusInternalServerError, err
	}
	return table, http.StatusOK, nil
}

func parseRegions(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func cacheKey(report *pipeline.Report, q url.Values) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		report.RunID,
		strings.ToLower(q.Get("x")),
		strings.ToLower(q.Get("y")),
		strings.Join(parseRegions(q.Get("regions")), ","),
	)
}

func writeHTML(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
