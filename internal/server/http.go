// Package server exposes the pull-model query surface over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tickersentry/internal/activity"
	"tickersentry/internal/core"
	"tickersentry/internal/logger"
	"tickersentry/internal/models"
)

// Server serves the analytics API. It only reads from the core; all state
// mutation happens on the ingest path.
type Server struct {
	core      *core.Core
	limitCap  int
	mux       *http.ServeMux
	startedAt time.Time
}

// New constructs the HTTP server. limitCap bounds the per-request result
// limit a client may ask for.
func New(c *core.Core, limitCap int) *Server {
	s := &Server{
		core:      c,
		limitCap:  limitCap,
		mux:       http.NewServeMux(),
		startedAt: time.Now(),
	}
	s.routes()
	return s
}

// Router returns the handler for mounting.
func (s *Server) Router() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("GET /analytics/health", s.apiHealth)
	s.mux.HandleFunc("GET /analytics/activity", s.apiActivity)
	s.mux.HandleFunc("GET /analytics/activity/{symbol}", s.apiActivitySymbol)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) apiHealth(w http.ResponseWriter, r *http.Request) {
	trackers := make(map[string]int)
	snap := s.core.Snapshot(activity.QueryOptions{Limit: 1})
	for key, interval := range snap.Intervals {
		trackers[key] = interval.TotalSymbols
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"generatedAt":   snap.GeneratedAtMs,
		"uptimeSeconds": int64(time.Since(s.startedAt).Seconds()),
		"trackers":      trackers,
	})
}

func (s *Server) apiActivity(w http.ResponseWriter, r *http.Request) {
	opts := activity.QueryOptions{
		Timeframe:   r.URL.Query().Get("interval"),
		Limit:       s.parseLimit(r.URL.Query().Get("limit")),
		VolumeFloor: parseFloor(r.URL.Query().Get("volumeThreshold")),
	}
	snap := s.core.Snapshot(opts)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) apiActivitySymbol(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	intervals := make(map[string]models.MetricRow)
	for _, tf := range s.core.Timeframes() {
		if interval := r.URL.Query().Get("interval"); interval != "" && interval != tf.Key {
			continue
		}
		if row, ok := s.core.Metric(tf.Key, symbol); ok {
			intervals[tf.Key] = row
		}
	}
	if len(intervals) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Symbol not tracked"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":    symbol,
		"intervals": intervals,
	})
}

// parseLimit clamps the requested result count to the configured cap;
// anything unparseable means "no explicit limit".
func (s *Server) parseLimit(raw string) int {
	if raw == "" {
		return s.limitCap
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return s.limitCap
	}
	if v > s.limitCap {
		return s.limitCap
	}
	return v
}

func parseFloor(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}
