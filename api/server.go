// Package api exposes the camera's HTTP surface: detector statistics and
// configuration, persisted detections, and a couple of debug chart pages.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/wildlife.report/internal/eventdb"
	"github.com/banshee-data/wildlife.report/internal/httputil"
	"github.com/banshee-data/wildlife.report/internal/monitoring"
	"github.com/banshee-data/wildlife.report/internal/percept"
	"github.com/banshee-data/wildlife.report/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	detector   *percept.Detector
	detections *eventdb.DetectionStore
	stats      *eventdb.StatsStore
}

func NewServer(detector *percept.Detector, detections *eventdb.DetectionStore, stats *eventdb.StatsStore) *Server {
	return &Server{
		detector:   detector,
		detections: detections,
		stats:      stats,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/healthz", s.healthz)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/detections", s.listDetections)
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/debug/charts/detections", s.handleDetectionsChart)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Wildlife Camera Perception Server"))
}

// healthz reports service liveness and build identity.
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"status":     "ok",
		"service":    "wildlife-camera",
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// showStats returns the detector's live running counters.
func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.detector.Stats())
}

// listDetections returns recent persisted detections, newest first.
// Query params:
//   - limit (optional; default 100, max 1000)
//   - since (optional; RFC 3339, switches to time-windowed oldest-first)
func (s *Server) listDetections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			httputil.BadRequest(w, "invalid 'since' parameter, want RFC 3339")
			return
		}
		out, err := s.detections.ListSince(since)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve detections: %v", err))
			return
		}
		httputil.WriteJSONOK(w, out)
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 1000 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	out, err := s.detections.ListRecent(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve detections: %v", err))
		return
	}
	httputil.WriteJSONOK(w, out)
}

// showSummary returns detection totals by kind plus the latest persisted
// statistics snapshot.
func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	counts, err := s.detections.CountByKind()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to count detections: %v", err))
		return
	}
	snapshot, err := s.stats.Latest()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load stats snapshot: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"counts_by_kind":  counts,
		"latest_snapshot": snapshot,
	})
}

// handleConfig returns the active detector configuration on GET and swaps
// it on POST. The posted configuration is normalized, never rejected; the
// response carries the values actually in effect.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.detector.Config())

	case http.MethodPost:
		var cfg percept.DetectorConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid config body: %v", err))
			return
		}
		s.detector.Reconfigure(cfg)
		httputil.WriteJSONOK(w, s.detector.Config())

	default:
		httputil.MethodNotAllowed(w)
	}
}
