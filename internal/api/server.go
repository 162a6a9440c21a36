// Package api exposes the controller to the browser frontend as a small
// JSON API over net/http.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/hearthside-audio/room.report/internal/backend"
	"github.com/hearthside-audio/room.report/internal/catalog"
	"github.com/hearthside-audio/room.report/internal/store"
	"github.com/hearthside-audio/room.report/internal/sweep"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// SweepController is the slice of the sweep runner the API consumes.
type SweepController interface {
	Start(ctx context.Context, params backend.StartParams) error
	Cancel() error
	Status() sweep.JobState
	LogsSince(cursor int) ([]string, int)
}

// SessionCatalog is the slice of the session catalog the API consumes.
type SessionCatalog interface {
	History(ctx context.Context, n int) ([]catalog.Slot, error)
	Get(ctx context.Context, id string) (catalog.Session, error)
	Latest(ctx context.Context) (*catalog.Session, error)
	SaveNote(ctx context.Context, id, text string) error
}

// RunHistory reads the persisted sweep run log. May be nil.
type RunHistory interface {
	ListRuns(limit int) ([]store.SweepRun, error)
}

type Server struct {
	sweeps   SweepController
	sessions SessionCatalog
	runs     RunHistory

	// baseCtx bounds started sweep jobs. Jobs must outlive the HTTP
	// request that triggered them, so the request context is never used.
	baseCtx      context.Context
	historySlots int
}

func NewServer(baseCtx context.Context, sweeps SweepController, sessions SessionCatalog, runs RunHistory, historySlots int) *Server {
	if historySlots <= 0 {
		historySlots = 4
	}
	return &Server{
		sweeps:       sweeps,
		sessions:     sessions,
		runs:         runs,
		baseCtx:      baseCtx,
		historySlots: historySlots,
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
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sweep/start", s.startSweep)
	mux.HandleFunc("/api/sweep/cancel", s.cancelSweep)
	mux.HandleFunc("/api/sweep/status", s.sweepStatus)
	mux.HandleFunc("/api/sweep/log", s.sweepLog)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/sessions/", s.sessionSubtree)
	mux.HandleFunc("/api/latest", s.latestSession)
	mux.HandleFunc("/api/room/insights", s.roomInsights)
	mux.HandleFunc("/api/runs", s.listRuns)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
