package main

import (
	"net/http"

	"github.com/hearthside-audio/room.report/internal/api"
)

// newHandler assembles the full HTTP surface: the JSON API plus a health
// probe, wrapped in request logging.
func newHandler(s *api.Server) http.Handler {
	mux := s.ServeMux()
	mux.HandleFunc("/healthz", healthzHandler)
	return api.LoggingMiddleware(mux)
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Write([]byte("ok"))
}
