package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hearthside-audio/room.report/internal/acoustics"
	"github.com/hearthside-audio/room.report/internal/backend"
	"github.com/hearthside-audio/room.report/internal/catalog"
	"github.com/hearthside-audio/room.report/internal/score"
	"github.com/hearthside-audio/room.report/internal/sweep"
)

// maxBodyBytes caps request bodies; every payload here is small JSON.
const maxBodyBytes = 64 * 1024

type startSweepRequest struct {
	Speaker string `json:"speaker,omitempty"`
}

func (s *Server) startSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req startSweepRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	err = s.sweeps.Start(s.baseCtx, backend.StartParams{Speaker: req.Speaker})
	switch {
	case errors.Is(err, sweep.ErrAlreadyRunning):
		s.writeJSONError(w, http.StatusConflict, "sweep already in progress")
		return
	case err != nil:
		s.writeJSONError(w, http.StatusBadGateway, "failed to start sweep: "+err.Error())
		return
	}
	s.writeJSON(w, s.sweeps.Status())
}

func (s *Server) cancelSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	err := s.sweeps.Cancel()
	switch {
	case errors.Is(err, sweep.ErrNotRunning):
		s.writeJSONError(w, http.StatusConflict, "no sweep in progress")
		return
	case err != nil:
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, s.sweeps.Status())
}

func (s *Server) sweepStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, s.sweeps.Status())
}

type sweepLogResponse struct {
	Lines      []string `json:"lines"`
	NextCursor int      `json:"next_cursor"`
}

func (s *Server) sweepLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cursor := 0
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSONError(w, http.StatusBadRequest, "cursor must be a non-negative integer")
			return
		}
		cursor = n
	}

	lines, next := s.sweeps.LogsSince(cursor)
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, sweepLogResponse{Lines: lines, NextCursor: next})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	slots, err := s.sessions.History(r.Context(), s.historySlots)
	if err != nil {
		s.writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, slots)
}

// sessionSubtree routes /api/sessions/{id} and /api/sessions/{id}/note.
func (s *Server) sessionSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if rest == "" {
		s.writeJSONError(w, http.StatusNotFound, "session id required")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/note"); ok && id != "" && !strings.Contains(id, "/") {
		s.saveNote(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		s.writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	s.getSession(w, r, rest)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, presentSession(session))
}

type saveNoteRequest struct {
	Note string `json:"note"`
}

func (s *Server) saveNote(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req saveNoteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.sessions.SaveNote(r.Context(), id, req.Note); err != nil {
		s.writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) latestSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	latest, err := s.sessions.Latest(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	if latest == nil {
		s.writeJSONError(w, http.StatusNotFound, "no analysed session available")
		return
	}
	s.writeJSON(w, presentSession(*latest))
}

func (s *Server) roomInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var geom acoustics.Geometry
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&geom); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid geometry payload")
		return
	}
	s.writeJSON(w, acoustics.AnalyseRoom(geom))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.runs == nil {
		s.writeJSONError(w, http.StatusNotFound, "run history not available")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, runs)
}

// sessionView is the wire shape for a full session: the catalog session
// plus the derived gauge classification for its overall score.
type sessionView struct {
	catalog.Session
	Bucket string           `json:"bucket,omitempty"`
	Gauge  *score.GaugeTier `json:"gauge,omitempty"`
}

func presentSession(s catalog.Session) sessionView {
	view := sessionView{Session: s}
	if s.OverallScore != nil {
		view.Bucket = score.Bucket(*s.OverallScore)
		tier := score.Gauge(*s.OverallScore)
		view.Gauge = &tier
	}
	return view
}
