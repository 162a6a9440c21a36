package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// SessionSummary is the locally cached view of an engine session.
type SessionSummary struct {
	ID           string          `json:"id"`
	Timestamp    string          `json:"timestamp,omitempty"`
	OverallScore *float64        `json:"overall_score,omitempty"`
	HasAnalysis  bool            `json:"has_analysis"`
	MetricsJSON  json.RawMessage `json:"metrics,omitempty"`
}

// UpsertSession inserts or refreshes a cached session summary.
func (s *Store) UpsertSession(summary SessionSummary) error {
	var metrics interface{}
	if len(summary.MetricsJSON) > 0 {
		metrics = string(summary.MetricsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO sessions (session_id, timestamp, overall_score, has_analysis, metrics_json, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(session_id) DO UPDATE SET
				timestamp = excluded.timestamp,
				overall_score = excluded.overall_score,
				has_analysis = excluded.has_analysis,
				metrics_json = excluded.metrics_json,
				updated_at = CURRENT_TIMESTAMP`,
			summary.ID, summary.Timestamp, summary.OverallScore,
			boolToInt(summary.HasAnalysis), metrics,
		)
		return err
	})
}

// ListSessions returns all cached session summaries. Ordering is left to
// the catalog, which owns the id ordering rule.
func (s *Store) ListSessions() ([]SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT session_id, timestamp, overall_score, has_analysis, metrics_json
		FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var timestamp, metrics sql.NullString
		var overall sql.NullFloat64
		var hasAnalysis int

		if err := rows.Scan(&sum.ID, &timestamp, &overall, &hasAnalysis, &metrics); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.Timestamp = timestamp.String
		if overall.Valid {
			v := overall.Float64
			sum.OverallScore = &v
		}
		sum.HasAnalysis = hasAnalysis != 0
		if metrics.Valid {
			sum.MetricsJSON = json.RawMessage(metrics.String)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// SaveNote stores the local draft note for a session.
func (s *Store) SaveNote(sessionID, note string) error {
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO notes (session_id, note, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(session_id) DO UPDATE SET
				note = excluded.note,
				updated_at = CURRENT_TIMESTAMP`,
			sessionID, note,
		)
		return err
	})
}

// GetNote returns the local draft note for a session, or "" when none
// exists.
func (s *Store) GetNote(sessionID string) (string, error) {
	var note string
	err := s.db.QueryRow(`SELECT note FROM notes WHERE session_id = ?`, sessionID).Scan(&note)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query note: %w", err)
	}
	return note, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
