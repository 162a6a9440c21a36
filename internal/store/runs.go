package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SweepRun is one entry in the sweep run log.
type SweepRun struct {
	RunID      string     `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Outcome    string     `json:"outcome,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// RecordRunStart inserts a new run row. If RunID is empty a UUID is
// generated; the (possibly generated) id is returned.
func (s *Store) RecordRunStart(run SweepRun) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO sweep_runs (run_id, started_at) VALUES (?, ?)`,
			run.RunID, run.StartedAt.UTC().Format(time.RFC3339),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}
	return run.RunID, nil
}

// RecordRunFinish marks a run terminal with its outcome and final status
// message.
func (s *Store) RecordRunFinish(runID, outcome, message string) error {
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			UPDATE sweep_runs SET finished_at = ?, outcome = ?, message = ?
			WHERE run_id = ?`,
			time.Now().UTC().Format(time.RFC3339), outcome, message, runID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]SweepRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT run_id, started_at, finished_at, outcome, message
		FROM sweep_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []SweepRun
	for rows.Next() {
		var run SweepRun
		var started string
		var finished, outcome, message sql.NullString

		if err := rows.Scan(&run.RunID, &started, &finished, &outcome, &message); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, started); err == nil {
			run.StartedAt = t
		}
		if finished.Valid {
			if t, err := time.Parse(time.RFC3339, finished.String); err == nil {
				run.FinishedAt = &t
			}
		}
		run.Outcome = outcome.String
		run.Message = message.String
		out = append(out, run)
	}
	return out, rows.Err()
}
