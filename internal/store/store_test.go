package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Re-running migrations on an up-to-date schema is a no-op.
	require.NoError(t, s.Migrate())
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	score := 7.2
	metrics := json.RawMessage(`{"bandwidth":8.1,"balance":6.4}`)
	require.NoError(t, s.UpsertSession(SessionSummary{
		ID:           "Sweep12",
		Timestamp:    "2026-08-30T14:00:00Z",
		OverallScore: &score,
		HasAnalysis:  true,
		MetricsJSON:  metrics,
	}))

	sessions, err := s.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	got := sessions[0]
	assert.Equal(t, "Sweep12", got.ID)
	assert.True(t, got.HasAnalysis)
	require.NotNil(t, got.OverallScore)
	assert.InDelta(t, 7.2, *got.OverallScore, 1e-9)
	assert.JSONEq(t, string(metrics), string(got.MetricsJSON))
}

func TestUpsertSession_Refresh(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertSession(SessionSummary{ID: "Sweep3"}))

	score := 5.5
	require.NoError(t, s.UpsertSession(SessionSummary{
		ID:           "Sweep3",
		OverallScore: &score,
		HasAnalysis:  true,
	}))

	sessions, err := s.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1, "upsert must not duplicate rows")
	assert.True(t, sessions[0].HasAnalysis)
}

func TestNotes(t *testing.T) {
	s := openTestStore(t)

	note, err := s.GetNote("Sweep1")
	require.NoError(t, err)
	assert.Empty(t, note, "missing note reads as empty")

	require.NoError(t, s.SaveNote("Sweep1", "first try"))
	require.NoError(t, s.SaveNote("Sweep1", "after moving the sofa"))

	note, err = s.GetNote("Sweep1")
	require.NoError(t, err)
	assert.Equal(t, "after moving the sofa", note)
}

func TestRunLog(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.RecordRunStart(SweepRun{StartedAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := s.RecordRunStart(SweepRun{})
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	require.NoError(t, s.RecordRunFinish(id1, "completed", "Sweep complete"))

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, id2, runs[0].RunID)
	assert.Nil(t, runs[0].FinishedAt)

	assert.Equal(t, id1, runs[1].RunID)
	require.NotNil(t, runs[1].FinishedAt)
	assert.Equal(t, "completed", runs[1].Outcome)
	assert.Equal(t, "Sweep complete", runs[1].Message)
}

func TestRetryOnBusy(t *testing.T) {
	t.Run("success without retry", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("success after busy retries", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked (5) (SQLITE_BUSY)")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-busy error fails immediately", func(t *testing.T) {
		calls := 0
		testErr := errors.New("constraint violation")
		err := retryOnBusy(func() error {
			calls++
			return testErr
		})
		assert.Equal(t, testErr, err)
		assert.Equal(t, 1, calls)
	})
}
