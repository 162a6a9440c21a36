package sweep

import (
	"context"
	"time"

	"github.com/hearthside-audio/room.report/internal/catalog"
	"github.com/hearthside-audio/room.report/internal/monitoring"
)

// Sessions is the slice of the catalog the sweep package consumes.
type Sessions interface {
	List(ctx context.Context) ([]catalog.Session, error)
	Get(ctx context.Context, id string) (catalog.Session, error)
	SetIgnoreLastSweep(ignore bool)
}

// Waiter polls the catalog after a completed sweep until the engine's
// out-of-process scoring step has persisted a fully scored record. The
// engine reports running=false as soon as the raw capture ends, so the
// scored record usually lands a few seconds later.
type Waiter struct {
	Sessions Sessions
	Interval time.Duration
	Attempts int
}

// Wait polls until the newest session satisfies readiness, the attempt
// ceiling is hit, or ctx is cancelled. The ceiling is an attempt count,
// not a wall-clock deadline: an attempt already in flight when ctx fires
// is allowed to resolve and its result is discarded.
func (w *Waiter) Wait(ctx context.Context) (catalog.Session, bool) {
	timer := time.NewTimer(w.Interval)
	defer timer.Stop()

	for attempt := 1; attempt <= w.Attempts; attempt++ {
		select {
		case <-ctx.Done():
			return catalog.Session{}, false
		case <-timer.C:
		}
		timer.Reset(w.Interval)

		session, ok := w.probe(ctx, attempt)
		if ok {
			return session, true
		}
	}
	return catalog.Session{}, false
}

// probe performs one readiness check: newest session by the id ordering
// rule, then its full record.
func (w *Waiter) probe(ctx context.Context, attempt int) (catalog.Session, bool) {
	sessions, err := w.Sessions.List(ctx)
	if err != nil {
		monitoring.Logf("analysis wait %d/%d: list failed: %v", attempt, w.Attempts, err)
		return catalog.Session{}, false
	}
	if len(sessions) == 0 {
		return catalog.Session{}, false
	}

	full, err := w.Sessions.Get(ctx, sessions[0].ID)
	if err != nil {
		monitoring.Logf("analysis wait %d/%d: fetch %s failed: %v", attempt, w.Attempts, sessions[0].ID, err)
		return catalog.Session{}, false
	}
	if !full.Ready() {
		return catalog.Session{}, false
	}
	return full, true
}
