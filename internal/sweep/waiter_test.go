package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hearthside-audio/room.report/internal/catalog"
)

// attemptSessions serves an unready catalog until a given attempt number.
type attemptSessions struct {
	readyAttempt int
	attempts     int
}

func (f *attemptSessions) List(ctx context.Context) ([]catalog.Session, error) {
	f.attempts++
	return []catalog.Session{{ID: "sweep9"}}, nil
}

func (f *attemptSessions) Get(ctx context.Context, id string) (catalog.Session, error) {
	if f.attempts < f.readyAttempt {
		return catalog.Session{}, errors.New("not found")
	}
	return catalog.Session{ID: id, OverallScore: fptr(7.2), HasAnalysis: true}, nil
}

func (f *attemptSessions) SetIgnoreLastSweep(bool) {}

func TestWaiterReadyOnThirdAttempt(t *testing.T) {
	f := &attemptSessions{readyAttempt: 3}
	w := &Waiter{Sessions: f, Interval: time.Millisecond, Attempts: 20}

	session, ok := w.Wait(context.Background())
	if !ok {
		t.Fatal("Wait should succeed once the record lands")
	}
	if session.ID != "sweep9" || session.OverallScore == nil || *session.OverallScore != 7.2 {
		t.Errorf("session = %+v", session)
	}
	if f.attempts != 3 {
		t.Errorf("attempts = %d, want 3", f.attempts)
	}
}

func TestWaiterExhaustsCeiling(t *testing.T) {
	f := &attemptSessions{readyAttempt: 9999}
	w := &Waiter{Sessions: f, Interval: time.Millisecond, Attempts: 20}

	if _, ok := w.Wait(context.Background()); ok {
		t.Fatal("Wait should report failure after the attempt ceiling")
	}
	if f.attempts != 20 {
		t.Errorf("attempts = %d, want 20", f.attempts)
	}
}

func TestWaiterHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &attemptSessions{readyAttempt: 9999}
	w := &Waiter{Sessions: f, Interval: time.Minute, Attempts: 20}
	if _, ok := w.Wait(ctx); ok {
		t.Error("Wait should fail on a cancelled context")
	}
	if f.attempts != 0 {
		t.Errorf("attempts = %d, want 0 with pre-cancelled context", f.attempts)
	}
}
