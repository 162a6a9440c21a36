// Package sweep owns the measurement job state machine: at most one sweep
// runs at a time, driven by a progress/log polling loop and, after a
// successful capture, an analysis-readiness polling loop. The two loops
// never overlap in time.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthside-audio/room.report/internal/backend"
	"github.com/hearthside-audio/room.report/internal/monitoring"
	"github.com/hearthside-audio/room.report/internal/store"
)

// State is the job state machine position.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Outcome is a terminal resolution of one sweep.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

var (
	ErrAlreadyRunning = errors.New("sweep already in progress")
	ErrNotRunning     = errors.New("no sweep in progress")
)

// Engine is the slice of the measurement engine API the runner consumes.
type Engine interface {
	StartSweep(ctx context.Context, params backend.StartParams) error
	Progress(ctx context.Context) (backend.ProgressReport, error)
	Logs(ctx context.Context) ([]string, error)
	CancelSweep(ctx context.Context) error
}

// RunRecorder persists the sweep run log. Satisfied by *store.Store; nil
// disables recording.
type RunRecorder interface {
	RecordRunStart(run store.SweepRun) (string, error)
	RecordRunFinish(runID, outcome, message string) error
}

// JobState is a snapshot of the current (or most recent) sweep job.
type JobState struct {
	State      State      `json:"state"`
	JobID      string     `json:"job_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Progress   float64    `json:"progress"` // 0..100
	Message    string     `json:"message,omitempty"`
	Outcome    Outcome    `json:"outcome,omitempty"`
	LogLines   int        `json:"log_lines"`
}

// Options tunes the runner's polling behavior. Zero values take the
// defaults the appliance ships with.
type Options struct {
	ProgressTick     time.Duration // default 800ms
	AnalysisTick     time.Duration // default 1s
	AnalysisAttempts int           // default 20

	// ProgressFailureLimit bounds consecutive progress poll failures
	// before the sweep is resolved Failed. Default 5.
	ProgressFailureLimit int

	RunLog RunRecorder // optional
}

// Runner orchestrates sweep jobs against the measurement engine.
type Runner struct {
	engine   Engine
	sessions Sessions
	events   Events
	runLog   RunRecorder

	progressTick         time.Duration
	analysisTick         time.Duration
	analysisAttempts     int
	progressFailureLimit int

	mu     sync.RWMutex
	state  JobState
	log    []string
	cursor LogCursor
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates an idle runner. events may be nil.
func NewRunner(engine Engine, sessions Sessions, events Events, opts Options) *Runner {
	if events == nil {
		events = NopEvents{}
	}
	if opts.ProgressTick <= 0 {
		opts.ProgressTick = 800 * time.Millisecond
	}
	if opts.AnalysisTick <= 0 {
		opts.AnalysisTick = time.Second
	}
	if opts.AnalysisAttempts <= 0 {
		opts.AnalysisAttempts = 20
	}
	if opts.ProgressFailureLimit <= 0 {
		opts.ProgressFailureLimit = 5
	}
	return &Runner{
		engine:               engine,
		sessions:             sessions,
		events:               events,
		runLog:               opts.RunLog,
		progressTick:         opts.ProgressTick,
		analysisTick:         opts.AnalysisTick,
		analysisAttempts:     opts.AnalysisAttempts,
		progressFailureLimit: opts.ProgressFailureLimit,
		state:                JobState{State: StateIdle},
	}
}

// Start begins a new sweep. It fails locally with ErrAlreadyRunning while
// a job is active; no engine call is made in that case. ctx bounds the
// whole job, not just the start call.
func (r *Runner) Start(ctx context.Context, params backend.StartParams) error {
	r.mu.Lock()
	if r.state.State == StateRunning {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	cancelPrev := r.cancel
	prevDone := r.done
	r.mu.Unlock()

	// A completed sweep's analysis wait may still be polling. Abandon it
	// and wait for its goroutine to return, so the old analysis loop and
	// the new progress loop never overlap in time.
	if cancelPrev != nil {
		cancelPrev()
	}
	if prevDone != nil {
		<-prevDone
	}

	r.mu.Lock()
	if r.state.State == StateRunning {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	now := time.Now()
	jobID := uuid.New().String()
	r.state = JobState{State: StateRunning, JobID: jobID, StartedAt: &now}
	r.log = nil
	r.cursor.Reset()

	jobCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = nil
	r.mu.Unlock()

	if err := r.engine.StartSweep(jobCtx, params); err != nil {
		cancel()
		r.mu.Lock()
		r.state = JobState{State: StateIdle}
		r.cancel = nil
		r.mu.Unlock()
		return fmt.Errorf("start sweep: %w", err)
	}

	// A fresh sweep may surface as latest once analysed; clear any
	// suppression a previously cancelled job left behind.
	r.sessions.SetIgnoreLastSweep(false)

	if r.runLog != nil {
		if _, err := r.runLog.RecordRunStart(store.SweepRun{RunID: jobID, StartedAt: now}); err != nil {
			monitoring.Logf("sweep %s: run log start: %v", jobID, err)
		}
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		// Releases the job context once both loops have fully stopped.
		defer cancel()
		r.poll(jobCtx)
	}()
	return nil
}

// Cancel requests cancellation of the active sweep. The engine call is
// best-effort; the runner only guarantees it stops polling. The
// just-cancelled sweep's partial record is suppressed from the catalog's
// latest view.
func (r *Runner) Cancel() error {
	r.mu.Lock()
	if r.state.State != StateRunning {
		r.mu.Unlock()
		return ErrNotRunning
	}
	cancel := r.cancel
	r.mu.Unlock()

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := r.engine.CancelSweep(ctx); err != nil {
		monitoring.Logf("cancel sweep: %v", err)
	}

	r.sessions.SetIgnoreLastSweep(true)
	if cancel != nil {
		cancel()
	}
	return nil
}

// Status returns a copy of the current job state.
func (r *Runner) Status() JobState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state := r.state
	state.LogLines = len(r.log)
	return state
}

// LogsSince returns the accumulated log lines beyond cursor, plus the new
// cursor value. Out-of-range cursors are clamped.
func (r *Runner) LogsSince(cursor int) ([]string, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(r.log) {
		cursor = len(r.log)
	}
	lines := make([]string, len(r.log)-cursor)
	copy(lines, r.log[cursor:])
	return lines, len(r.log)
}

// poll drives the progress/log tick loop and, after a completed sweep,
// the analysis wait. Both run on this one goroutine so the two loops are
// mutually exclusive in time.
func (r *Runner) poll(ctx context.Context) {
	ticker := time.NewTicker(r.progressTick)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			r.finish(OutcomeCancelled, "sweep cancelled")
			return
		case <-ticker.C:
		}

		report, err := r.engine.Progress(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.finish(OutcomeCancelled, "sweep cancelled")
				return
			}
			// Tolerate transient transport failures, but a persistently
			// unreachable engine must not leave the job running forever.
			failures++
			monitoring.Logf("progress poll (%d/%d): %v", failures, r.progressFailureLimit, err)
			if failures >= r.progressFailureLimit {
				r.finish(OutcomeFailed, fmt.Sprintf("engine unreachable: %v", err))
				return
			}
			continue
		}
		failures = 0

		r.observe(report)
		r.pollLogs(ctx)

		if report.Running {
			continue
		}

		outcome := classifyOutcome(report)
		r.finish(outcome, report.Message)
		if outcome != OutcomeCompleted {
			return
		}

		// The engine scores the capture out of process after reporting
		// running=false; wait for the record to land before presenting.
		w := &Waiter{Sessions: r.sessions, Interval: r.analysisTick, Attempts: r.analysisAttempts}
		session, ok := w.Wait(ctx)
		switch {
		case ctx.Err() != nil:
			// The wait was abandoned (a new sweep superseded it); any
			// in-flight result is discarded without an event.
		case ok:
			r.events.AnalysisReady(session)
		default:
			r.events.AnalysisTimeout()
		}
		return
	}
}

// observe folds one progress report into the job state and emits a
// status-changed event when the message moved.
func (r *Runner) observe(report backend.ProgressReport) {
	r.mu.Lock()
	changed := report.Message != r.state.Message
	r.state.Progress = report.Progress
	r.state.Message = report.Message
	r.mu.Unlock()

	if changed {
		r.events.StatusChanged(report.Message)
	}
}

// pollLogs fetches the full engine log and emits only the suffix beyond
// the cursor. A fetch or decode failure skips the tick; the cursor stays
// put and the same suffix is retried next tick.
func (r *Runner) pollLogs(ctx context.Context) {
	lines, err := r.engine.Logs(ctx)
	if err != nil {
		monitoring.Logf("log poll: %v", err)
		return
	}

	r.mu.Lock()
	fresh := r.cursor.Apply(lines)
	if len(fresh) > 0 {
		r.log = append(r.log, fresh...)
	}
	r.mu.Unlock()

	if len(fresh) > 0 {
		r.events.LogAppended(fresh)
	}
}

// finish resolves the active job exactly once. Later calls for the same
// job are no-ops, which absorbs the race between a cancel request and the
// engine reporting its own termination.
func (r *Runner) finish(outcome Outcome, message string) {
	r.mu.Lock()
	if r.state.State != StateRunning {
		r.mu.Unlock()
		return
	}
	now := time.Now()
	r.state.State = stateFor(outcome)
	r.state.Outcome = outcome
	r.state.FinishedAt = &now
	if message != "" {
		r.state.Message = message
	}
	jobID := r.state.JobID
	// r.cancel is kept: a Completed job's analysis wait still runs on it,
	// and the next Start uses it to abandon that wait. The poll goroutine
	// releases the context itself when it returns.
	r.mu.Unlock()

	r.events.Terminal(outcome)

	if r.runLog != nil {
		if err := r.runLog.RecordRunFinish(jobID, string(outcome), message); err != nil {
			monitoring.Logf("sweep %s: run log finish: %v", jobID, err)
		}
	}
}

func stateFor(outcome Outcome) State {
	switch outcome {
	case OutcomeFailed:
		return StateFailed
	case OutcomeCancelled:
		return StateCancelled
	default:
		return StateCompleted
	}
}

// classifyOutcome maps the engine's final progress report to an outcome.
// The explicit status field wins when present; older engine builds omit
// it, leaving only a scan of the human-readable message.
func classifyOutcome(report backend.ProgressReport) Outcome {
	switch strings.ToLower(report.Status) {
	case "error", "failed":
		return OutcomeFailed
	case "cancelled", "canceled":
		return OutcomeCancelled
	case "ok", "complete", "completed":
		return OutcomeCompleted
	}

	if strings.Contains(strings.ToLower(report.Message), "error") {
		return OutcomeFailed
	}
	return OutcomeCompleted
}
