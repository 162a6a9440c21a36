package sweep

import "github.com/hearthside-audio/room.report/internal/catalog"

// Events receives the orchestrator's observable side effects. Presentation
// code subscribes here; the runner itself holds no UI handles. Callbacks
// are invoked from the runner's own goroutine and must not block.
type Events interface {
	// StatusChanged fires when the engine's progress message changes.
	StatusChanged(message string)
	// LogAppended delivers fresh engine log lines, in order, exactly once.
	LogAppended(lines []string)
	// Terminal fires once per sweep when it leaves the running state.
	Terminal(outcome Outcome)
	// AnalysisReady fires after a completed sweep once the scored session
	// record has landed.
	AnalysisReady(session catalog.Session)
	// AnalysisTimeout fires when a completed sweep's scored record never
	// appeared within the attempt ceiling. The sweep still counts as
	// completed; callers should fall back to the catalog's latest view.
	AnalysisTimeout()
}

// NopEvents discards every event.
type NopEvents struct{}

func (NopEvents) StatusChanged(string)          {}
func (NopEvents) LogAppended([]string)          {}
func (NopEvents) Terminal(Outcome)              {}
func (NopEvents) AnalysisReady(catalog.Session) {}
func (NopEvents) AnalysisTimeout()              {}
