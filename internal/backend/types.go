package backend

import (
	"encoding/json"

	"github.com/hearthside-audio/room.report/internal/acoustics"
)

// StartParams carries the options for a measurement run.
type StartParams struct {
	// Speaker selects a speaker correction profile by name, if any.
	Speaker string `json:"speaker,omitempty"`
}

// ProgressReport is the engine's pollable sweep state.
type ProgressReport struct {
	Running  bool    `json:"running"`
	Progress float64 `json:"progress"` // 0..100
	Message  string  `json:"message"`

	// Status is an explicit terminal classification ("ok", "error",
	// "cancelled"). Older engine builds omit it, in which case the
	// controller falls back to scanning Message.
	Status string `json:"status,omitempty"`
}

// SessionRecord is the engine's raw session shape, summary or full. The
// controller treats analysis content as opaque; only the fields below are
// interpreted.
type SessionRecord struct {
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Overall     *float64            `json:"overall_score,omitempty"`
	Scores      map[string]*float64 `json:"scores,omitempty"`
	Metrics     map[string]*float64 `json:"metrics,omitempty"`
	Analysis    json.RawMessage     `json:"analysis,omitempty"`
	Room        *acoustics.Geometry `json:"room,omitempty"`
	Note        string              `json:"note,omitempty"`
	HasAnalysis bool                `json:"has_analysis"`
}
