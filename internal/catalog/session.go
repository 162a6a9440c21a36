// Package catalog maintains the session history: it normalizes raw engine
// records, owns the id ordering rule, and decides which sessions are
// eligible for history browsing and which one counts as "latest".
package catalog

import (
	"encoding/json"
	"math"
	"time"

	"github.com/hearthside-audio/room.report/internal/acoustics"
	"github.com/hearthside-audio/room.report/internal/backend"
)

// Metrics holds the per-category scores of an analysed session. A nil
// entry means the engine did not report that category.
type Metrics struct {
	PeaksDips   *float64 `json:"peaks_dips,omitempty"`
	Reflections *float64 `json:"reflections,omitempty"`
	Bandwidth   *float64 `json:"bandwidth,omitempty"`
	Balance     *float64 `json:"balance,omitempty"`
	Smoothness  *float64 `json:"smoothness,omitempty"`
	Clarity     *float64 `json:"clarity,omitempty"`
}

// Session is the controller's immutable view of one measurement session.
// Numeric fields are never mutated after normalization; only Note may be
// overlaid with a locally drafted value.
type Session struct {
	ID           string               `json:"id"`
	Timestamp    *time.Time           `json:"timestamp,omitempty"`
	OverallScore *float64             `json:"overall_score,omitempty"`
	Metrics      Metrics              `json:"metrics"`
	Room         *acoustics.Geometry  `json:"room,omitempty"`
	RoomContext  *acoustics.RoomModel `json:"room_context,omitempty"`
	Note         string               `json:"note,omitempty"`
	HasAnalysis  bool                 `json:"has_analysis"`

	// scored records whether the raw record carried a scores or analysis
	// sub-object, which makes a session history-eligible even before its
	// overall score lands.
	scored bool
}

// Normalize maps a raw engine record into the Session shape. When the
// record carries room geometry, the derived acoustic context is attached.
func Normalize(record backend.SessionRecord) Session {
	s := Session{
		ID:          record.ID,
		Note:        record.Note,
		Room:        record.Room,
		HasAnalysis: record.HasAnalysis,
		scored:      len(record.Scores) > 0 || len(record.Analysis) > 0,
	}

	if t, ok := parseTimestamp(record.Timestamp); ok {
		s.Timestamp = &t
	}

	s.OverallScore = finiteOrNil(record.Overall)
	if s.OverallScore == nil {
		s.OverallScore = finiteOrNil(record.Scores["overall"])
	}

	s.Metrics = Metrics{
		PeaksDips:   metricValue(record, "peaks_dips"),
		Reflections: metricValue(record, "reflections"),
		Bandwidth:   metricValue(record, "bandwidth"),
		Balance:     metricValue(record, "balance"),
		Smoothness:  metricValue(record, "smoothness"),
		Clarity:     metricValue(record, "clarity"),
	}

	if record.Room != nil {
		model := acoustics.AnalyseRoom(*record.Room)
		s.RoomContext = &model
	}

	return s
}

// HistoryEligible reports whether a session belongs in history browsing.
// This is deliberately looser than Ready: a record with scores but no
// finished overall score still shows up in history.
func (s Session) HistoryEligible() bool {
	if s.HasAnalysis || s.scored {
		return true
	}
	return s.OverallScore != nil
}

// Ready reports whether a session's analysis is complete enough to present
// as a sweep result: the analysis flag is set and the overall score is a
// finite positive number.
func (s Session) Ready() bool {
	return s.HasAnalysis && s.OverallScore != nil && *s.OverallScore > 0
}

// MetricsJSON serialises the metric scores for archival.
func (s Session) MetricsJSON() json.RawMessage {
	data, err := json.Marshal(s.Metrics)
	if err != nil {
		return nil
	}
	return data
}

// metricValue prefers the full record's metrics block, falling back to the
// summary scores block older engine builds send.
func metricValue(record backend.SessionRecord, key string) *float64 {
	if v := finiteOrNil(record.Metrics[key]); v != nil {
		return v
	}
	return finiteOrNil(record.Scores[key])
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	out := *v
	return &out
}

// parseTimestamp accepts RFC3339 or the engine's bare ISO local form.
func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
