package catalog

import (
	"math"
	"testing"

	"github.com/hearthside-audio/room.report/internal/acoustics"
	"github.com/hearthside-audio/room.report/internal/backend"
)

func fptr(v float64) *float64 { return &v }

func TestNormalizeOverallFallsBackToScores(t *testing.T) {
	s := Normalize(backend.SessionRecord{
		ID:     "sweep1",
		Scores: map[string]*float64{"overall": fptr(6.8)},
	})
	if s.OverallScore == nil || *s.OverallScore != 6.8 {
		t.Errorf("OverallScore = %v, want 6.8", s.OverallScore)
	}
	if !s.HistoryEligible() {
		t.Error("scored session should be history-eligible")
	}
}

func TestNormalizePrefersExplicitOverall(t *testing.T) {
	s := Normalize(backend.SessionRecord{
		ID:      "sweep1",
		Overall: fptr(7.5),
		Scores:  map[string]*float64{"overall": fptr(2.0)},
	})
	if s.OverallScore == nil || *s.OverallScore != 7.5 {
		t.Errorf("OverallScore = %v, want 7.5", s.OverallScore)
	}
}

func TestNormalizeDropsNonFiniteScores(t *testing.T) {
	s := Normalize(backend.SessionRecord{
		ID:      "sweep1",
		Overall: fptr(math.NaN()),
		Metrics: map[string]*float64{"clarity": fptr(math.Inf(1))},
	})
	if s.OverallScore != nil {
		t.Errorf("OverallScore = %v, want nil for NaN", s.OverallScore)
	}
	if s.Metrics.Clarity != nil {
		t.Errorf("Clarity = %v, want nil for +Inf", s.Metrics.Clarity)
	}
}

func TestNormalizeMetricFallback(t *testing.T) {
	s := Normalize(backend.SessionRecord{
		ID:      "sweep1",
		Metrics: map[string]*float64{"clarity": fptr(8.1)},
		Scores:  map[string]*float64{"clarity": fptr(3.0), "balance": fptr(5.5)},
	})
	if s.Metrics.Clarity == nil || *s.Metrics.Clarity != 8.1 {
		t.Errorf("Clarity = %v, want metrics block value 8.1", s.Metrics.Clarity)
	}
	if s.Metrics.Balance == nil || *s.Metrics.Balance != 5.5 {
		t.Errorf("Balance = %v, want scores fallback 5.5", s.Metrics.Balance)
	}
}

func TestNormalizeAttachesRoomContext(t *testing.T) {
	room := &acoustics.Geometry{LengthM: 5, WidthM: 4, HeightM: 2.5}
	s := Normalize(backend.SessionRecord{ID: "sweep1", Room: room})
	if s.RoomContext == nil {
		t.Fatal("RoomContext not attached for record with geometry")
	}
	if s.RoomContext.Geometry.Volume != 50 {
		t.Errorf("Volume = %v, want 50", s.RoomContext.Geometry.Volume)
	}
}

func TestParseTimestampForms(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"2026-08-31T10:30:00Z", true},
		{"2026-08-31T10:30:00.123456", true},
		{"2026-08-31T10:30:00", true},
		{"yesterday", false},
		{"", false},
	}
	for _, tc := range cases {
		if _, ok := parseTimestamp(tc.raw); ok != tc.ok {
			t.Errorf("parseTimestamp(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
		}
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		name string
		s    Session
		want bool
	}{
		{"analysed with score", Session{HasAnalysis: true, OverallScore: fptr(7.2)}, true},
		{"analysed, zero score", Session{HasAnalysis: true, OverallScore: fptr(0)}, false},
		{"analysed, no score", Session{HasAnalysis: true}, false},
		{"score without analysis", Session{OverallScore: fptr(7.2)}, false},
	}
	for _, tc := range cases {
		if got := tc.s.Ready(); got != tc.want {
			t.Errorf("%s: Ready() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
