package catalog

import (
	"math"
	"strings"
	"testing"
)

func TestTrailingNumber(t *testing.T) {
	cases := []struct {
		id   string
		want int64
	}{
		{"upload10", 10},
		{"upload3", 3},
		{"sweep_2", 2},
		{"sweep_7b", 7},
		{"42", 42},
		{"session", -1},
		{"", -1},
		{"a0", 0},
		{strings.Repeat("9", 40), math.MaxInt64},
	}
	for _, tc := range cases {
		if got := TrailingNumber(tc.id); got != tc.want {
			t.Errorf("TrailingNumber(%q) = %d, want %d", tc.id, got, tc.want)
		}
	}
}

func TestSortSessionsStableTieBreak(t *testing.T) {
	sessions := []Session{
		{ID: "alpha"},
		{ID: "beta"},
		{ID: "run5"},
	}
	SortSessions(sessions)
	if sessions[0].ID != "run5" {
		t.Fatalf("sessions[0] = %q, want run5", sessions[0].ID)
	}
	// Both unnumbered ids extract -1; their relative order must hold.
	if sessions[1].ID != "alpha" || sessions[2].ID != "beta" {
		t.Errorf("tie-break not stable: %q, %q", sessions[1].ID, sessions[2].ID)
	}
}
