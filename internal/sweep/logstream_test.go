package sweep

import "testing"

func TestLogCursorPrefixExtensions(t *testing.T) {
	snapshots := [][]string{
		{},
		{"a"},
		{"a"},
		{"a", "b", "c"},
		{"a", "b", "c", "d"},
	}

	var c LogCursor
	var emitted []string
	for _, snap := range snapshots {
		emitted = append(emitted, c.Apply(snap)...)
	}

	want := []string{"a", "b", "c", "d"}
	if len(emitted) != len(want) {
		t.Fatalf("emitted %v, want %v", emitted, want)
	}
	for i := range want {
		if emitted[i] != want[i] {
			t.Fatalf("emitted %v, want %v", emitted, want)
		}
	}
	if c.Pos() != 4 {
		t.Errorf("Pos = %d, want 4", c.Pos())
	}
}

func TestLogCursorSkipsShortSnapshot(t *testing.T) {
	var c LogCursor
	c.Apply([]string{"a", "b", "c"})

	// A truncated snapshot contradicts the append-only contract; skip it
	// without moving so the next full snapshot replays nothing twice.
	if fresh := c.Apply([]string{"a"}); fresh != nil {
		t.Errorf("short snapshot emitted %v", fresh)
	}
	if c.Pos() != 3 {
		t.Errorf("Pos = %d, want 3 after skipped snapshot", c.Pos())
	}

	fresh := c.Apply([]string{"a", "b", "c", "d"})
	if len(fresh) != 1 || fresh[0] != "d" {
		t.Errorf("recovery emitted %v, want [d]", fresh)
	}
}

func TestLogCursorReset(t *testing.T) {
	var c LogCursor
	c.Apply([]string{"a", "b"})
	c.Reset()
	if c.Pos() != 0 {
		t.Errorf("Pos = %d after Reset", c.Pos())
	}
	if fresh := c.Apply([]string{"a"}); len(fresh) != 1 {
		t.Errorf("post-reset Apply = %v", fresh)
	}
}
