package sweep

// LogCursor tracks how much of the engine's append-only sweep log has been
// consumed, so each line is delivered exactly once across polling ticks.
type LogCursor struct {
	pos int
}

// Apply takes a full log snapshot and returns the lines beyond the cursor,
// advancing the cursor past them. A snapshot shorter than the cursor is
// inconsistent with an append-only log and is skipped without advancing,
// so the next tick retries from the same position.
func (c *LogCursor) Apply(snapshot []string) []string {
	if len(snapshot) < c.pos {
		return nil
	}
	fresh := snapshot[c.pos:]
	c.pos = len(snapshot)
	if len(fresh) == 0 {
		return nil
	}
	out := make([]string, len(fresh))
	copy(out, fresh)
	return out
}

// Pos returns the number of lines consumed so far.
func (c *LogCursor) Pos() int { return c.pos }

// Reset rewinds the cursor to the start of the log.
func (c *LogCursor) Reset() { c.pos = 0 }
