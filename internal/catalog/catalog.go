package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hearthside-audio/room.report/internal/backend"
	"github.com/hearthside-audio/room.report/internal/monitoring"
	"github.com/hearthside-audio/room.report/internal/store"
)

// Source is the slice of the engine API the catalog consumes.
type Source interface {
	ListSessions(ctx context.Context) ([]backend.SessionRecord, error)
	GetSession(ctx context.Context, id string) (backend.SessionRecord, error)
	SaveNote(ctx context.Context, id, text string) error
}

// Archive is the local persistence the catalog mirrors into. Satisfied by
// *store.Store; nil disables mirroring.
type Archive interface {
	UpsertSession(store.SessionSummary) error
	ListSessions() ([]store.SessionSummary, error)
	SaveNote(sessionID, note string) error
	GetNote(sessionID string) (string, error)
}

// Slot is one fixed history display position. Unfilled slots are returned
// explicitly so presentation always resets stale content.
type Slot struct {
	Filled  bool    `json:"filled"`
	Session Session `json:"session,omitempty"`
}

// Catalog normalizes, orders and filters the sessions the engine reports.
type Catalog struct {
	source  Source
	archive Archive

	mu              sync.Mutex
	ignoreLastSweep bool
}

// New creates a catalog over the given source. archive may be nil.
func New(source Source, archive Archive) *Catalog {
	return &Catalog{source: source, archive: archive}
}

// List fetches, normalizes and orders all sessions, newest first. On a
// successful fetch the eligible sessions are mirrored into the archive;
// when the engine is unreachable the archived summaries are served instead
// so history browsing degrades rather than disappearing.
func (c *Catalog) List(ctx context.Context) ([]Session, error) {
	records, err := c.source.ListSessions(ctx)
	if err != nil {
		archived, archiveErr := c.listArchived()
		if archiveErr != nil || archived == nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		monitoring.Logf("catalog: engine unreachable (%v); serving %d archived sessions", err, len(archived))
		return archived, nil
	}

	sessions := make([]Session, 0, len(records))
	for _, r := range records {
		sessions = append(sessions, Normalize(r))
	}
	SortSessions(sessions)

	c.mirror(sessions)
	return sessions, nil
}

// Get fetches and normalizes one full session record, overlaying any
// locally drafted note.
func (c *Catalog) Get(ctx context.Context, id string) (Session, error) {
	record, err := c.source.GetSession(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}

	s := Normalize(record)
	c.overlayNote(&s)
	return s, nil
}

// History binds the top-n eligible sessions into exactly n fixed slots.
// Slots beyond the available eligible count come back explicitly empty;
// they are reused across refreshes and must never keep a stale session.
func (c *Catalog) History(ctx context.Context, n int) ([]Slot, error) {
	sessions, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, n)
	i := 0
	for _, s := range sessions {
		if i >= n {
			break
		}
		if !s.HistoryEligible() {
			continue
		}
		c.overlayNote(&s)
		slots[i] = Slot{Filled: true, Session: s}
		i++
	}
	return slots, nil
}

// Latest returns the newest session that may be surfaced as the active
// result. Sessions without analysis are skipped, and when the
// ignore-last-sweep flag is set (a just-cancelled job left a partial
// record) the numerically newest session is passed over regardless.
// Returns nil when nothing qualifies.
func (c *Catalog) Latest(ctx context.Context) (*Session, error) {
	sessions, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	ignoreNewest := c.IgnoreLastSweep()
	for i, s := range sessions {
		if ignoreNewest && i == 0 {
			continue
		}
		if !s.HasAnalysis {
			continue
		}
		c.overlayNote(&s)
		return &s, nil
	}
	return nil, nil
}

// SaveNote writes a note through to the engine and mirrors it locally. A
// local mirror failure is logged but does not fail the save.
func (c *Catalog) SaveNote(ctx context.Context, id, text string) error {
	if err := c.source.SaveNote(ctx, id, text); err != nil {
		return fmt.Errorf("save note for %s: %w", id, err)
	}
	if c.archive != nil {
		if err := c.archive.SaveNote(id, text); err != nil {
			monitoring.Logf("catalog: note mirror failed for %s: %v", id, err)
		}
	}
	return nil
}

// SetIgnoreLastSweep sets or clears the cancelled-sweep filter.
func (c *Catalog) SetIgnoreLastSweep(ignore bool) {
	c.mu.Lock()
	c.ignoreLastSweep = ignore
	c.mu.Unlock()
}

// IgnoreLastSweep reports whether the newest session is being suppressed.
func (c *Catalog) IgnoreLastSweep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ignoreLastSweep
}

func (c *Catalog) mirror(sessions []Session) {
	if c.archive == nil {
		return
	}
	for _, s := range sessions {
		if !s.HistoryEligible() {
			continue
		}
		sum := store.SessionSummary{
			ID:           s.ID,
			OverallScore: s.OverallScore,
			HasAnalysis:  s.HasAnalysis,
			MetricsJSON:  s.MetricsJSON(),
		}
		if s.Timestamp != nil {
			sum.Timestamp = s.Timestamp.Format(time.RFC3339)
		}
		if err := c.archive.UpsertSession(sum); err != nil {
			monitoring.Logf("catalog: session mirror failed for %s: %v", s.ID, err)
			return
		}
	}
}

func (c *Catalog) listArchived() ([]Session, error) {
	if c.archive == nil {
		return nil, nil
	}
	summaries, err := c.archive.ListSessions()
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}

	sessions := make([]Session, 0, len(summaries))
	for _, sum := range summaries {
		s := Session{
			ID:           sum.ID,
			OverallScore: sum.OverallScore,
			HasAnalysis:  sum.HasAnalysis,
			scored:       len(sum.MetricsJSON) > 0,
		}
		if t, ok := parseTimestamp(sum.Timestamp); ok {
			s.Timestamp = &t
		}
		c.overlayNote(&s)
		sessions = append(sessions, s)
	}
	SortSessions(sessions)
	return sessions, nil
}

// overlayNote fills an empty note from the local draft, if any.
func (c *Catalog) overlayNote(s *Session) {
	if c.archive == nil || s.Note != "" {
		return
	}
	note, err := c.archive.GetNote(s.ID)
	if err != nil {
		monitoring.Logf("catalog: note lookup failed for %s: %v", s.ID, err)
		return
	}
	s.Note = note
}
