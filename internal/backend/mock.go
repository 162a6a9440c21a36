package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hearthside-audio/room.report/internal/acoustics"
)

// MockEngine simulates the measurement engine for dev mode: a started
// sweep steps through a scripted progress sequence and, shortly after
// finishing, publishes a scored session record. It implements the same
// surface as Client.
type MockEngine struct {
	step time.Duration

	mu       sync.Mutex
	running  bool
	progress float64
	message  string
	status   string
	log      []string
	sessions []SessionRecord
	seq      int
}

// NewMockEngine creates a mock engine. step is the simulated duration of
// one sweep phase; sub-second values make dev sweeps snappy.
func NewMockEngine(step time.Duration) *MockEngine {
	if step <= 0 {
		step = time.Second
	}
	return &MockEngine{step: step}
}

func (m *MockEngine) StartSweep(ctx context.Context, params StartParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("sweep already running")
	}
	m.running = true
	m.progress = 0
	m.message = "Preparing sweep"
	m.status = ""
	m.log = []string{"sweep requested"}
	if params.Speaker != "" {
		m.log = append(m.log, "speaker profile: "+params.Speaker)
	}
	go m.run()
	return nil
}

func (m *MockEngine) run() {
	phases := []struct {
		progress float64
		message  string
		line     string
	}{
		{10, "Calibrating microphone", "mic calibration ok"},
		{35, "Playing sweep tone (left)", "left channel sweep"},
		{60, "Playing sweep tone (right)", "right channel sweep"},
		{85, "Recording room response", "capture complete"},
		{100, "Processing", "handing off to analyser"},
	}
	for _, p := range phases {
		time.Sleep(m.step)
		m.mu.Lock()
		if !m.running {
			m.mu.Unlock()
			return
		}
		m.progress = p.progress
		m.message = p.message
		m.log = append(m.log, p.line)
		m.mu.Unlock()
	}

	time.Sleep(m.step)
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.message = "Sweep complete"
	m.status = "ok"
	m.seq++
	id := fmt.Sprintf("sweep%d", m.seq)
	m.mu.Unlock()

	// The real engine scores out of process; delay the record to exercise
	// the analysis wait.
	go func() {
		time.Sleep(2 * m.step)
		m.mu.Lock()
		defer m.mu.Unlock()
		m.sessions = append(m.sessions, mockSession(id))
	}()
}

func mockSession(id string) SessionRecord {
	overall := 7.4
	metric := func(v float64) *float64 { return &v }
	return SessionRecord{
		ID:          id,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Overall:     &overall,
		HasAnalysis: true,
		Metrics: map[string]*float64{
			"peaks_dips":  metric(6.9),
			"reflections": metric(7.8),
			"bandwidth":   metric(8.2),
			"balance":     metric(7.1),
			"smoothness":  metric(6.5),
			"clarity":     metric(7.9),
		},
		Room: &acoustics.Geometry{
			LengthM: 5.2, WidthM: 4.1, HeightM: 2.5,
			SpeakerSpacingM: 2.0, SpeakerFrontM: 0.6, ListenerFrontM: 2.4,
		},
	}
}

func (m *MockEngine) Progress(ctx context.Context) (ProgressReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ProgressReport{
		Running:  m.running,
		Progress: m.progress,
		Message:  m.message,
		Status:   m.status,
	}, nil
}

func (m *MockEngine) Logs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.log))
	copy(out, m.log)
	return out, nil
}

func (m *MockEngine) CancelSweep(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.message = "Sweep cancelled"
	m.status = "cancelled"
	return nil
}

func (m *MockEngine) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SessionRecord, len(m.sessions))
	copy(out, m.sessions)
	return out, nil
}

func (m *MockEngine) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return SessionRecord{}, fmt.Errorf("session %s not found", id)
}

func (m *MockEngine) SaveNote(ctx context.Context, id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			m.sessions[i].Note = text
			return nil
		}
	}
	return fmt.Errorf("session %s not found", id)
}
