// room.report is the controller for a room-acoustics measurement
// appliance: it starts sweeps on the measurement engine, tracks their
// progress, waits for the out-of-process analysis to land, and serves the
// session history to the browser frontend.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hearthside-audio/room.report/internal/api"
	"github.com/hearthside-audio/room.report/internal/backend"
	"github.com/hearthside-audio/room.report/internal/catalog"
	"github.com/hearthside-audio/room.report/internal/config"
	"github.com/hearthside-audio/room.report/internal/store"
	"github.com/hearthside-audio/room.report/internal/sweep"
)

var (
	devMode    = flag.Bool("dev", false, "Run against a simulated measurement engine")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	backendURL = flag.String("backend", "", "Measurement engine base URL (overrides config)")
	dbPath     = flag.String("db", "", "History database path (overrides config)")
	configPath = flag.String("config", "", "Path to JSON config file")
)

// engineAPI is the full measurement engine surface the controller needs,
// satisfied by both the real client and the dev-mode mock.
type engineAPI interface {
	sweep.Engine
	catalog.Source
}

// logEvents relays sweep events to the process log.
type logEvents struct{}

func (logEvents) StatusChanged(message string) { log.Printf("sweep status: %s", message) }
func (logEvents) LogAppended(lines []string) {
	for _, line := range lines {
		log.Printf("engine: %s", line)
	}
}
func (logEvents) Terminal(outcome sweep.Outcome) { log.Printf("sweep finished: %s", outcome) }
func (logEvents) AnalysisReady(s catalog.Session) {
	if s.OverallScore != nil {
		log.Printf("analysis ready: session %s scored %.1f", s.ID, *s.OverallScore)
		return
	}
	log.Printf("analysis ready: session %s", s.ID)
}
func (logEvents) AnalysisTimeout() { log.Print("analysis wait timed out; latest view may lag") }

func loadConfig() *config.Config {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *backendURL != "" {
		cfg.BackendURL = *backendURL
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return cfg
}

func main() {
	flag.Parse()
	cfg := loadConfig()

	progressTick, err := cfg.ProgressTick()
	if err != nil {
		log.Fatalf("invalid progress interval: %v", err)
	}
	analysisTick, err := cfg.AnalysisTick()
	if err != nil {
		log.Fatalf("invalid analysis interval: %v", err)
	}

	var engine engineAPI
	if *devMode {
		log.Print("dev mode: using simulated measurement engine")
		engine = backend.NewMockEngine(500 * time.Millisecond)
	} else {
		engine = backend.NewClient(nil, cfg.BackendURL)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer st.Close()

	cat := catalog.New(engine, st)
	runner := sweep.NewRunner(engine, cat, logEvents{}, sweep.Options{
		ProgressTick:     progressTick,
		AnalysisTick:     analysisTick,
		AnalysisAttempts: cfg.AnalysisAttempts,
		RunLog:           st,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiServer := api.NewServer(ctx, runner, cat, st, cfg.HistorySlots)
	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: newHandler(apiServer),
	}

	go func() {
		log.Printf("listening on %s (engine at %s)", cfg.Listen, cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := runner.Cancel(); err != nil && err != sweep.ErrNotRunning {
		log.Printf("cancel active sweep: %v", err)
	}
}
