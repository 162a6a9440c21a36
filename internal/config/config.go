// Package config loads the controller configuration file.
//
// The schema is deliberately small: network addresses, storage paths and the
// polling cadences of the sweep state machine. Fields omitted from the JSON
// file retain their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for the controller daemon.
type Config struct {
	// Listen is the address the browser-facing HTTP API binds to.
	Listen string `json:"listen,omitempty"`

	// BackendURL is the base URL of the measurement engine's API.
	BackendURL string `json:"backend_url,omitempty"`

	// DatabasePath is the sqlite file backing the local history store.
	DatabasePath string `json:"database_path,omitempty"`

	// ProgressInterval is the cadence of the progress/log tick while a sweep
	// runs. Duration string like "800ms".
	ProgressInterval string `json:"progress_interval,omitempty"`

	// AnalysisInterval is the cadence of the analysis-readiness poll after a
	// sweep completes. Duration string like "1s".
	AnalysisInterval string `json:"analysis_interval,omitempty"`

	// AnalysisAttempts bounds the analysis-readiness poll. The ceiling is an
	// attempt count, not a wall-clock deadline.
	AnalysisAttempts int `json:"analysis_attempts,omitempty"`

	// HistorySlots is the number of fixed display slots the session history
	// binds into.
	HistorySlots int `json:"history_slots,omitempty"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Listen:           ":8080",
		BackendURL:       "http://127.0.0.1:5000",
		DatabasePath:     "controller.db",
		ProgressInterval: "800ms",
		AnalysisInterval: "1s",
		AnalysisAttempts: 20,
		HistorySlots:     4,
	}
}

// Load reads a Config from a JSON file, applying defaults for omitted fields.
// The file is validated to have a .json extension and to be under the max
// file size.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the duration strings parse and the counters are sane.
func (c *Config) Validate() error {
	if _, err := c.ProgressTick(); err != nil {
		return err
	}
	if _, err := c.AnalysisTick(); err != nil {
		return err
	}
	if c.AnalysisAttempts <= 0 {
		return fmt.Errorf("analysis_attempts must be positive, got %d", c.AnalysisAttempts)
	}
	if c.HistorySlots <= 0 {
		return fmt.Errorf("history_slots must be positive, got %d", c.HistorySlots)
	}
	return nil
}

// ProgressTick parses ProgressInterval.
func (c *Config) ProgressTick() (time.Duration, error) {
	d, err := time.ParseDuration(c.ProgressInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid progress_interval %q: %w", c.ProgressInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("progress_interval must be positive, got %s", d)
	}
	return d, nil
}

// AnalysisTick parses AnalysisInterval.
func (c *Config) AnalysisTick() (time.Duration, error) {
	d, err := time.ParseDuration(c.AnalysisInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid analysis_interval %q: %w", c.AnalysisInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("analysis_interval must be positive, got %s", d)
	}
	return d, nil
}
