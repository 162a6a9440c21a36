// Package backend provides the HTTP client for the measurement engine's
// control API. The engine owns signal generation, capture and analysis; this
// client only starts/cancels sweeps and reads pollable state.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client provides HTTP operations against the measurement engine.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

// NewClient creates a new engine client. A nil httpClient gets a 10 second
// timeout default; individual polls are expected to be fast.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		HTTPClient: httpClient,
		BaseURL:    baseURL,
	}
}

// StartSweep asks the engine to begin a measurement run.
func (c *Client) StartSweep(ctx context.Context, params StartParams) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal sweep params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/run-sweep", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Progress fetches the engine's pollable sweep state.
func (c *Client) Progress(ctx context.Context) (ProgressReport, error) {
	var report ProgressReport

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/sweep-progress", nil)
	if err != nil {
		return report, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return report, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return report, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return report, fmt.Errorf("decode progress: %w", err)
	}
	return report, nil
}

// Logs fetches the full sweep log. The engine's log is append-only: a
// previously returned prefix never changes, which is what makes cursor
// based streaming on top of it safe.
func (c *Client) Logs(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/sweep-log", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var lines []string
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		return nil, fmt.Errorf("decode sweep log: %w", err)
	}
	return lines, nil
}

// CancelSweep asks the engine to stop the running sweep. Cancellation is
// cooperative; the engine may finish its current phase first.
func (c *Client) CancelSweep(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/sweep-cancel", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// ListSessions fetches the session summaries the engine knows about.
func (c *Client) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/sessions", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var records []SessionRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return records, nil
}

// GetSession fetches the full record for one session.
func (c *Client) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	var record SessionRecord

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/api/session/"+url.PathEscape(id), nil)
	if err != nil {
		return record, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return record, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return record, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return record, fmt.Errorf("decode session %s: %w", id, err)
	}
	return record, nil
}

// SaveNote stores a user note against a session.
func (c *Client) SaveNote(ctx context.Context, id, text string) error {
	data, err := json.Marshal(map[string]string{"note": text})
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/session/"+url.PathEscape(id)+"/note", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
