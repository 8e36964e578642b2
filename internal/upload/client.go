package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// poseEntry mirrors catalog.Entry on the wire without importing server packages.
type poseEntry struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
}

// IngestResult mirrors the server's batch upload summary.
type IngestResult struct {
	Received int      `json:"received"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

type ingestRequest struct {
	Login    string    `json:"login"`
	Sessions []Session `json:"sessions"`
}

// Client sends practice sessions to the PoseFlow server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the PoseFlow server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// FetchCatalog retrieves the set of pose names the server knows.
func (c *Client) FetchCatalog() (map[string]bool, error) {
	resp, err := c.httpClient.Get(c.serverURL + "/api/v1/poses")
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog request failed (status %d): %s", resp.StatusCode, body)
	}

	var poses []poseEntry
	if err := json.NewDecoder(resp.Body).Decode(&poses); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	known := make(map[string]bool, len(poses))
	for _, p := range poses {
		known[p.Name] = true
	}
	return known, nil
}

// SendSessions POSTs a batch of sessions for login to the ingest endpoint.
// Retries up to 3 times with exponential backoff on transport errors and
// 5xx responses; 4xx responses fail immediately.
func (c *Client) SendSessions(login string, sessions []Session) (*IngestResult, error) {
	data, err := json.Marshal(ingestRequest{Login: login, Sessions: sessions})
	if err != nil {
		return nil, fmt.Errorf("marshaling sessions: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(c.backoff << uint(attempt-1))
		}

		req, err := http.NewRequest(http.MethodPost, c.serverURL+"/api/v1/ingest/sessions", bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var result IngestResult
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding ingest result: %w", err)
			}
			return &result, nil
		case resp.StatusCode < 500:
			return nil, fmt.Errorf("ingest rejected (status %d): %s", resp.StatusCode, body)
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
