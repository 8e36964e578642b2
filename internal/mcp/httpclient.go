package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/claude/poseflow/internal/models"
	"github.com/claude/poseflow/internal/recommend"
	"github.com/claude/poseflow/internal/streak"
)

// HTTPClient implements DataSource by calling the PoseFlow REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// derives the user from the tailnet identity, so login arguments are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Recommendations(ctx context.Context, _ string) ([]recommend.Recommendation, error) {
	var recs []recommend.Recommendation
	if err := c.do(ctx, http.MethodGet, "/api/v1/practice/recommendations", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *HTTPClient) Streak(ctx context.Context, _ string) (streak.State, error) {
	var st streak.State
	err := c.do(ctx, http.MethodGet, "/api/v1/user/streak", nil, &st)
	return st, err
}

func (c *HTTPClient) MarkPracticed(ctx context.Context, _ string) (streak.State, error) {
	var st streak.State
	err := c.do(ctx, http.MethodPost, "/api/v1/user/streak/update", nil, &st)
	return st, err
}

func (c *HTTPClient) RecentSessions(ctx context.Context, _ string, limit int) ([]models.PracticeSession, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var sessions []models.PracticeSession
	if err := c.do(ctx, http.MethodGet, "/api/v1/practice/sessions", params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) Profile(ctx context.Context, _ string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/v1/user/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) Poses(ctx context.Context, difficulty string) ([]catalog.Entry, error) {
	params := url.Values{}
	if difficulty != "" {
		params.Set("difficulty", difficulty)
	}
	var entries []catalog.Entry
	if err := c.do(ctx, http.MethodGet, "/api/v1/poses", params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
