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

	"github.com/fitbod/fitcoach/internal/models"
	"github.com/fitbod/fitcoach/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the FitCoach REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server. The bearer token selects the user, so
// the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) GetProfile(ctx context.Context, _ uuid.UUID) (*models.Profile, error) {
	body, err := c.get(ctx, "/api/v1/profile", nil)
	if err != nil {
		return nil, err
	}

	var p models.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("httpclient: decode profile: %w", err)
	}
	return &p, nil
}

func (c *HTTPClient) RecentMessages(ctx context.Context, _ uuid.UUID, chatID string, limit int) ([]models.ChatMessageRow, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v1/chats/"+url.PathEscape(chatID)+"/messages", params)
	if err != nil {
		return nil, err
	}

	var rows []models.ChatMessageRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode messages: %w", err)
	}
	return rows, nil
}
