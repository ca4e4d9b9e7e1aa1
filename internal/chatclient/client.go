// Package chatclient talks to the FitCoach chat endpoint over HTTP.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Reply mirrors coach.Response without importing the coach package
// (which would pull in pgx and other server-side dependencies).
type Reply struct {
	Message          string          `json:"message"`
	Intent           string          `json:"intent"`
	DetectedLanguage string          `json:"detectedLanguage"`
	Context          json.RawMessage `json:"context"`
}

// ServerError is a failed chat call as reported by the server.
type ServerError struct {
	Status           int
	Message          string
	DetectedLanguage string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("chat failed (status %d): %s", e.Status, e.Message)
}

type request struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	ChatID  string `json:"chatId,omitempty"`
}

// Client sends chat messages to the FitCoach server.
type Client struct {
	serverURL  string
	token      string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the FitCoach server. The model call
// behind a chat reply can be slow, so the timeout is generous.
func NewClient(serverURL, token string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		token:     token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Send posts message to chatID. An empty chatID uses the server default.
func (c *Client) Send(ctx context.Context, message, chatID string) (*Reply, error) {
	return c.post(ctx, request{Message: message, ChatID: chatID})
}

// ClearHistory deletes the stored messages of chatID.
func (c *Client) ClearHistory(ctx context.Context, chatID string) (*Reply, error) {
	return c.post(ctx, request{Action: "clear_history", ChatID: chatID})
}

func (c *Client) post(ctx context.Context, body request) (*Reply, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/functions/v1/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending chat: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error            string `json:"error"`
			DetectedLanguage string `json:"detectedLanguage"`
		}
		if err := json.Unmarshal(raw, &failure); err != nil || failure.Error == "" {
			return nil, &ServerError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return nil, &ServerError{Status: resp.StatusCode, Message: failure.Error, DetectedLanguage: failure.DetectedLanguage}
	}

	var reply Reply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decoding reply: %w", err)
	}
	return &reply, nil
}
