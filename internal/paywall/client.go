package paywall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Client calls a bridge over its HTTP JSON-RPC transport.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	nextID     atomic.Int64
}

// callResponse is a JSON-RPC 2.0 response with the result left undecoded.
type callResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

// CallError is a JSON-RPC error returned by the bridge.
type CallError struct {
	Code    int
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("paywall error %d: %s", e.Code, e.Message)
}

// NewClient creates a client for channel on the server at serverURL.
func NewClient(serverURL, channel, token string) *Client {
	return &Client{
		url:        strings.TrimRight(serverURL, "/") + "/api/v1/channels/" + channel,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Call invokes method with params and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(fmt.Sprint(c.nextID.Add(1))),
		Method:  method,
	}
	if params != nil {
		p, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshaling params: %w", err)
		}
		req.Params = p
	}
	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("channel request failed (status %d): %s", resp.StatusCode, body)
	}

	var out callResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if out.Error != nil {
		return nil, &CallError{Code: out.Error.Code, Message: out.Error.Message}
	}
	return out.Result, nil
}

// ShowPaywall registers a placement event. An empty event lets the bridge
// pick DefaultEvent.
func (c *Client) ShowPaywall(ctx context.Context, event string) (bool, error) {
	var params any
	if event != "" {
		params = event
	}
	return c.callBool(ctx, MethodShowPaywall, params)
}

// IsSubscribed asks whether the user has an active subscription.
func (c *Client) IsSubscribed(ctx context.Context) (bool, error) {
	return c.callBool(ctx, MethodIsSubscribed, nil)
}

// SetSubscribed overwrites the cached subscription flag.
func (c *Client) SetSubscribed(ctx context.Context, subscribed bool) (bool, error) {
	return c.callBool(ctx, MethodSetSubscribed, subscribed)
}

func (c *Client) callBool(ctx context.Context, method string, params any) (bool, error) {
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("decoding %s result: %w", method, err)
	}
	return v, nil
}
