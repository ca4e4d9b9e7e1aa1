// Package gemini calls the generative-language API through the genai SDK.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash-lite"

// Generator produces text for a request. *Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var _ Generator = (*Client)(nil)

// Config holds client settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client wraps a genai client bound to one model.
type Client struct {
	models  *genai.Models
	model   string
	timeout time.Duration
	initErr error
}

// New creates a client. An SDK setup failure such as a missing key is kept
// and returned from every Generate call, so startup never fails on it.
func New(ctx context.Context, cfg Config) *Client {
	c := &Client{model: cfg.Model, timeout: cfg.Timeout}
	if c.model == "" {
		c.model = DefaultModel
	}
	if cfg.APIKey == "" {
		c.initErr = fmt.Errorf("gemini api key not configured")
		return c
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		c.initErr = fmt.Errorf("creating genai client: %w", err)
		return c
	}
	c.models = client.Models
	return c
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// Generate sends req and returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c.initErr != nil {
		return "", c.initErr
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.models.GenerateContent(ctx, c.model, req.Contents, req.config())
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}
	return resp.Text(), nil
}
