// Package auth resolves bearer tokens to users through the hosted auth service.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the subset of the auth service's user object the coach needs.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Client calls the auth service's user endpoint.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient creates a client for the auth service at baseURL.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetUser resolves token to a user. Any non-200 answer is an error.
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("auth service url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("building user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("user request failed (status %d): %s", resp.StatusCode, body)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	if u.ID == uuid.Nil {
		return nil, fmt.Errorf("auth service returned no user id")
	}
	return &u, nil
}
