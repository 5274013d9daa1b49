package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource provides the bearer tokens attached to requests. The client
// stores a fresh access token after a successful refresh and clears all
// credentials when a refresh fails.
type TokenSource interface {
	Access() string
	Refresh() string
	StoreAccess(token string) error
	Clear() error
}

// Client talks to the Sacco REST API. All paths are relative to the base URL
// and use the trailing-slash convention of the server.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte

	if body != nil {
		var err error

		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	// A 401 is answered by exactly one refresh-and-retry per request.
	retried := false

	for {
		resp, authed, err := c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && authed && !retried {
			resp.Body.Close()
			retried = true

			if err := c.refreshAccess(ctx); err != nil {
				return err
			}

			continue
		}

		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errorFromResponse(resp)
		}

		if out == nil {
			return nil
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, bool, error) {
	var reader *bytes.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	authed := false
	if access := c.tokens.Access(); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
		authed = true
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, authed, fmt.Errorf("executing request: %w", err)
	}

	return resp, authed, nil
}

// refreshAccess trades the refresh token for a new access token. Any failure
// is unrecoverable: credentials are cleared and the session is over.
func (c *Client) refreshAccess(ctx context.Context) error {
	refresh := c.tokens.Refresh()
	if refresh == "" {
		c.clearTokens()
		return ErrSessionExpired
	}

	payload, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return fmt.Errorf("encoding refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"auth/refresh/", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating refresh request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.clearTokens()
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.clearTokens()
		return ErrSessionExpired
	}

	var body struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Access == "" {
		c.clearTokens()
		return ErrSessionExpired
	}

	if err := c.tokens.StoreAccess(body.Access); err != nil {
		return fmt.Errorf("storing refreshed token: %w", err)
	}

	return nil
}

func (c *Client) clearTokens() {
	if err := c.tokens.Clear(); err != nil {
		slog.Error("failed to clear credentials", "error", err)
	}
}
