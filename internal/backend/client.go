package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

// Observer receives one call per completed backend request
type Observer interface {
	ObserveBackendRequest(method string, status int)
}

// Client talks to the catalog REST backend
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	observer Observer
	token    string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger used for transport failures
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver reports every request to o
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for the backend at baseURL.
// The default http.Client has no timeout; callers bound requests with ctx.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForSession returns a copy of the client that authenticates as s
func (c *Client) ForSession(s models.Session) *Client {
	return c.WithToken(s.Token)
}

// WithToken returns a copy of the client that sends token as a bearer credential.
// An empty token yields an anonymous client.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL returns the backend root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get fetches path and decodes the JSON body into out
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Do sends a JSON request and decodes a 2xx JSON response into out.
// An out of type *[]byte receives the raw body instead.
// Any non-2xx status yields an *APIError; network failures wrap ErrTransport.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Error("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if c.observer != nil {
		c.observer.ObserveBackendRequest(method, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.logger.Info("backend rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", ErrTransport, method, path, err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
