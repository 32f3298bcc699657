// Package api is the authenticated HTTP client for the Soreli backend. The
// bearer credential is read at call time, so a single client instance tracks
// token rotation, and 401/403 responses trigger a global sign-out hook while
// the failure still propagates to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soreli/soreli-cli/internal/log"
)

// TokenSource supplies the current bearer token. Implemented by the session
// store; the token must reflect rotation without the client being recreated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Authenticated() bool
}

// UnauthorizedHandler is invoked when the backend answers 401 or 403. It is
// a side effect (sign-out + redirect), never a substitute for the error the
// caller receives, and it may fire from several concurrent requests.
type UnauthorizedHandler func(ctx context.Context)

// anonymousTokens is used when no token source is configured
type anonymousTokens struct{}

func (anonymousTokens) Token(ctx context.Context) (string, error) { return "", nil }
func (anonymousTokens) Authenticated() bool                       { return false }

// Client performs requests against the backend REST API
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (for testing)
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTokenSource attaches the session's token source
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithUnauthorizedHandler sets the global 401/403 side effect
func WithUnauthorizedHandler(fn UnauthorizedHandler) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// NewClient creates a client for the given backend base URL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		tokens:     anonymousTokens{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do executes one request. The Authorization header is attached only while a
// session exists; anonymous calls go out bare so public endpoints keep working.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	// Credential read happens here, at call time, not at client construction.
	if c.tokens.Authenticated() {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("reading bearer token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.LogDebugWithFields("api", "Request failed", map[string]any{
			"method":    method,
			"path":      path,
			"requestID": requestID,
			"error":     err.Error(),
		})
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.LogTraceWithFields("api", "Request completed", map[string]any{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"requestID":   requestID,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		apiErr := decodeError(resp)
		log.LogInfoWithFields("api", "Authorization failure", map[string]any{
			"method":    method,
			"path":      path,
			"status":    resp.StatusCode,
			"requestID": requestID,
		})
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		// The redirect above is a side effect; the caller still gets the error.
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response from %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
