// Package api implements the HTTP client for the inventory/sales REST
// service. Every collection endpoint wraps its payload in a {"data": ...}
// envelope; the decode helpers in this package deal with the envelope's
// loose shape so callers never have to.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-Id"

// Client issues JSON requests against a base URL, attaching the bearer
// token of the current session when one is set.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a client rooted at baseURL. A zero timeout falls back
// to 10 seconds.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "api"),
	}
}

// SetToken sets the bearer token attached to outgoing requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the default outgoing credential.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the currently attached bearer token, empty if none.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(headerRequestID, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	mLogger := c.logger.With("request_id", reqID)
	mLogger.DebugContext(ctx, "Sending request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		mLogger.ErrorContext(ctx, "Request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(respBody, resp.StatusCode),
		}
		mLogger.WarnContext(ctx, "Request rejected", "method", method, "path", path,
			"status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}
	mLogger.DebugContext(ctx, "Request completed", "method", method, "path", path, "status", resp.StatusCode)
	return respBody, nil
}

// serverMessage extracts a human-readable message from an error response
// body, trying the message/error keys the service is known to use.
func serverMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// DataList decodes the data array of an envelope. Any unexpected payload
// shape coerces to an empty slice rather than an error: the upstream
// service is not trusted to keep its envelope well formed.
func DataList[T any](body []byte) []T {
	var env struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
		return []T{}
	}
	return env.Data
}

// DataRecord decodes the data object of an envelope, taking the first
// element if the service answers with an array instead. ok is false when
// the payload is degenerate, leaving the fallback to the caller.
func DataRecord[T any](body []byte) (T, bool) {
	var zero T
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, false
	}
	raw := bytes.TrimSpace(env.Data)
	if len(raw) == 0 || string(raw) == "null" {
		return zero, false
	}
	if raw[0] == '[' {
		var list []T
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return zero, false
		}
		return list[0], true
	}
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return zero, false
	}
	return rec, true
}
