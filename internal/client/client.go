// Package client wraps the /api/actions/ REST resource.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/ecotrack/internal/domain"
)

const (
	actionsPath = "/api/actions/"

	// maxErrorBody bounds how much of a failed response is kept for display.
	maxErrorBody = 64 << 10
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("client: %s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap maps 404 onto domain.ErrNotFound so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// Client issues JSON requests against a fixed base URL. It neither retries
// nor imposes timeouts; both are left to the underlying transport.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client for baseURL, which must be an absolute http(s) URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("client: base url must be absolute http(s), got %q", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery, u.Fragment = "", ""
	c := &Client{base: u, http: http.DefaultClient, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// List fetches every action, in server order. A body that is not a JSON
// array yields an empty list.
func (c *Client) List(ctx context.Context) ([]domain.Action, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, http.MethodGet, actionsPath, nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		c.logger.Warn("list response is not an array", zap.Int("bytes", len(trimmed)))
		return []domain.Action{}, nil
	}
	items := []domain.Action{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("client: decode actions: %w", err)
	}
	return items, nil
}

// Get fetches one action.
func (c *Client) Get(ctx context.Context, id int64) (domain.Action, error) {
	var out domain.Action
	_, err := c.do(ctx, http.MethodGet, detailPath(id), nil, &out)
	return out, err
}

// Create posts a new action and returns it with its server-assigned id.
func (c *Client) Create(ctx context.Context, in domain.ActionInput) (domain.Action, error) {
	var out domain.Action
	_, err := c.do(ctx, http.MethodPost, actionsPath, in, &out)
	return out, err
}

// Update sends only the fields set in patch and returns the merged record.
func (c *Client) Update(ctx context.Context, id int64, patch domain.ActionPatch) (domain.Action, error) {
	var out domain.Action
	_, err := c.do(ctx, http.MethodPatch, detailPath(id), patch, &out)
	return out, err
}

// Replace overwrites every writable field of an action.
func (c *Client) Replace(ctx context.Context, id int64, in domain.ActionInput) (domain.Action, error) {
	var out domain.Action
	_, err := c.do(ctx, http.MethodPut, detailPath(id), in, &out)
	return out, err
}

// Delete removes an action. It reports true only when the server answers
// 204 No Content; any other 2xx is a non-error false.
func (c *Client) Delete(ctx context.Context, id int64) (bool, error) {
	status, err := c.do(ctx, http.MethodDelete, detailPath(id), nil, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusNoContent, nil
}

func detailPath(id int64) string {
	return actionsPath + strconv.FormatInt(id, 10) + "/"
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}
	u := *c.base
	u.Path = c.base.Path + path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, fmt.Errorf("client: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return 0, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request done", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("client: %s %s: empty response body", method, path)
		}
		return resp.StatusCode, fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return resp.StatusCode, nil
}
