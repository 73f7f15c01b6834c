// Package client is a typed REST client for the taxflow API.
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
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// APIError is returned for every non-2xx response. Message is the backend's
// error text when it sent one.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status of err when it is an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for retries and polling failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetries sets how often an idempotent GET is retried after a network
// error or a 502/503/504. Zero disables retries.
func WithRetries(n int, initial time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.retryInterval = initial
	}
}

type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *zap.Logger
	maxRetries    int
	retryInterval time.Duration

	mu    sync.RWMutex
	token string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        zap.NewNop(),
		maxRetries:    2,
		retryInterval: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token. Safe for concurrent use.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope mirrors the server's response wrapper. detail is what the
// original front end read for auth failures.
type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Detail     string          `json:"detail"`
}

var retryableStatus = map[int]bool{
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func jsonRequest(method, path string, payload interface{}) (request, error) {
	req := request{method: method, path: path}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("failed to marshal request body: %w", err)
		}
		req.body = b
		req.contentType = "application/json"
	}
	return req, nil
}

// do sends req and decodes the envelope's data into out (which may be nil).
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	var (
		status int
		raw    []byte
	)

	attempt := func() error {
		var err error
		status, raw, err = c.send(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if retryableStatus[status] {
			return fmt.Errorf("retryable status %d", status)
		}
		return nil
	}

	var err error
	if req.method == http.MethodGet && c.maxRetries > 0 {
		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = c.retryInterval
		err = backoff.RetryNotify(attempt,
			backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx),
			func(err error, wait time.Duration) {
				c.logger.Debug("retrying request", zap.String("path", req.path), zap.Duration("wait", wait), zap.Error(err))
			})
	} else {
		err = attempt()
	}
	// A retryable status that ran out of attempts is still reported as an APIError.
	if err != nil && status == 0 {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return fmt.Errorf("%s %s: request failed: %w", req.method, req.path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if status < 200 || status > 299 {
		msg := env.Error
		if msg == "" {
			msg = env.Detail
		}
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &APIError{StatusCode: status, Method: req.method, Path: req.path, Message: msg}
	}
	if out == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", req.method, req.path, decodeErr)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode data: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req request) (int, []byte, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if tok := c.bearer(); tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}
