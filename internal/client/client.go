// ABOUTME: HTTP client for the RSS API with bearer-token auth and GET retries
// ABOUTME: Resolves the server URL and token from the session store on every call

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults for the GET retry policy
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 200 * time.Millisecond
	DefaultTimeout    = 30 * time.Second
)

var (
	// ErrSessionExpired is returned for any 401 response.
	ErrSessionExpired = errors.New("session expired")

	// ErrMissingToken is returned by authenticated calls when no token is stored.
	// No request is sent in that case.
	ErrMissingToken = errors.New("no authentication token found")
)

// RequestError is a non-2xx, non-401 response
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// NetworkError is a transport-level failure: nothing usable came back from the server.
// Only these are retried.
type NetworkError struct {
	URL string
	Err error
	msg string
}

func (e *NetworkError) Error() string { return e.msg }
func (e *NetworkError) Unwrap() error { return e.Err }

// Credentials supplies the server URL and bearer token for each request
type Credentials interface {
	ServerURL(ctx context.Context) (string, error)
	AuthToken(ctx context.Context) (string, error)
}

// ContentType selects how a request body is serialized
type ContentType int

const (
	ContentForm ContentType = iota
	ContentJSON
)

// String returns the MIME type
func (ct ContentType) String() string {
	if ct == ContentJSON {
		return "application/json"
	}
	return "application/x-www-form-urlencoded"
}

// Body is a raw response body
type Body []byte

// IsJSON reports whether the body parses as JSON
func (b Body) IsJSON() bool {
	return len(bytes.TrimSpace(b)) > 0 && json.Valid(b)
}

// Decode unmarshals a JSON body into v
func (b Body) Decode(v any) error {
	if !b.IsJSON() {
		return fmt.Errorf("invalid response from server: expected JSON, got %q", truncate(string(b), 80))
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("invalid response from server: %w", err)
	}
	return nil
}

// Value returns the parsed JSON value, or the raw text when the body is not JSON
// (empty and 204 responses included).
func (b Body) Value() any {
	if b.IsJSON() {
		var v any
		if err := json.Unmarshal(b, &v); err == nil {
			return v
		}
	}
	return string(b)
}

func (b Body) String() string { return string(b) }

// Client is the API client for the RSS server
type Client struct {
	creds      Credentials
	httpClient *http.Client
	attempts   int
	retryDelay time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetry sets the GET attempt count and the linear backoff base
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// New creates a new API client reading the server URL and token from creds
func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds: creds,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends an unauthenticated form-encoded POST
func (c *Client) Post(ctx context.Context, path string, form any) (Body, error) {
	payload, err := encodeBody(form, ContentForm)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPost, path, payload, http.Header{
		"Content-Type": {ContentForm.String()},
		"Accept":       {"application/json"},
	})
}

// PostWithAuth sends an authenticated POST encoded as form fields or JSON
func (c *Client) PostWithAuth(ctx context.Context, path string, body any, ct ContentType) (Body, error) {
	return c.writeWithAuth(ctx, http.MethodPost, path, body, ct)
}

// PutWithAuth sends an authenticated PUT encoded as form fields or JSON
func (c *Client) PutWithAuth(ctx context.Context, path string, body any, ct ContentType) (Body, error) {
	return c.writeWithAuth(ctx, http.MethodPut, path, body, ct)
}

func (c *Client) writeWithAuth(ctx context.Context, method, path string, body any, ct ContentType) (Body, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := encodeBody(body, ct)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, method, path, payload, http.Header{
		"Authorization": {"Bearer " + token},
		"Accept":        {"application/json"},
		"Content-Type":  {ct.String()},
	})
}

// Get sends a GET with retries, attaching the token only when one is stored
func (c *Client) Get(ctx context.Context, path string) (Body, error) {
	token, err := c.creds.AuthToken(ctx)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if token != "" {
		header = jsonAuthHeader(token)
	}
	return c.withRetry(ctx, func() (Body, error) {
		return c.send(ctx, http.MethodGet, path, nil, header)
	})
}

// GetWithAuth sends an authenticated GET with retries
func (c *Client) GetWithAuth(ctx context.Context, path string) (Body, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return nil, err
	}
	header := jsonAuthHeader(token)
	return c.withRetry(ctx, func() (Body, error) {
		return c.send(ctx, http.MethodGet, path, nil, header)
	})
}

func jsonAuthHeader(token string) http.Header {
	return http.Header{
		"Authorization": {"Bearer " + token},
		"Content-Type":  {"application/json"},
		"Accept":        {"application/json"},
	}
}

func (c *Client) requireToken(ctx context.Context) (string, error) {
	token, err := c.creds.AuthToken(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// withRetry runs fn up to c.attempts times. Only network errors are retried;
// before attempt n+1 it waits retryDelay*n.
func (c *Client) withRetry(ctx context.Context, fn func() (Body, error)) (Body, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		body, err := fn()
		if err == nil {
			return body, nil
		}

		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			return nil, err
		}
		lastErr = err

		if attempt == c.attempts || ctx.Err() != nil {
			break
		}

		wait := c.retryDelay * time.Duration(attempt)
		slog.Debug("Retrying request", "url", netErr.URL, "attempt", attempt, "wait", wait, "error", err)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastErr
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// send performs a single request and maps the response
func (c *Client) send(ctx context.Context, method, path string, payload []byte, header http.Header) (Body, error) {
	baseURL, err := c.creds.ServerURL(ctx)
	if err != nil {
		return nil, err
	}
	target := baseURL + path

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, baseURL, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.handleRequestError(ctx, baseURL, target, err)
	}

	slog.Debug("API request", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
	return handleResponse(resp.StatusCode, data)
}

// handleResponse maps status codes to the client error taxonomy
func handleResponse(status int, data []byte) (Body, error) {
	if status == http.StatusUnauthorized {
		return nil, ErrSessionExpired
	}
	if status < 200 || status > 299 {
		return nil, &RequestError{StatusCode: status, Body: string(data)}
	}
	return Body(data), nil
}

// handleRequestError converts transport errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, baseURL, target string, err error) error {
	msg := fmt.Sprintf("cannot connect to server at %s: %v", baseURL, err)
	if errors.Is(ctx.Err(), context.Canceled) {
		msg = "request canceled"
	} else if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		msg = "request timed out"
	}
	return &NetworkError{URL: target, Err: err, msg: msg}
}

// encodeBody serializes body for the given content type. Form bodies accept
// url.Values, map[string]string, or nil.
func encodeBody(body any, ct ContentType) ([]byte, error) {
	if ct == ContentJSON {
		if body == nil {
			body = map[string]any{}
		}
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal input: %w", err)
		}
		return data, nil
	}

	switch v := body.(type) {
	case nil:
		return []byte{}, nil
	case url.Values:
		return []byte(encodeForm(v)), nil
	case map[string]string:
		values := url.Values{}
		for k, val := range v {
			values.Set(k, val)
		}
		return []byte(encodeForm(values)), nil
	default:
		return nil, fmt.Errorf("form body must be url.Values or map[string]string, got %T", body)
	}
}

// encodeForm percent-encodes key=value pairs, spaces as %20
func encodeForm(values url.Values) string {
	return strings.ReplaceAll(values.Encode(), "+", "%20")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
