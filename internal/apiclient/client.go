// Package apiclient talks to the beer-tasting HTTP API on behalf of a signed-in user.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"beer-tasting-go/internal/session"

	"github.com/cenkalti/backoff/v3"
	"github.com/taskcluster/httpbackoff/v3"
	"go.uber.org/zap"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: unexpected status code %d", e.Code)
	}
	return fmt.Sprintf("api: %d %s", e.Code, e.Message)
}

// IsClientError reports whether err carries a 4xx status.
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500
}

// HasStatus reports whether err carries exactly the given status.
func HasStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

type Client struct {
	baseURL string
	http    *http.Client
	retry   *httpbackoff.Client
	store   session.Store
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBackOff replaces the retry schedule used for idempotent reads.
func WithBackOff(b *backoff.ExponentialBackOff) Option {
	return func(c *Client) { c.retry = &httpbackoff.Client{BackOffSettings: b} }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// DefaultBackOff retries 5xx and network errors for a few seconds; a CLI should not hang longer.
func DefaultBackOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     100 * time.Millisecond,
		RandomizationFactor: 0.25,
		Multiplier:          2,
		MaxInterval:         2 * time.Second,
		MaxElapsedTime:      5 * time.Second,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

func New(baseURL string, store session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		retry:   &httpbackoff.Client{BackOffSettings: DefaultBackOff()},
		store:   store,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.store.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stored token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// doOnce sends a single request. Non-2xx responses become *StatusError.
func (c *Client) doOnce(ctx context.Context, method, path string, in, out any) error {
	payload, err := marshal(in)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// doRetry is doOnce with exponential backoff on network errors and 5xx responses.
func (c *Client) doRetry(ctx context.Context, method, path string, in, out any) error {
	payload, err := marshal(in)
	if err != nil {
		return err
	}
	call := func() (*http.Response, error, error) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		req, err := c.newRequest(ctx, method, path, payload)
		if err != nil {
			return nil, nil, err
		}
		resp, err := c.http.Do(req)
		return resp, err, nil
	}

	resp, attempts, err := c.retry.Retry(call)
	if resp != nil {
		defer resp.Body.Close()
	}
	if attempts > 1 {
		c.logger.Debug("api call retried", zap.String("method", method), zap.String("path", path), zap.Int("attempts", attempts))
	}
	var bad httpbackoff.BadHttpResponseCode
	if errors.As(err, &bad) && resp != nil {
		return decodeResponse(resp, out)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return decodeResponse(resp, out)
}

func marshal(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	return json.Marshal(in)
}

func decodeResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &body)
		return &StatusError{Code: resp.StatusCode, Message: body.Error}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
