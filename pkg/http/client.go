package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUpstream is matched by every UpstreamFetchError.
var ErrUpstream = errors.New("upstream fetch failed")

// UpstreamFetchError is returned once the retry budget of a request is spent.
type UpstreamFetchError struct {
	Source   string
	Endpoint string
	Status   int
	Attempts int
	Body     string
	Err      error
}

func (e *UpstreamFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: after %d attempts: %v", e.Source, e.Endpoint, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s %s: after %d attempts: status %d: %s", e.Source, e.Endpoint, e.Attempts, e.Status, e.Body)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

func (e *UpstreamFetchError) Is(target error) bool { return target == ErrUpstream }

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds upstream client configuration.
type ClientConfig struct {
	Source       string
	BaseURL      string
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	Headers      map[string]string
	UserAgent    string
}

// RequestOptions holds HTTP request parameters.
type RequestOptions struct {
	Path        string
	Headers     map[string]string
	QueryParams map[string][]string
}

// Client is a JSON REST client with bounded retries on 5xx and 429.
type Client struct {
	cfg    ClientConfig
	client *resty.Client
}

// NewClient creates a new upstream client.
func NewClient(opts ...ClientOption) *Client {
	cfg := ClientConfig{
		Source:       "upstream",
		Timeout:      20 * time.Second,
		RetryCount:   3,
		RetryWait:    500 * time.Millisecond,
		RetryMaxWait: 8 * time.Second,
		UserAgent:    "certus/1.0",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		AddRetryCondition(Retryable).
		SetRetryAfter(retryAfter)
	for k, v := range cfg.Headers {
		rc.SetHeader(k, v)
	}

	return &Client{cfg: cfg, client: rc}
}

// Source names the upstream in errors and logs.
func (c *Client) Source() string { return c.cfg.Source }

// Retryable reports whether a response should be retried: transport errors,
// rate limiting and server errors.
func Retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// retryAfter honours a Retry-After header in seconds on 429. Zero falls back
// to exponential backoff.
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil || resp.StatusCode() != http.StatusTooManyRequests {
		return 0, nil
	}
	if s := resp.Header().Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second, nil
		}
	}
	return 0, nil
}

// GetJSON performs a GET and decodes the JSON body into dest.
func (c *Client) GetJSON(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	req := c.client.R().SetContext(ctx)
	for k, v := range opts.Headers {
		req.SetHeader(k, v)
	}
	if len(opts.QueryParams) > 0 {
		req.SetQueryParamsFromValues(opts.QueryParams)
	}

	resp, err := req.Get(opts.Path)
	attempts := 1
	if resp != nil && resp.Request != nil && resp.Request.Attempt > 0 {
		attempts = resp.Request.Attempt
	}
	if err != nil {
		return &UpstreamFetchError{Source: c.cfg.Source, Endpoint: opts.Path, Attempts: attempts, Err: err}
	}
	if !resp.IsSuccess() {
		return &UpstreamFetchError{
			Source:   c.cfg.Source,
			Endpoint: opts.Path,
			Status:   resp.StatusCode(),
			Attempts: attempts,
			Body:     truncate(resp.String(), 256),
		}
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("%s %s: decode json: %w", c.cfg.Source, opts.Path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// WithSource names the upstream.
func WithSource(name string) ClientOption {
	return func(c *ClientConfig) {
		c.Source = name
	}
}

// WithBaseURL sets the base URL requests are resolved against.
func WithBaseURL(u string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = u
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithRetry sets the retry budget and the exponential backoff bounds.
func WithRetry(count int, wait, maxWait time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if count >= 0 {
			c.RetryCount = count
		}
		if wait > 0 {
			c.RetryWait = wait
		}
		if maxWait > 0 {
			c.RetryMaxWait = maxWait
		}
	}
}

// WithHeader sets a header sent with every request.
func WithHeader(key, value string) ClientOption {
	return func(c *ClientConfig) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
	}
}
