package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"penpal/utils"

	"github.com/valyala/fasthttp"
)

// DefaultTimeout applies when no timeout option is given
const DefaultTimeout = 15 * time.Second

// Client is a JSON-over-HTTP client for the messaging and core services.
// Every call is a POST with a JSON body and a JSON response.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
	log     *utils.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(log *utils.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient validates baseURL and returns a client for it. Trailing
// slashes are trimmed so paths can be appended as-is.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("messaging base URL is not set")
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid messaging base URL: %s", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		timeout: DefaultTimeout,
		http: &fasthttp.Client{
			Name:                     "penpal",
			NoDefaultUserAgentHeader: true,
			MaxIdleConnDuration:      30 * time.Second,
		},
		log: utils.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Post sends body as JSON to path and decodes the JSON response into out.
// out may be nil. An empty 2xx body leaves out untouched.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return timeoutError()
		}
		return transportError(err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return transportError(fmt.Errorf("failed to encode request: %w", err))
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.SetBodyRaw(payload)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err = c.http.DoDeadline(req, resp, deadline)
	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
			c.log.Warn("POST %s timed out after %v", path, time.Since(start))
			return timeoutError()
		}
		c.log.Warn("POST %s failed: %v", path, err)
		return transportError(err)
	}

	status := resp.StatusCode()
	respBody := append([]byte(nil), resp.Body()...)
	c.log.Debug("POST %s -> %d in %v", path, status, time.Since(start))

	if status < 200 || status > 299 {
		return responseError(status, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return transportError(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
