// Package http is the outbound JSON client used for third-party APIs such
// as the transactional mail provider.
//
//	c := http.New(nil)
//	resp, err := c.Post("https://api.resend.com/emails").
//	    Bearer(key).
//	    Body(payload).
//	    Retry(3, 500*time.Millisecond).
//	    Send(ctx)
//
// Transport errors, 429 and 5xx responses are retried with exponential
// backoff. Other statuses are returned to the caller as-is.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/bytekstore/bytek/pkg/logger"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

var defaultTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Client sends Requests over an *http.Client.
type Client struct {
	hc *gohttp.Client
}

// New wraps hc. A nil hc uses a shared pooled transport.
func New(hc *gohttp.Client) *Client {
	if hc == nil {
		hc = &gohttp.Client{Transport: defaultTransport}
	}
	return &Client{hc: hc}
}

// Request is a fluent request builder bound to a Client.
type Request struct {
	c         *Client
	method    string
	url       string
	headers   map[string]string
	body      any
	timeout   time.Duration
	attempts  int
	retryWait time.Duration
}

func (c *Client) Get(url string) *Request  { return c.newRequest(gohttp.MethodGet, url) }
func (c *Client) Post(url string) *Request { return c.newRequest(gohttp.MethodPost, url) }

func (c *Client) newRequest(method, url string) *Request {
	return &Request{
		c:         c,
		method:    method,
		url:       url,
		headers:   map[string]string{"Accept": "application/json"},
		timeout:   15 * time.Second,
		attempts:  1,
		retryWait: 500 * time.Millisecond,
	}
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Body sets the payload. Strings and byte slices are sent raw; anything
// else is encoded as JSON.
func (r *Request) Body(v any) *Request {
	r.body = v
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry sets the total number of attempts and the first backoff, which
// doubles after every failure.
func (r *Request) Retry(attempts int, wait time.Duration) *Request {
	if attempts < 1 {
		attempts = 1
	}
	r.attempts = attempts
	r.retryWait = wait
	return r
}

// Send runs the request. The returned Response may carry a non-2xx status;
// use Throw to turn that into an error.
func (r *Request) Send(ctx context.Context) (*Response, error) {
	payload, contentType, err := r.encode()
	if err != nil {
		return nil, err
	}

	var (
		resp    *Response
		lastErr error
		wait    = r.retryWait
	)
	for attempt := 1; attempt <= r.attempts; attempt++ {
		resp, lastErr = r.do(ctx, payload, contentType)
		if lastErr == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if attempt == r.attempts {
			break
		}

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logger.Warn("http: retrying request", "method", r.method, "url", r.url,
			"attempt", attempt, "status", status, "backoff", wait.String(), "error", lastErr)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}

	if lastErr != nil {
		return nil, fmt.Errorf("http: %s %s: %d attempt(s): %w", r.method, r.url, r.attempts, lastErr)
	}
	return resp, nil
}

func retryable(status int) bool {
	return status == gohttp.StatusTooManyRequests || status >= 500
}

func (r *Request) do(ctx context.Context, payload []byte, contentType string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := r.c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: res.StatusCode, Headers: res.Header, Raw: raw}, nil
}

func (r *Request) encode() ([]byte, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(v), "text/plain; charset=utf-8", nil
	case []byte:
		return v, "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return b, "application/json", nil
	}
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// JSON decodes the body into dest.
func (r *Response) JSON(dest any) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Throw returns an error for a non-2xx status.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("http: status %d: %s", r.StatusCode, r.Raw)
	}
	return nil
}
