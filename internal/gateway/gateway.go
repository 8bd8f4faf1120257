// Package gateway is the single path every call to the remote admissions
// service takes.  A Client runs each request through an ordered chain of
// interceptors: the bearer interceptor attaches the session token and the
// expiry interceptor clears the session and redirects to login on a 401.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxBody caps how much of a response body is read.
const maxBody = 10 << 20

// Config configures the shared transport.
type Config struct {
	BaseURL    string        // remote API root, e.g. https://portal.example/api
	Timeout    time.Duration // one timeout for every call
	RatePerSec float64       // client-side throttle, 0 disables
	Burst      int
}

// Transport is the process-wide part of the gateway: base URL, HTTP client
// and throttle.  Per-session Clients share it.
type Transport struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
}

// NewTransport validates cfg and builds the shared transport.
func NewTransport(cfg Config) (*Transport, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("gateway: invalid base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	t := &Transport{base: base, http: &http.Client{Timeout: timeout}}
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return t, nil
}

// BaseURL returns the remote API root without a trailing slash.
func (t *Transport) BaseURL() string { return t.base.String() }

// Client builds a Client running the given interceptors in order.
func (t *Transport) Client(chain ...Interceptor) *Client {
	return &Client{t: t, chain: chain}
}

// Client performs requests against the remote service.
type Client struct {
	t     *Transport
	chain []Interceptor
}

// Interceptor is one stage of the request pipeline.  Before runs in chain
// order before the request is sent; After runs in reverse order once a
// response arrives.  An error from either aborts the call.
type Interceptor interface {
	Before(req *http.Request) error
	After(req *http.Request, resp *http.Response) error
}

// Request describes one call.
type Request struct {
	Method      string
	Path        string // relative to the base URL, e.g. "/posts/"
	Query       url.Values
	Body        io.Reader
	ContentType string
}

func (t *Transport) resolve(path string, q url.Values) string {
	u := *t.base
	u.Path = t.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Do sends r and decodes a 2xx JSON body into out (when out is non-nil).
// Non-2xx responses return *APIError; transport failures wrap ErrNetwork.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	if c.t.limiter != nil {
		if err := c.t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrNetwork, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, c.t.resolve(r.Path, r.Query), r.Body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	for _, ic := range c.chain {
		if err := ic.Before(req); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := c.t.http.Do(req)
	if err != nil {
		log.Printf("[gateway] %s %s error: %v", r.Method, r.Path, err)
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}
	log.Printf("[gateway] %s %s status=%d duration=%dms", r.Method, r.Path, resp.StatusCode, time.Since(start).Milliseconds())

	for i := len(c.chain) - 1; i >= 0; i-- {
		if err := c.chain[i].After(req, resp); err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.Method, r.Path, err)
	}
	return nil
}

// Get issues a GET and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string, q url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q}, out)
}

// SendJSON issues method with in encoded as the JSON body.
func (c *Client) SendJSON(ctx context.Context, method, path string, in, out any) error {
	bs, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	return c.Do(ctx, Request{Method: method, Path: path, Body: bytes.NewReader(bs), ContentType: "application/json"}, out)
}
