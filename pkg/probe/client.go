// Package probe provides the HTTP transport used by all probe modules.
//
// The client never follows redirects: the target service answers directly
// on every endpoint, and a redirect must be visible to the caller because
// it carries meaning (typically an HTTP->HTTPS upgrade).
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultUserAgent = "esaudit"

// ClientConfig holds transport settings for a probe client.
type ClientConfig struct {
	Timeout   time.Duration     // Per-request timeout
	Proxy     string            // Optional proxy URL (e.g. http://127.0.0.1:8080)
	UserAgent string            // User-Agent header; defaults to "esaudit"
	Cookie    string            // Optional Cookie header value
	Headers   map[string]string // Extra headers sent with every request
	Username  string            // Optional basic-auth user
	Password  string            // Optional basic-auth password
	Insecure  bool              // Skip TLS certificate verification
}

// Client wraps net/http with the request conventions shared by all probes.
type Client struct {
	http      *http.Client
	userAgent string
	cookie    string
	headers   map[string]string
	username  string
	password  string
}

// NewClient builds a probe client from the given configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	transport := &http.Transport{}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
		cookie:    cfg.Cookie,
		headers:   cfg.Headers,
		username:  cfg.Username,
		password:  cfg.Password,
	}, nil
}

// Response is a fully materialized HTTP response snapshot. The body is read
// eagerly so downstream signal extraction operates on immutable data.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// BodyText returns the response body decoded as text.
func (r *Response) BodyText() string {
	return string(r.Body)
}

// Location returns the Location header, or "" if absent.
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

// IsRedirect reports whether the response carries a 3xx status.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// Get issues a GET request and snapshots the response. Transport failures
// (refused connection, timeout) are returned as errors; any HTTP status is
// a successful probe from the transport's point of view.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body from %s: %w", rawURL, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// NormalizeTarget canonicalizes a user-supplied target URL: a missing scheme
// defaults to http:// and the path always ends with a trailing slash so
// endpoint suffixes can be appended directly.
func NormalizeTarget(target string) string {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "http://" + target
	}
	if !strings.HasSuffix(target, "/") {
		target += "/"
	}
	return target
}
