// Package fetch implements the Fetcher component of spec.md §4.1: HTTP GET
// with browser-like headers and bounded concurrency, RSS parsing, and a
// small site-specific HTML scraper registry. Fetcher never returns an error
// to the caller for a single source's failure; it returns an empty result
// and a model.SourceStatus the orchestrator records instead.
package fetch

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// userAgent mimics a desktop browser; several upstream sources reject bare
// Go-http-client requests.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Client performs the raw HTTP leg of fetching: GET with headers/timeout and
// a per-host politeness rate limiter.
type Client struct {
	http  *http.Client
	delay time.Duration

	limiters map[string]*rate.Limiter
}

// NewClient builds a fetch client. TLS verification is disabled only on
// this client's transport (upstream news sources are flaky on certs, per
// spec.md §4.1); the LLM and translator clients each use their own,
// verified transport.
func NewClient(timeout, perHostDelay time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // flaky upstream certs, spec.md §4.1
			},
		},
		delay:    perHostDelay,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	if l, ok := c.limiters[host]; ok {
		return l
	}
	interval := c.delay
	if interval <= 0 {
		interval = time.Second
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	c.limiters[host] = l
	return l
}

// Get performs a GET request with browser-like headers, honoring the
// per-host politeness gate, and returns the raw response body.
func (c *Client) Get(ctx context.Context, targetURL string) ([]byte, error) {
	host := hostOf(targetURL)
	if err := c.limiterFor(host).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: targetURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return "fetch: " + e.URL + " returned status " + http.StatusText(e.Code)
}

func hostOf(rawURL string) string {
	rest := rawURL
	if i := strings.Index(rawURL, "://"); i >= 0 {
		rest = rawURL[i+3:]
	}
	if k := strings.IndexAny(rest, "/?#"); k >= 0 {
		rest = rest[:k]
	}
	return rest
}
