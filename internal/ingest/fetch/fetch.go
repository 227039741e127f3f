// Package fetch retrieves rendered review pages. Review platforms build
// their listings client-side, so pages go through a headless render service
// when one is configured; plain HTTP is the fallback.
package fetch

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

	"golang.org/x/time/rate"
)

// ErrTooManyRedirects indicates too many HTTP redirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// ErrHTTPStatusNotOK indicates an HTTP response with a non-200 status code.
var ErrHTTPStatusNotOK = errors.New("HTTP status not OK")

const (
	defaultFetchTimeoutSeconds = 25
	globalLimiterBurst         = 5
	maxBodySizeMB              = 5
	maxBodySizeBytes           = maxBodySizeMB * 1024 * 1024
	domainLimiterRate          = 1
	domainLimiterBurst         = 2
	maxRedirects               = 5

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Options configures the page fetcher.
type Options struct {
	// RenderServiceURL is the base URL of the headless render service.
	// Empty disables rendering; pages are fetched directly.
	RenderServiceURL string
	// RenderServiceToken authenticates against the render service.
	RenderServiceToken string
	// Timeout bounds one fetch, including the render wait.
	Timeout time.Duration
	// RPS is the global request rate across all domains.
	RPS float64
}

// Client fetches pages with a global rate limit plus one limiter per domain,
// so a multi-platform job cannot hammer a single site.
type Client struct {
	opts           Options
	client         *http.Client
	globalLimiter  *rate.Limiter
	domainLimiters map[string]*rate.Limiter
	mu             sync.RWMutex
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeoutSeconds * time.Second
	}

	if opts.RPS <= 0 {
		opts.RPS = 1
	}

	return &Client{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}

				return nil
			},
		},
		globalLimiter:  rate.NewLimiter(rate.Limit(opts.RPS), globalLimiterBurst),
		domainLimiters: make(map[string]*rate.Limiter),
	}
}

// FetchHTML returns the rendered HTML of the given page.
func (c *Client) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	if err := c.globalLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("global rate limiter wait: %w", err)
	}

	domainLimiter := c.getDomainLimiter(extractDomain(pageURL))
	if err := domainLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("domain rate limiter wait: %w", err)
	}

	if c.opts.RenderServiceURL != "" {
		return c.fetchRendered(ctx, pageURL)
	}

	return c.fetchDirect(ctx, pageURL)
}

type renderRequest struct {
	URL                    string `json:"url"`
	Timeout                int64  `json:"timeout"`
	ReturnPartialOnTimeout bool   `json:"returnPartialOnTimeout"`
}

func (c *Client) fetchRendered(ctx context.Context, pageURL string) (string, error) {
	payload, err := json.Marshal(renderRequest{
		URL:                    pageURL,
		Timeout:                c.opts.Timeout.Milliseconds(),
		ReturnPartialOnTimeout: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}

	endpoint := strings.TrimRight(c.opts.RenderServiceURL, "/") + "/api/html"
	if c.opts.RenderServiceToken != "" {
		endpoint += "?token=" + url.QueryEscape(c.opts.RenderServiceToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create render request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute render request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render service: %w: %d", ErrHTTPStatusNotOK, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return "", fmt.Errorf("read render response: %w", err)
	}

	return string(body), nil
}

func (c *Client) fetchDirect(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", ErrHTTPStatusNotOK, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	return string(body), nil
}

func (c *Client) getDomainLimiter(domain string) *rate.Limiter {
	c.mu.RLock()
	limiter, exists := c.domainLimiters[domain]
	c.mu.RUnlock()

	if exists {
		return limiter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double check
	if limiter, exists := c.domainLimiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(domainLimiterRate, domainLimiterBurst)
	c.domainLimiters[domain] = limiter

	return limiter
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}
