package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"earnings-transcripts/pkg/failure"
	"earnings-transcripts/pkg/logger"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// BrowserClient uses browser-like headers to avoid 406 (Not Acceptable) errors
	// Used for sites that require browser-like User-Agent and headers
	BrowserClient ClientType = "browser"

	// CloudflareClient uses simple headers (like curl) to avoid 403 (Forbidden) errors
	// Used for Cloudflare-protected sites that block browser-like User-Agents
	CloudflareClient ClientType = "cloudflare"

	// APIClient asks for JSON and identifies itself honestly
	APIClient ClientType = "api"
)

const maxRedirects = 10

var (
	errTooManyRedirects   = errors.New("stopped after 10 redirects")
	errRedirectNotAllowed = errors.New("redirect leaves allowed domains")
	errBodyTooLarge       = errors.New("response body exceeds limit")
)

// Config tunes timeouts, retries and politeness.
type Config struct {
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration
	// Timeout bounds one attempt, including reading the body.
	Timeout time.Duration
	// MaxAttempts is the total attempt budget for retryable failures.
	MaxAttempts int
	// BaseDelay is the first backoff; each further retry doubles it.
	BaseDelay    time.Duration
	MaxBodyBytes int64
	// AllowedDomains may be redirected to in addition to the requested host.
	AllowedDomains []string
	// RequestsPerSecond of 0 disables the limiter.
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns the production fetch settings.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:    10 * time.Second,
		Timeout:           30 * time.Second,
		MaxAttempts:       3,
		BaseDelay:         time.Second,
		MaxBodyBytes:      8 << 20,
		RequestsPerSecond: 2,
		Burst:             2,
	}
}

// FetchResult is the outcome of Fetch. It is returned even when Fetch fails so
// callers can see the last status and attempt count.
type FetchResult struct {
	URL         string // final URL after redirects
	Status      int
	Body        []byte
	ContentType string
	Attempts    int
}

// Text returns the body as a string.
func (r *FetchResult) Text() string {
	return string(r.Body)
}

// IsPDF reports whether the response looks like a PDF document.
func (r *FetchResult) IsPDF() bool {
	if strings.Contains(strings.ToLower(r.ContentType), "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(urlPath(r.URL)), ".pdf")
}

// Fetcher retrieves a URL with retry and timeout semantics.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

var _ Fetcher = (*HTTPClient)(nil)

// HTTPClient wraps an http.Client with configuration
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
	cfg        Config
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new HTTP client with the specified type and default settings
func NewClient(clientType ClientType) *HTTPClient {
	return NewClientWithConfig(clientType, DefaultConfig())
}

// NewClientWithConfig creates a new HTTP client with explicit settings
func NewClientWithConfig(clientType ClientType, cfg Config) *HTTPClient {
	def := DefaultConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout

	c := &HTTPClient{
		clientType: clientType,
		cfg:        cfg,
		sleep:      sleepContext,
	}
	c.client = &http.Client{
		Transport:     transport,
		CheckRedirect: c.checkRedirect,
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return c
}

// SetSleep replaces the backoff sleeper. The sleeper must return ctx.Err()
// when ctx ends first.
func (c *HTTPClient) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	if sleep == nil {
		sleep = sleepContext
	}
	c.sleep = sleep
}

// AllowDomains extends the redirect allow-list. Call it before the client is shared.
func (c *HTTPClient) AllowDomains(domains ...string) {
	c.cfg.AllowedDomains = append(c.cfg.AllowedDomains, domains...)
}

// Do executes an HTTP request with the appropriate headers for the client type.
// It performs a single attempt and applies the redirect policy, nothing else.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)
	return c.client.Do(req)
}

// Fetch GETs rawURL. 403, 429 and network errors are retried with exponential
// backoff up to MaxAttempts; any other non-200 status fails at once as a
// permanent error. Cancelling ctx aborts in-flight requests and backoff sleeps.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	op := "fetch " + rawURL
	result := &FetchResult{URL: rawURL}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.backoff(attempt - 1)
			logger.Log.WithFields(logrus.Fields{
				"url":     rawURL,
				"attempt": attempt,
				"delay":   delay,
			}).Debugf("Fetcher: retrying after %v", lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return result, failure.New(failure.Timeout, op, err)
			}
		}

		result.Attempts = attempt
		err := c.attempt(ctx, rawURL, result)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !failure.IsRetryable(err) {
			return result, err
		}
	}

	return result, lastErr
}

// backoff returns the delay before the given retry (1-based): base, 2*base, 4*base...
func (c *HTTPClient) backoff(retry int) time.Duration {
	return c.cfg.BaseDelay << (retry - 1)
}

func (c *HTTPClient) attempt(ctx context.Context, rawURL string, result *FetchResult) error {
	op := "fetch " + rawURL

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return failure.New(failure.Timeout, op, err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return failure.New(failure.Permanent, op, err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, op, err)
	}
	defer drainAndClose(resp.Body)

	result.Status = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")
	if resp.Request != nil && resp.Request.URL != nil {
		result.URL = resp.Request.URL.String()
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusTooManyRequests:
		return failure.Newf(failure.Transient, op, "unexpected status code: %d", resp.StatusCode)
	default:
		return failure.Newf(failure.Permanent, op, "unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return c.classifyTransportError(ctx, op, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > c.cfg.MaxBodyBytes {
		return failure.New(failure.Permanent, op, errBodyTooLarge)
	}
	result.Body = body
	return nil
}

func (c *HTTPClient) classifyTransportError(ctx context.Context, op string, err error) error {
	switch {
	case ctx.Err() != nil:
		return failure.New(failure.Timeout, op, ctx.Err())
	case errors.Is(err, errRedirectNotAllowed), errors.Is(err, errTooManyRedirects):
		return failure.New(failure.Permanent, op, err)
	default:
		// per-attempt timeouts and connection failures
		return failure.New(failure.Transient, op, err)
	}
}

// checkRedirect follows up to 10 redirects, all of which must stay on the
// original host or an allowed domain.
func (c *HTTPClient) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errTooManyRedirects
	}
	origin := via[0].URL.Hostname()
	target := req.URL.Hostname()
	if sameSite(origin, target) {
		return nil
	}
	for _, d := range c.cfg.AllowedDomains {
		if domainMatches(target, d) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", errRedirectNotAllowed, req.URL.Host)
}

// setHeaders sets the appropriate headers based on client type
func (c *HTTPClient) setHeaders(req *http.Request) {
	switch c.clientType {
	case BrowserClient:
		// Browser-like headers to avoid 406 (Not Acceptable) errors
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Connection", "keep-alive")
		req.Header.Set("Upgrade-Insecure-Requests", "1")

	case CloudflareClient:
		// Cloudflare allows simple tools like curl but blocks browser-like User-Agents
		req.Header.Set("User-Agent", "curl/8.7.1")

	case APIClient:
		req.Header.Set("User-Agent", "earnings-transcripts/1.0")
		req.Header.Set("Accept", "application/json")

	default:
		// Default: use Go's default User-Agent
	}
}

// sameSite treats hosts as equal when one is the other with a "www." prefix
// or a subdomain of it.
func sameSite(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return domainMatches(a, b) || domainMatches(b, a)
}

// domainMatches reports whether host is domain or a subdomain of it.
func domainMatches(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// HostAllowed reports whether rawURL's host is one of domains or a subdomain.
func HostAllowed(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	for _, d := range domains {
		if domainMatches(u.Hostname(), d) {
			return true
		}
	}
	return false
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func drainAndClose(rc io.ReadCloser) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}
