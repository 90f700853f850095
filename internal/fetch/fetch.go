// Package fetch retrieves article pages and turns them into outbound link
// lists for the graph builder.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/latebit/wikigraph/internal/cache"
	"github.com/latebit/wikigraph/internal/links"
	"github.com/latebit/wikigraph/internal/metrics"
	"github.com/quic-go/quic-go/http3"
)

// DefaultBaseURL is the article URL prefix titles are appended to.
const DefaultBaseURL = "https://en.wikipedia.org/wiki/"

// DefaultUserAgent identifies the crawler to the upstream server.
const DefaultUserAgent = "wikigraph/0.1 (+https://github.com/latebit/wikigraph)"

// maxPageSize bounds how much of a response body is read.
const maxPageSize = 16 << 20

// Options configures client behavior.
type Options struct {
	BaseURL        string
	UserAgent      string
	Cache          *cache.Cache
	HTTP3          bool // use an HTTP/3 (QUIC) transport
	Insecure       bool
	RequestTimeout time.Duration
	Metrics        *metrics.Metrics
	Logger         *slog.Logger

	// HTTPClient overrides the transport entirely. HTTP3 and Insecure are
	// ignored when it is set.
	HTTPClient *http.Client
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(o.BaseURL, "/") {
		o.BaseURL += "/"
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 15 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Client fetches article pages over HTTP and implements graph.LinkSource.
type Client struct {
	opts   Options
	http   *http.Client
	closer io.Closer
}

// NewClient creates a new client with the given options.
func NewClient(opts Options) *Client {
	opts.applyDefaults()
	c := &Client{opts: opts, http: opts.HTTPClient}
	if c.http != nil {
		return c
	}

	tlsConf := &tls.Config{InsecureSkipVerify: opts.Insecure}
	if opts.HTTP3 {
		rt := &http3.Transport{TLSClientConfig: tlsConf}
		c.closer = rt
		c.http = &http.Client{Transport: rt, Timeout: opts.RequestTimeout}
		return c
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = tlsConf
	c.http = &http.Client{Transport: tr, Timeout: opts.RequestTimeout}
	return c
}

// Close releases transport resources.
func (c *Client) Close() {
	if c.closer != nil {
		_ = c.closer.Close()
	}
	c.http.CloseIdleConnections()
}

// PageURL returns the address of the article with the given title. Each
// path segment of the title is percent-encoded; slashes are kept.
func (c *Client) PageURL(title string) string {
	segments := strings.Split(title, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.opts.BaseURL + strings.Join(segments, "/")
}

// FetchLinks implements graph.LinkSource. Every failure is logged as a
// warning and yields no links.
func (c *Client) FetchLinks(ctx context.Context, title string) []string {
	page, err := c.Fetch(ctx, title)
	if err != nil {
		c.opts.Logger.Warn("fetch failed", "title", title, "error", err)
		return nil
	}
	if page.Status != http.StatusOK {
		c.opts.Logger.Warn("article does not exist", "title", title, "status", page.Status)
		return nil
	}
	found, err := links.ExtractArticle(strings.NewReader(page.Body))
	if err != nil {
		c.opts.Logger.Warn("parse failed", "title", title, "error", err)
		return nil
	}
	return found
}

// Fetch retrieves the page for title. Non-200 statuses are returned in the
// page, not as errors. Successful pages are cached and revalidated.
func (c *Client) Fetch(ctx context.Context, title string) (cache.Page, error) {
	pageURL := c.PageURL(title)
	start := time.Now()

	var cached *cache.Entry
	if c.opts.Cache != nil {
		var err error
		cached, err = c.opts.Cache.Get(pageURL)
		if err != nil {
			c.opts.Logger.Warn("cache read", "url", pageURL, "error", err)
		}
	}

	page, err := c.doWithRetry(ctx, func() (cache.Page, error) {
		return c.get(ctx, pageURL, cached)
	})
	if err != nil {
		c.opts.Metrics.ObserveFetch(metrics.ResultError, time.Since(start))
		return cache.Page{}, err
	}

	if page.Status == http.StatusNotModified && cached != nil && cached.Page.Status == http.StatusOK {
		c.opts.Metrics.ObserveFetch(metrics.ResultCached, time.Since(start))
		c.opts.Logger.Debug("served from cache", "url", pageURL)
		return cached.Page, nil
	}

	if page.Status == http.StatusOK {
		c.opts.Metrics.ObserveFetch(metrics.ResultOK, time.Since(start))
		c.opts.Logger.Info("fetched", "url", pageURL)
		if c.opts.Cache != nil {
			if err := c.opts.Cache.Put(pageURL, page); err != nil {
				c.opts.Logger.Warn("cache write", "url", pageURL, "error", err)
			}
		}
	} else {
		c.opts.Metrics.ObserveFetch(metrics.ResultNotFound, time.Since(start))
	}
	return page, nil
}

// get performs one conditional GET.
func (c *Client) get(ctx context.Context, pageURL string, cached *cache.Entry) (cache.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return cache.Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if cached != nil {
		if cached.Page.ETag != "" {
			req.Header.Set("If-None-Match", cached.Page.ETag)
		}
		if cached.Page.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.Page.LastModified)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return cache.Page{}, fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if isRetryableStatus(resp.StatusCode) {
		return cache.Page{}, &statusError{code: resp.StatusCode}
	}

	page := cache.Page{
		Status:       resp.StatusCode,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
		if err != nil {
			return cache.Page{}, fmt.Errorf("read body: %w", err)
		}
		page.Body = string(body)
	}
	return page, nil
}

// doWithRetry retries transient failures up to 3 times with exponential backoff + jitter.
func (c *Client) doWithRetry(ctx context.Context, fn func() (cache.Page, error)) (cache.Page, error) {
	const maxRetries = 3
	const baseBackoff = 100 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		page, err := fn()
		if err == nil {
			return page, nil
		}

		lastErr = err
		if attempt < maxRetries-1 && isTransientError(err) {
			backoff := baseBackoff * time.Duration(1<<uint(attempt))
			jitter := time.Duration(rand.Int63n(int64(backoff / 2)))
			select {
			case <-ctx.Done():
				return cache.Page{}, ctx.Err()
			case <-time.After(backoff + jitter):
			}
			continue
		}

		return cache.Page{}, err
	}

	return cache.Page{}, lastErr
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.code)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return true
	}
	if isTimeoutError(err) {
		return true
	}
	errStr := err.Error()
	switch {
	case strings.HasSuffix(errStr, "EOF"):
		return true
	case strings.Contains(errStr, "no recent network activity"):
		return true
	case strings.Contains(errStr, "connection refused"):
		return true
	case strings.Contains(errStr, "connection reset"):
		return true
	}
	return false
}

func isTimeoutError(err error) bool {
	type timeoutError interface {
		Timeout() bool
	}
	var te timeoutError
	return errors.As(err, &te) && te.Timeout()
}
