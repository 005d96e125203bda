// Package wiki fetches rendered article pages over HTTP and turns them into
// link lists for the crawler.
package wiki

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ebonicra/WikiGraphExplorer/internal/cache"
	"github.com/ebonicra/WikiGraphExplorer/internal/config"
	"github.com/ebonicra/WikiGraphExplorer/internal/logging"
	"github.com/ebonicra/WikiGraphExplorer/internal/ratelimit"
)

// ErrNotExist is returned when the wiki has no article for a title.
var ErrNotExist = errors.New("article does not exist")

// maxBodySize bounds how much of a page is read.
const maxBodySize = 16 << 20

// PageURL returns the article URL for title under base. Spaces become
// underscores, the wiki's canonical form.
func PageURL(base, title string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// Result holds a fetched page and how it was served.
type Result struct {
	URL       string
	Status    int
	Body      []byte
	FromCache bool
}

// Options configures client behavior.
type Options struct {
	BaseURL    string
	Cache      *cache.Cache
	Limiter    *ratelimit.Limiter
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger

	// MaxRetries bounds attempts for transient failures (default: 3).
	MaxRetries int
	// Backoff is the base delay between retries (default: 100ms).
	Backoff time.Duration
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = config.DefaultBaseURL
	}
	if o.Timeout == 0 {
		o.Timeout = 15 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = config.DefaultUserAgent
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Backoff == 0 {
		o.Backoff = 100 * time.Millisecond
	}
}

// Client fetches article pages.
type Client struct {
	opts Options
}

// NewClient creates a new client with the given options.
func NewClient(opts Options) *Client {
	opts.applyDefaults()
	return &Client{opts: opts}
}

// Fetch retrieves the rendered page for title. A missing article yields
// ErrNotExist.
func (c *Client) Fetch(ctx context.Context, title string) (Result, error) {
	rawURL := PageURL(c.opts.BaseURL, title)

	var cached *cache.Entry
	if c.opts.Cache != nil {
		cached, _ = c.opts.Cache.Get(rawURL)
	}

	result, err := c.doWithRetry(ctx, rawURL, func() (Result, error) {
		return c.request(ctx, rawURL, cached)
	})
	if err != nil {
		return Result{}, err
	}

	if result.Status == http.StatusNotModified && cached != nil {
		return Result{URL: rawURL, Status: cached.Page.Status, Body: cached.Page.Body, FromCache: true}, nil
	}
	if result.Status == http.StatusNotFound {
		return result, fmt.Errorf("%s: %w", title, ErrNotExist)
	}
	if result.Status != http.StatusOK {
		return result, fmt.Errorf("fetch %s: unexpected status %d", rawURL, result.Status)
	}
	return result, nil
}

// request performs one conditional GET.
func (c *Client) request(ctx context.Context, rawURL string, cached *cache.Entry) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if cached != nil {
		if etag := cached.Page.ETag; etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		if mod := cached.Page.LastModified; mod != "" {
			req.Header.Set("If-Modified-Since", mod)
		}
	}

	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx, ratelimit.HostOf(rawURL)); err != nil {
			return Result{}, fmt.Errorf("throttle: %w", err)
		}
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if isRetryableStatus(resp.StatusCode) {
		return Result{}, &statusError{code: resp.StatusCode, url: rawURL}
	}

	if c.opts.Cache != nil && resp.StatusCode == http.StatusOK {
		page := cache.Page{
			Status:       resp.StatusCode,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			Body:         bytes.Clone(body),
		}
		if err := c.opts.Cache.Put(rawURL, page); err != nil {
			c.opts.Logger.Warn("cache write", "url", rawURL, "err", err)
		}
	}

	return Result{URL: rawURL, Status: resp.StatusCode, Body: body}, nil
}

// doWithRetry retries transient failures with exponential backoff + jitter.
func (c *Client) doWithRetry(ctx context.Context, rawURL string, fn func() (Result, error)) (Result, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == c.opts.MaxRetries-1 || ctx.Err() != nil || !isTransientError(err) {
			break
		}

		backoff := c.opts.Backoff * time.Duration(1<<uint(attempt))
		jitter := time.Duration(rand.Int63n(int64(backoff/2) + 1))
		c.opts.Logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt+1, "err", err)

		timer := time.NewTimer(backoff + jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Result{}, lastErr
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("get %s: status %d", e.url, e.code)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return true
	}
	if isTimeoutError(err) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	errStr := err.Error()
	switch {
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
