package sources

// YouTube Data API v3 client, split by responsibility:
//   youtube.go          client construction and batching helpers
//   youtube_errors.go   error taxonomy and API error body parsing
//   youtube_fetch.go    the single retrying GET used by every endpoint
//   youtube_search.go   search.list over today's UTC window, with paging
//   youtube_videos.go   videos.list statistics enrichment
//   youtube_channels.go channels.list enrichment

import (
	"context"
	"net/http"
	"time"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	ytDataAPIBase = "https://www.googleapis.com/youtube/v3"
	ytPageSize    = 50 // search.list maxResults ceiling
	ytBatchSize   = 50 // ids per videos.list / channels.list call
)

// Client talks to the YouTube Data API. It holds no credential: every call
// takes the API key explicitly. A Client is safe for concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	retry       engine.RetryConfig
	limiter     *rate.Limiter
	maxPages    int
	concurrency int
	now         func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithRetry(rc engine.RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// WithRequestInterval sets the minimum spacing between logical fetches.
// Zero disables throttling.
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = newLimiter(d) }
}

// WithMaxPages caps search pagination. Zero follows cursors until exhausted.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxPages = n
		}
	}
}

// WithConcurrency sets how many enrichment batches may be in flight at once.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithClock overrides time.Now, which decides the "today" search window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a Client with production defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     ytDataAPIBase,
		http:        &http.Client{Timeout: 10 * time.Second},
		retry:       engine.DefaultRetryConfig,
		limiter:     newLimiter(50 * time.Millisecond),
		maxPages:    10,
		concurrency: 1,
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewClientFromConfig builds a Client from the engine configuration.
func NewClientFromConfig(cfg engine.Config, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(cfg.YouTubeAPIBase),
		WithHTTPClient(cfg.HTTPClient),
		WithRetry(engine.RetryConfig{MaxAttempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}),
		WithRequestInterval(cfg.RequestInterval),
		WithMaxPages(cfg.MaxPages),
		WithConcurrency(cfg.BatchConcurrency),
	}
	return NewClient(append(base, opts...)...)
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// chunk splits ids into consecutive slices of at most size elements.
func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// runBatches calls fn for every batch index with at most c.concurrency in flight.
// The first failure cancels the rest and is returned.
func (c *Client) runBatches(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.concurrency))
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
