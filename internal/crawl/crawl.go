// Package crawl discovers the article link graph around a seed title, one
// depth level at a time, under a soft cap on the number of articles.
package crawl

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ebonicra/WikiGraphExplorer/internal/logging"
	"github.com/ebonicra/WikiGraphExplorer/internal/snapshot"
)

// DefaultWorkers is the per-level fetch pool size.
const DefaultWorkers = 6

// LinkSource returns the distinct article titles linked from a page.
// exists is false for missing or empty pages.
type LinkSource interface {
	ExtractLinks(ctx context.Context, title string) (exists bool, links []string, err error)
}

// LinkSourceFunc adapts a function to the LinkSource interface.
type LinkSourceFunc func(ctx context.Context, title string) (bool, []string, error)

// ExtractLinks implements LinkSource.
func (f LinkSourceFunc) ExtractLinks(ctx context.Context, title string) (bool, []string, error) {
	return f(ctx, title)
}

// Options configures the crawler.
type Options struct {
	Workers int // concurrent fetches per level (default: 6)

	// OnRecord is called after each article is processed with the running
	// article count. It may be called from several goroutines at once.
	OnRecord func(count int, rec snapshot.Record)
	// OnLevel is called before each depth level starts.
	OnLevel func(depth, frontier int)

	Logger *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
}

// Crawler owns the discovered and processed title sets and the two frontier
// lists. All of them are guarded by mu.
type Crawler struct {
	source LinkSource
	opts   Options

	mu         sync.Mutex
	discovered map[string]struct{}
	processed  map[string]struct{}
	records    []snapshot.Record
	current    []string
	next       []string
	cancelled  bool
	truncated  bool
}

// New creates a crawler that starts from seed.
func New(seed string, source LinkSource, opts Options) *Crawler {
	opts.applyDefaults()
	return &Crawler{
		source:     source,
		opts:       opts,
		discovered: map[string]struct{}{seed: {}},
		processed:  make(map[string]struct{}),
		current:    []string{seed},
	}
}

// Run crawls at most maxDepth levels: level 0 fetches the seed, level 1 its
// references, and so on. It stops early when ctx is cancelled, when the
// frontier runs dry, or once more than maxNodes articles are processed.
// Fetches already in flight when a stop condition fires are allowed to
// finish, so the final count may exceed maxNodes by up to the worker count.
func (c *Crawler) Run(ctx context.Context, maxDepth, maxNodes int) []snapshot.Record {
	for depth := range maxDepth {
		if ctx.Err() != nil {
			c.markCancelled()
			break
		}

		frontier := c.frontier()
		c.opts.Logger.Info("crawl level", "depth", depth, "frontier", len(frontier))
		if c.opts.OnLevel != nil {
			c.opts.OnLevel(depth, len(frontier))
		}

		c.runLevel(ctx, frontier, maxNodes)
		c.swapFrontier()

		if ctx.Err() != nil {
			c.markCancelled()
		}
		if c.Cancelled() || c.Truncated() || c.Count() == 0 || len(c.frontier()) == 0 {
			break
		}
	}
	return c.Records()
}

// runLevel fetches every title of one frontier through a bounded pool and
// returns once all started fetches are done. Tasks not yet started when the
// level is stopped are skipped.
func (c *Crawler) runLevel(ctx context.Context, frontier []string, maxNodes int) {
	levelCtx, stop := context.WithCancel(ctx)
	defer stop()

	// In-flight fetches are not interrupted by a stop.
	fetchCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for _, title := range frontier {
		if levelCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if levelCtx.Err() != nil {
				return nil
			}
			if c.process(fetchCtx, title) > maxNodes {
				c.markTruncated()
				stop()
			}
			return nil
		})
	}
	_ = g.Wait()
}

// process fetches one title and records it. It returns the article count
// after the attempt.
func (c *Crawler) process(ctx context.Context, title string) int {
	c.mu.Lock()
	_, done := c.processed[title]
	count := len(c.processed)
	c.mu.Unlock()
	if done {
		return count
	}

	exists, links, err := c.source.ExtractLinks(ctx, title)
	if err != nil {
		c.opts.Logger.Warn("fetch failed", "title", title, "err", err)
		return c.Count()
	}
	if !exists {
		c.opts.Logger.Debug("article missing", "title", title)
		return c.Count()
	}

	c.mu.Lock()
	if _, done := c.processed[title]; done {
		count := len(c.processed)
		c.mu.Unlock()
		return count
	}
	rec := snapshot.Record{Title: title, References: make([]string, 0, len(links))}
	seen := make(map[string]struct{}, len(links))
	for _, ref := range links {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		rec.References = append(rec.References, ref)
		if _, known := c.discovered[ref]; !known {
			c.discovered[ref] = struct{}{}
			c.next = append(c.next, ref)
		}
	}
	c.processed[title] = struct{}{}
	c.records = append(c.records, rec)
	count = len(c.processed)
	c.mu.Unlock()

	c.opts.Logger.Info("parsed article", "count", count, "title", title)
	if c.opts.OnRecord != nil {
		c.opts.OnRecord(count, rec)
	}
	return count
}

func (c *Crawler) frontier() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Crawler) swapFrontier() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current, c.next = c.next, nil
}

func (c *Crawler) markCancelled() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
}

func (c *Crawler) markTruncated() {
	c.mu.Lock()
	c.truncated = true
	c.mu.Unlock()
}

// Count returns the number of processed articles.
func (c *Crawler) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.processed)
}

// Cancelled reports whether the crawl stopped because its context was
// cancelled.
func (c *Crawler) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Truncated reports whether the crawl stopped because the node cap was
// exceeded.
func (c *Crawler) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}

// Records returns a copy of the node records in processing order.
func (c *Crawler) Records() []snapshot.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]snapshot.Record, len(c.records))
	copy(out, c.records)
	return out
}
