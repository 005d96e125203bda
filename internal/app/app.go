// Package app holds the wiring shared by the wikigraph commands: building a
// link source from configuration, judging a finished crawl, persisting it,
// and loading the query graph back.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ebonicra/WikiGraphExplorer/internal/cache"
	"github.com/ebonicra/WikiGraphExplorer/internal/config"
	"github.com/ebonicra/WikiGraphExplorer/internal/graph"
	"github.com/ebonicra/WikiGraphExplorer/internal/neo4jsink"
	"github.com/ebonicra/WikiGraphExplorer/internal/pointer"
	"github.com/ebonicra/WikiGraphExplorer/internal/ratelimit"
	"github.com/ebonicra/WikiGraphExplorer/internal/snapshot"
	"github.com/ebonicra/WikiGraphExplorer/internal/wiki"
)

// User-facing crawl and query messages.
const (
	MsgArticleMissing      = "This article does not exist. Please, choose some other default starting page."
	MsgTooFewInterrupted   = "Not enough articles. Please, try restarting and waiting for a while longer."
	MsgTooFewChooseOther   = "Not enough articles. Please, choose some other default starting page."
	MsgDatabaseNotFound    = "Database not found. Please, run 'wikigraph crawl'"
	MsgTitleNotFound       = "Title not found in database"
	MsgStopHint            = "You can press Ctrl+C to stop the parsing."
	MsgStopHintInteractive = "You can press 'esc' to stop the parsing."
)

// ErrDatabaseNotFound is returned when no usable snapshot is recorded.
var ErrDatabaseNotFound = errors.New("graph snapshot not found")

// Outcome classifies a finished crawl.
type Outcome int

const (
	// Saved means the crawl is large enough to persist.
	Saved Outcome = iota
	// ArticleMissing means the seed produced no record.
	ArticleMissing
	// TooFewInterrupted means the crawl was stopped before MinUsable records.
	TooFewInterrupted
	// TooFew means the reachable graph is smaller than MinUsable.
	TooFew
)

// Judge decides what to do with a crawl of count records.
func Judge(count int, cancelled bool) Outcome {
	switch {
	case count == 0:
		return ArticleMissing
	case count < snapshot.MinUsable && cancelled:
		return TooFewInterrupted
	case count < snapshot.MinUsable:
		return TooFew
	default:
		return Saved
	}
}

// Message returns the text shown for o. Saved has no fixed message.
func (o Outcome) Message() string {
	switch o {
	case ArticleMissing:
		return MsgArticleMissing
	case TooFewInterrupted:
		return MsgTooFewInterrupted
	case TooFew:
		return MsgTooFewChooseOther
	default:
		return ""
	}
}

// NewSource builds the HTTP link source described by cfg. The returned
// function releases the rate limiter.
func NewSource(cfg *config.Config, logger *slog.Logger) (*wiki.Source, func()) {
	limiter := ratelimit.New(cfg.Rate, cfg.Burst)
	opts := wiki.Options{
		BaseURL:   cfg.BaseURL,
		Limiter:   limiter,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	}
	if cfg.CacheDir != "" {
		opts.Cache = cache.New(cfg.CacheDir)
	}
	return wiki.NewSource(wiki.NewClient(opts)), limiter.Stop
}

// Persist writes records to snapshotPath and points pointerPath at it. The
// pointer stores an absolute path so it resolves from any directory.
func Persist(records []snapshot.Record, snapshotPath, pointerPath string) error {
	if err := snapshot.Save(snapshotPath, records); err != nil {
		return err
	}
	abs, err := filepath.Abs(snapshotPath)
	if err != nil {
		return fmt.Errorf("resolve snapshot path: %w", err)
	}
	if err := pointer.Save(pointerPath, abs); err != nil {
		return err
	}
	return nil
}

// LoadGraph resolves pointerPath and builds the query graph from the
// snapshot it names.
func LoadGraph(pointerPath string, directed bool) (*graph.Graph, error) {
	path, err := pointer.Resolve(pointerPath)
	if err != nil {
		if errors.Is(err, pointer.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseNotFound, err)
		}
		return nil, err
	}
	records, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	return graph.Build(records, directed), nil
}

// LoadNeo4j copies records into the Neo4j database configured in cfg.
func LoadNeo4j(ctx context.Context, cfg *config.Config, records []snapshot.Record, logger *slog.Logger) error {
	if !cfg.Neo4jEnabled() {
		return config.ErrNeo4jNotConfigured
	}
	exec, err := neo4jsink.NewNeo4jExecutor(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		return err
	}
	defer func() { _ = exec.Close(context.WithoutCancel(ctx)) }()

	if err := exec.Verify(ctx); err != nil {
		return fmt.Errorf("connect to neo4j: %w", err)
	}
	return neo4jsink.New(exec, logger).Write(ctx, records)
}
