package neo4jsink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saulfrancisco-ruizacevedo/gocypher"

	"github.com/ebonicra/WikiGraphExplorer/internal/logging"
	"github.com/ebonicra/WikiGraphExplorer/internal/snapshot"
)

const (
	// TitleLabel is the node label for articles.
	TitleLabel = "Title"
	// RefersTo is the relationship type from an article to a page it links.
	RefersTo = "REFERS_TO"
	// ChunkSize bounds how many references go into one query.
	ChunkSize = 30
)

// Sink writes records through a DBRunner.
type Sink struct {
	runner DBRunner
	logger *slog.Logger
}

// New returns a Sink. A nil logger discards output.
func New(runner DBRunner, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Sink{runner: runner, logger: logger}
}

// Write merges one Title node per record and links it to each reference.
// Nodes and relationships are merged, so loading the same records twice
// leaves the database unchanged.
func (s *Sink) Write(ctx context.Context, records []snapshot.Record) error {
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.mergeTitle(ctx, rec.Title); err != nil {
			return fmt.Errorf("merge %q: %w", rec.Title, err)
		}
		for start := 0; start < len(rec.References); start += ChunkSize {
			end := min(start+ChunkSize, len(rec.References))
			query, params := referencesQuery(rec.Title, rec.References[start:end])
			if _, err := s.runner.Run(ctx, query, params); err != nil {
				return fmt.Errorf("link %q: %w", rec.Title, err)
			}
		}
		s.logger.Debug("loaded title", "title", rec.Title, "references", len(rec.References), "index", i)
	}
	s.logger.Info("neo4j load complete", "titles", len(records))
	return nil
}

func (s *Sink) mergeTitle(ctx context.Context, title string) error {
	query, params, err := gocypher.NewQueryBuilder().
		Merge(gocypher.N("t", TitleLabel).WithProperties(map[string]interface{}{"name": title})).
		Build()
	if err != nil {
		return err
	}
	_, err = s.runner.Run(ctx, query, params)
	return err
}

// referencesQuery builds one statement that merges every reference node in
// refs and a REFERS_TO relationship from title to each.
func referencesQuery(title string, refs []string) (string, map[string]any) {
	params := map[string]any{"title": title}
	var b strings.Builder
	fmt.Fprintf(&b, "MATCH (t:%s {name: $title})", TitleLabel)
	for j, ref := range refs {
		params[fmt.Sprintf("ref_title%d", j)] = ref
		fmt.Fprintf(&b, " MERGE (r%d:%s {name: $ref_title%d})", j, TitleLabel, j)
	}
	for j := range refs {
		fmt.Fprintf(&b, " MERGE (t)-[:%s]->(r%d)", RefersTo, j)
	}
	return b.String(), params
}
