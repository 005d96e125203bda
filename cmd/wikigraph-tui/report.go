package main

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/ebonicra/WikiGraphExplorer/internal/app"
	"github.com/ebonicra/WikiGraphExplorer/internal/snapshot"
)

// summary describes a finished crawl for the report.
type summary struct {
	start     string
	records   []snapshot.Record
	levels    int
	cancelled bool
	truncated bool
	outcome   app.Outcome
	saveErr   error
	output    string
	neo4jErr  error
	neo4j     bool
}

// titleCount is a title with how many crawled articles link to it.
type titleCount struct {
	title string
	count int
}

// topReferenced returns the n titles most often referenced by records,
// ties broken alphabetically.
func topReferenced(records []snapshot.Record, n int) []titleCount {
	counts := make(map[string]int)
	for _, rec := range records {
		for _, ref := range rec.References {
			counts[ref]++
		}
	}
	out := make([]titleCount, 0, len(counts))
	for title, count := range counts {
		out = append(out, titleCount{title: title, count: count})
	}
	slices.SortFunc(out, func(a, b titleCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.title, b.title)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// buildReport renders s as markdown.
func buildReport(s summary) string {
	var b strings.Builder
	b.WriteString("# Crawl finished\n\n")
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Start page | %s |\n", s.start)
	fmt.Fprintf(&b, "| Articles | %d |\n", len(s.records))
	fmt.Fprintf(&b, "| Levels | %d |\n", s.levels)
	fmt.Fprintf(&b, "| Stopped by user | %s |\n", yesNo(s.cancelled))
	fmt.Fprintf(&b, "| Article cap reached | %s |\n", yesNo(s.truncated))
	b.WriteString("\n")

	switch {
	case s.outcome != app.Saved:
		fmt.Fprintf(&b, "> %s\n\n", s.outcome.Message())
	case s.saveErr != nil:
		fmt.Fprintf(&b, "**Could not save the graph:** %v\n\n", s.saveErr)
	default:
		fmt.Fprintf(&b, "Graph saved to `%s`.\n\n", s.output)
	}

	if s.neo4j {
		if s.neo4jErr != nil {
			fmt.Fprintf(&b, "**Neo4j load failed:** %v\n\n", s.neo4jErr)
		} else {
			b.WriteString("Links loaded into Neo4j.\n\n")
		}
	}

	if top := topReferenced(s.records, 10); len(top) > 0 {
		b.WriteString("## Most referenced\n\n")
		for i, tc := range top {
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, tc.title, tc.count)
		}
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func renderMarkdown(body string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}
