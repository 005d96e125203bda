package wiki

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ebonicra/WikiGraphExplorer/internal/links"
)

// Fetcher abstracts the ability to fetch a rendered article by title.
type Fetcher interface {
	Fetch(ctx context.Context, title string) (Result, error)
}

// Source adapts a Fetcher to the crawler's link source contract.
type Source struct {
	Fetcher Fetcher
}

// NewSource returns a Source backed by fetcher.
func NewSource(fetcher Fetcher) *Source {
	return &Source{Fetcher: fetcher}
}

// ExtractLinks fetches title and returns the article links found in its main
// content. Missing and empty articles report exists=false without an error.
func (s *Source) ExtractLinks(ctx context.Context, title string) (bool, []string, error) {
	result, err := s.Fetcher.Fetch(ctx, title)
	if errors.Is(err, ErrNotExist) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}

	page, err := links.Extract(bytes.NewReader(result.Body))
	if err != nil {
		return false, nil, fmt.Errorf("parse %s: %w", title, err)
	}
	return page.Exists, page.Links, nil
}
