// Package cache provides local file-based caching for fetched article pages.
//
// Each page is stored as a raw body file next to a TOML ".meta" sidecar that
// records the validators needed for conditional requests:
//
//	cache/
//	  en.wikipedia.org/
//	    %2Fwiki%2FWelsh_Corgi        <- HTML body
//	    %2Fwiki%2FWelsh_Corgi.meta   <- url, status, etag, last_modified, cached_at
package cache

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Cache stores fetched pages on the local filesystem.
type Cache struct {
	Dir string
}

// Page is a cached response body plus its HTTP validators.
type Page struct {
	Status       int
	ETag         string
	LastModified string
	Body         []byte
}

// Entry is a cached page with the time it was stored.
type Entry struct {
	Page     Page
	CachedAt time.Time
}

// meta is the TOML-serializable cache metadata.
type meta struct {
	URL          string    `toml:"url"`
	Status       int       `toml:"status"`
	ETag         string    `toml:"etag"`
	LastModified string    `toml:"last_modified"`
	CachedAt     time.Time `toml:"cached_at"`
}

// New creates a cache rooted at the given directory.
func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// Put writes a page fetched from rawURL to the cache.
func (c *Cache) Put(rawURL string, page Page) error {
	filePath := c.filePath(rawURL)
	metaPath := filePath + ".meta"

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(filePath, page.Body, 0o644); err != nil {
		return err
	}

	m := meta{
		URL:          rawURL,
		Status:       page.Status,
		ETag:         page.ETag,
		LastModified: page.LastModified,
		CachedAt:     time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return err
	}
	return os.WriteFile(metaPath, buf.Bytes(), 0o644)
}

// Get reads a cached page. Returns nil if the page is not cached or its
// metadata is unreadable.
func (c *Cache) Get(rawURL string) (*Entry, error) {
	filePath := c.filePath(rawURL)
	metaPath := filePath + ".meta"

	body, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var m meta
	if _, err := toml.DecodeFile(metaPath, &m); err != nil {
		return nil, nil
	}
	if m.URL != rawURL {
		return nil, nil
	}

	return &Entry{
		Page: Page{
			Status:       m.Status,
			ETag:         m.ETag,
			LastModified: m.LastModified,
			Body:         body,
		},
		CachedAt: m.CachedAt,
	}, nil
}

// filePath returns the cache file path for rawURL. The request path and
// query are escaped into a single file name so titles containing "/" cannot
// collide with directories.
func (c *Cache) filePath(rawURL string) string {
	host := "_"
	key := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
		key = u.EscapedPath()
		if u.RawQuery != "" {
			key += "?" + u.RawQuery
		}
	}

	safeHost := strings.ReplaceAll(host, "..", "_")
	safeHost = strings.ReplaceAll(safeHost, string(filepath.Separator), "_")

	name := url.PathEscape(key)
	if name == "" || name == "." || name == ".." {
		name = ".index"
	}
	return filepath.Join(c.Dir, safeHost, name)
}
