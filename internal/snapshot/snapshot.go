// Package snapshot defines the node record captured by a crawl and its
// on-disk JSON form.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MinUsable is the smallest crawl worth persisting.
const MinUsable = 20

// DefaultFile is the snapshot file name used when none is given.
const DefaultFile = "wiki.json"

// Record is one processed article and the titles it links to, in
// first-discovered order without duplicates.
type Record struct {
	Title      string   `json:"title"`
	References []string `json:"references"`
}

// Encode writes records as indented, human-readable UTF-8 JSON. Non-ASCII
// titles are written as-is rather than \u-escaped.
func Encode(records []Record) ([]byte, error) {
	out := make([]Record, len(records))
	for i, r := range records {
		if r.References == nil {
			r.References = []string{}
		}
		out[i] = r
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot produced by Encode.
func Decode(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].References == nil {
			records[i].References = []string{}
		}
	}
	return records, nil
}

// Save writes records to path, creating parent directories as needed.
func Save(path string, records []Record) error {
	data, err := Encode(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %q: %w", path, err)
	}
	return nil
}

// Load reads a snapshot written by Save.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", path, err)
	}
	records, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %q: %w", path, err)
	}
	return records, nil
}
