// Package pointer stores the location of the most recent graph snapshot so
// the query tools can find it without being told.
//
// The pointer is a small TOML file (default .wikigraph.toml in the working
// directory):
//
//	graph_file = "wiki.json"
package pointer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the pointer file used when none is given.
const DefaultPath = ".wikigraph.toml"

// ErrNotFound is returned when the pointer file does not exist or names no
// snapshot.
var ErrNotFound = errors.New("graph pointer not found")

type record struct {
	GraphFile string `toml:"graph_file"`
}

// Save records snapshotPath in the pointer file at path.
func Save(path, snapshotPath string) error {
	if path == "" {
		return errors.New("pointer file path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create pointer directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open pointer file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(record{GraphFile: snapshotPath}); err != nil {
		_ = f.Close()
		return fmt.Errorf("write pointer file: %w", err)
	}
	return f.Close()
}

// Load returns the snapshot path recorded at path. Relative snapshot paths
// are resolved against the pointer file's directory.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read pointer file %q: %w", path, err)
	}
	var r record
	if _, err := toml.Decode(string(data), &r); err != nil {
		return "", fmt.Errorf("parse pointer file %q: %w", path, err)
	}
	if r.GraphFile == "" {
		return "", ErrNotFound
	}
	if filepath.IsAbs(r.GraphFile) {
		return r.GraphFile, nil
	}
	return filepath.Join(filepath.Dir(path), r.GraphFile), nil
}

// Resolve loads the pointer at path and checks that the snapshot it names
// exists.
func Resolve(path string) (string, error) {
	snapshotPath, err := Load(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(snapshotPath)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, snapshotPath)
	}
	return snapshotPath, nil
}
