package pointer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)

	if err := Save(path, "wiki.json"); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := filepath.Join(dir, "wiki.json"); got != want {
		t.Errorf("Load() = %q, want %q", got, want)
	}
}

func TestLoadAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)
	abs := filepath.Join(t.TempDir(), "elsewhere.json")

	if err := Save(path, abs); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != abs {
		t.Errorf("Load() = %q, want %q", got, abs)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadEmptyPointer(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, []byte("graph_file = [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want a parse error", err)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)
	if err := Save(path, "wiki.json"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := Resolve(path); !errors.Is(err, ErrNotFound) {
		t.Fatalf("snapshot missing: err = %v, want ErrNotFound", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "wiki.json"), []byte("[]"), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	got, err := Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != filepath.Join(dir, "wiki.json") {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestSaveEmptyPath(t *testing.T) {
	if err := Save("", "wiki.json"); err == nil {
		t.Error("expected error for empty pointer path")
	}
}
