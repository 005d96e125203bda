package config

import (
	"errors"
	"testing"
	"time"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("WIKIGRAPH_CACHE_DIR", "/tmp/wikigraph-cache")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("base url: got %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("workers: got %d, want %d", cfg.Workers, DefaultWorkers)
	}
	if cfg.CacheDir != "/tmp/wikigraph-cache" {
		t.Errorf("cache dir: got %q, want %q", cfg.CacheDir, "/tmp/wikigraph-cache")
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("timeout: got %v, want %v", cfg.Timeout, 15*time.Second)
	}
	if cfg.Neo4jDatabase != "neo4j" {
		t.Errorf("neo4j database: got %q, want %q", cfg.Neo4jDatabase, "neo4j")
	}
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("WIKIGRAPH_BASE_URL", "https://de.wikipedia.org/wiki/")
	t.Setenv("WIKIGRAPH_WORKERS", "12")
	t.Setenv("WIKIGRAPH_RATE", "2.5")
	t.Setenv("WIKIGRAPH_LOG_FORMAT", "json")
	t.Setenv("NEO4J_URI", "neo4j://localhost:7687")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL != "https://de.wikipedia.org/wiki/" {
		t.Errorf("base url: got %q", cfg.BaseURL)
	}
	if cfg.Workers != 12 {
		t.Errorf("workers: got %d, want %d", cfg.Workers, 12)
	}
	if cfg.Rate != 2.5 {
		t.Errorf("rate: got %v, want %v", cfg.Rate, 2.5)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("log format: got %q, want %q", cfg.LogFormat, "json")
	}
	if !cfg.Neo4jEnabled() {
		t.Error("neo4j should be enabled when NEO4J_URI is set")
	}
}

func TestNewConfig_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("WIKIGRAPH_WORKERS", "many")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("workers: got %d, want %d", cfg.Workers, DefaultWorkers)
	}
}

func TestNewConfig_NonPositiveWorkers(t *testing.T) {
	t.Setenv("WIKIGRAPH_WORKERS", "0")

	cfg, err := NewConfig()
	if err == nil {
		t.Fatal("expected error for zero workers")
	}
	if cfg == nil {
		t.Fatal("expected config with defaults even on error")
	}
}

func TestCrawlLimits(t *testing.T) {
	tests := []struct {
		name         string
		depth, max   int
		workers      int
		wantDepth    int
		wantNodes    int
		wantSentinel error
	}{
		{name: "defaults", depth: 3, max: 1000, workers: 6, wantDepth: 4, wantNodes: 993},
		{name: "depth one", depth: 1, max: 100, workers: 6, wantDepth: 2, wantNodes: 93},
		{name: "smallest cap", depth: 1, max: 8, workers: 6, wantDepth: 2, wantNodes: 1},
		{name: "zero depth", depth: 0, max: 1000, workers: 6, wantSentinel: ErrInvalidDepth},
		{name: "negative depth", depth: -2, max: 1000, workers: 6, wantSentinel: ErrInvalidDepth},
		{name: "cap equals workers plus one", depth: 2, max: 7, workers: 6, wantSentinel: ErrNodeCapTooSmall},
		{name: "cap below workers", depth: 2, max: 3, workers: 6, wantSentinel: ErrNodeCapTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxDepth, maxNodes, err := CrawlLimits(tt.depth, tt.max, tt.workers)
			if tt.wantSentinel != nil {
				if !errors.Is(err, tt.wantSentinel) {
					t.Fatalf("err = %v, want %v", err, tt.wantSentinel)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if maxDepth != tt.wantDepth {
				t.Errorf("maxDepth = %d, want %d", maxDepth, tt.wantDepth)
			}
			if maxNodes != tt.wantNodes {
				t.Errorf("maxNodes = %d, want %d", maxNodes, tt.wantNodes)
			}
		})
	}
}
