// Package config provides environment-based configuration for the wikigraph
// tools and validation of crawl limits.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the article URL prefix titles are appended to.
	DefaultBaseURL = "https://en.wikipedia.org/wiki/"

	// DefaultWorkers is the size of the per-level fetch pool.
	DefaultWorkers = 6

	// DefaultUserAgent identifies the crawler to the wiki.
	DefaultUserAgent = "WikiGraphExplorer/1.0 (+https://github.com/ebonicra/WikiGraphExplorer)"
)

var (
	// ErrInvalidDepth is returned when the requested crawl depth is below 1.
	ErrInvalidDepth = errors.New("the depth value must be greater than 0")

	// ErrNodeCapTooSmall is returned when the node cap leaves no room once the
	// worker pool overshoot is reserved.
	ErrNodeCapTooSmall = errors.New("the maximum number of articles is too small")

	// ErrNeo4jNotConfigured is returned when the Neo4j sink is requested
	// without a connection URI.
	ErrNeo4jNotConfigured = errors.New("NEO4J_URI environment variable is required for the neo4j sink")
)

// Config holds the runtime configuration.
type Config struct {
	BaseURL   string
	Workers   int
	CacheDir  string
	Rate      float64
	Burst     int
	Timeout   time.Duration
	UserAgent string
	LogFormat string
	LogLevel  string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
}

// NewConfig loads configuration from environment variables.
// Crawler settings are prefixed with WIKIGRAPH_, the graph database settings
// use the NEO4J_ prefix.
func NewConfig() (*Config, error) {
	config := &Config{}

	config.BaseURL = getEnv("WIKIGRAPH_BASE_URL", DefaultBaseURL)
	config.Workers = getEnvAsInt("WIKIGRAPH_WORKERS", DefaultWorkers)
	config.CacheDir = getEnv("WIKIGRAPH_CACHE_DIR", DefaultCacheDir())
	config.Rate = getEnvAsFloat("WIKIGRAPH_RATE", 10)
	config.Burst = getEnvAsInt("WIKIGRAPH_BURST", 5)
	config.Timeout = time.Duration(getEnvAsInt("WIKIGRAPH_TIMEOUT", 15)) * time.Second
	config.UserAgent = getEnv("WIKIGRAPH_USER_AGENT", DefaultUserAgent)
	config.LogFormat = getEnv("WIKIGRAPH_LOG_FORMAT", "text")
	config.LogLevel = getEnv("WIKIGRAPH_LOG_LEVEL", "info")

	config.Neo4jURI = getEnv("NEO4J_URI", "")
	config.Neo4jUser = getEnv("NEO4J_USER", "neo4j")
	config.Neo4jPassword = getEnv("NEO4J_PASSWORD", "")
	config.Neo4jDatabase = getEnv("NEO4J_DATABASE", "neo4j")

	if config.Workers <= 0 {
		return config, fmt.Errorf("WIKIGRAPH_WORKERS must be positive, got %d", config.Workers)
	}
	if config.BaseURL == "" {
		return config, errors.New("WIKIGRAPH_BASE_URL must not be empty")
	}

	return config, nil
}

// Neo4jEnabled reports whether a graph database URI is configured.
func (c *Config) Neo4jEnabled() bool {
	return c.Neo4jURI != ""
}

// CrawlLimits converts the user-facing depth and article maximum into the
// crawler's level count and node cap. The crawler runs depth+1 levels, and
// the cap reserves room for one extra article per worker plus the seed so the
// soft-cap overshoot stays within max.
func CrawlLimits(depth, max, workers int) (maxDepth, maxNodes int, err error) {
	maxDepth = depth + 1
	if maxDepth <= 1 {
		return 0, 0, ErrInvalidDepth
	}
	maxNodes = max - workers - 1
	if maxNodes <= 0 {
		return 0, 0, fmt.Errorf("%w: must be greater than %d", ErrNodeCapTooSmall, workers+1)
	}
	return maxDepth, maxNodes, nil
}

// DefaultCacheDir returns ~/.wikigraph/cache, or "" when the home directory
// cannot be determined.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wikigraph", "cache")
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
