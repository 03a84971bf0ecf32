package engine

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	YouTubeAPIBase       string
	YouTubeAPIKey        string // server default; tools may pass their own key per call
	SearchKeyword        string
	SearchOrder          string // "date" or "viewCount"
	MaxPages             int    // 0 = follow cursors until exhausted
	RequestTimeout       time.Duration
	RetryAttempts        int
	RetryBackoff         time.Duration
	RequestInterval      time.Duration // shared limiter interval, 0 = unlimited
	BatchConcurrency     int
	RPMScale             float64
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	RedisURL             string
	HistoryPath          string // SQLite file, empty = disabled
	DatabaseURL          string // Postgres, takes precedence over HistoryPath
	LogLevel             string
	HTTPClient           *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, dashboard, jobserver).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.RequestTimeout}
	}
	cfg = c
	Cfg = &cfg
}

// DefaultConfig returns the built-in defaults, before file and env overrides.
func DefaultConfig() Config {
	return Config{
		YouTubeAPIBase:       "https://www.googleapis.com/youtube/v3",
		SearchKeyword:        "meditation",
		SearchOrder:          "date",
		MaxPages:             10,
		RequestTimeout:       10 * time.Second,
		RetryAttempts:        3,
		RetryBackoff:         time.Second,
		RequestInterval:      50 * time.Millisecond,
		BatchConcurrency:     1,
		RPMScale:             1.0,
		CacheTTL:             10 * time.Minute,
		CacheMaxEntries:      200,
		CacheCleanupInterval: 5 * time.Minute,
		LogLevel:             "info",
	}
}

// fileConfig mirrors Config for YAML files; zero values mean "not set".
type fileConfig struct {
	YouTube struct {
		APIBase string `yaml:"apiBase"`
		APIKey  string `yaml:"apiKey"`
	} `yaml:"youtube"`
	Search struct {
		Keyword  string `yaml:"keyword"`
		Order    string `yaml:"order"`
		MaxPages *int   `yaml:"maxPages"`
	} `yaml:"search"`
	HTTP struct {
		Timeout          time.Duration  `yaml:"timeout"`
		RetryAttempts    int            `yaml:"retryAttempts"`
		RetryBackoff     time.Duration  `yaml:"retryBackoff"`
		RequestInterval  *time.Duration `yaml:"requestInterval"`
		BatchConcurrency int            `yaml:"batchConcurrency"`
	} `yaml:"http"`
	RPMScale float64 `yaml:"rpmScale"`
	Cache    struct {
		TTL        time.Duration `yaml:"ttl"`
		MaxEntries int           `yaml:"maxEntries"`
		RedisURL   string        `yaml:"redisUrl"`
	} `yaml:"cache"`
	History struct {
		Path        string `yaml:"path"`
		DatabaseURL string `yaml:"databaseUrl"`
	} `yaml:"history"`
	LogLevel string `yaml:"logLevel"`
}

// LoadConfigFile merges a YAML config file over base. An empty path returns base unchanged.
func LoadConfigFile(base Config, path string) (Config, error) {
	if path == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	slog.Debug("config file loaded", slog.String("path", path))
	return mergeFileConfig(base, fc), nil
}

func mergeFileConfig(base Config, fc fileConfig) Config {
	if fc.YouTube.APIBase != "" {
		base.YouTubeAPIBase = fc.YouTube.APIBase
	}
	if fc.YouTube.APIKey != "" {
		base.YouTubeAPIKey = fc.YouTube.APIKey
	}
	if fc.Search.Keyword != "" {
		base.SearchKeyword = fc.Search.Keyword
	}
	if fc.Search.Order != "" {
		base.SearchOrder = fc.Search.Order
	}
	if fc.Search.MaxPages != nil {
		base.MaxPages = *fc.Search.MaxPages
	}
	if fc.HTTP.Timeout > 0 {
		base.RequestTimeout = fc.HTTP.Timeout
	}
	if fc.HTTP.RetryAttempts > 0 {
		base.RetryAttempts = fc.HTTP.RetryAttempts
	}
	if fc.HTTP.RetryBackoff > 0 {
		base.RetryBackoff = fc.HTTP.RetryBackoff
	}
	if fc.HTTP.RequestInterval != nil {
		base.RequestInterval = *fc.HTTP.RequestInterval
	}
	if fc.HTTP.BatchConcurrency > 0 {
		base.BatchConcurrency = fc.HTTP.BatchConcurrency
	}
	if fc.RPMScale > 0 {
		base.RPMScale = fc.RPMScale
	}
	if fc.Cache.TTL > 0 {
		base.CacheTTL = fc.Cache.TTL
	}
	if fc.Cache.MaxEntries > 0 {
		base.CacheMaxEntries = fc.Cache.MaxEntries
	}
	if fc.Cache.RedisURL != "" {
		base.RedisURL = fc.Cache.RedisURL
	}
	if fc.History.Path != "" {
		base.HistoryPath = fc.History.Path
	}
	if fc.History.DatabaseURL != "" {
		base.DatabaseURL = fc.History.DatabaseURL
	}
	if fc.LogLevel != "" {
		base.LogLevel = fc.LogLevel
	}
	return base
}
