// go_ytpulse serves a daily YouTube keyword dashboard over MCP.
//
// Exposes two MCP tools: youtube_today (search, enrich, estimate revenue)
// and youtube_history (earlier runs). Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/dashboard"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/history"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/sources"
	"github.com/anatolykoptev/go_ytpulse/internal/jobserver"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "go.uber.org/automaxprocs"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	mcpPort := env.Str("MCP_PORT", "8891")

	cfg := initEngine()

	slog.Info("starting go_ytpulse",
		slog.String("port", mcpPort),
		slog.String("keyword", cfg.SearchKeyword),
		slog.Bool("api_key", cfg.YouTubeAPIKey != ""),
	)

	store, err := history.Open(context.Background(), cfg)
	if err != nil {
		slog.Warn("history init failed, running without history", slog.Any("error", err))
	}
	if store != nil {
		defer store.Close()
	}

	model := dashboard.DefaultRevenueModel()
	model.Scale = cfg.RPMScale
	if err := model.Validate(); err != nil {
		slog.Error("invalid RPM_SCALE", slog.Any("error", err))
		os.Exit(1)
	}
	client := sources.NewClientFromConfig(cfg)
	pipeline := dashboard.NewPipeline(client, model, nil)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_ytpulse",
		Version: version,
	}, nil)

	jobserver.RegisterTools(server, jobserver.Deps{
		Pipeline: pipeline,
		History:  store,
		Config:   cfg,
	})
	slog.Info("tools registered", slog.Int("count", 2), slog.Bool("history", store != nil))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_ytpulse",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

// initEngine layers defaults, the optional YAML file and the environment,
// then initializes logging, the engine and the cache.
func initEngine() engine.Config {
	c, err := engine.LoadConfigFile(engine.DefaultConfig(), env.Str("YTPULSE_CONFIG", ""))
	if err != nil {
		slog.Warn("config file ignored", slog.Any("error", err))
		c = engine.DefaultConfig()
	}
	c = configFromEnv(c)

	slog.SetDefault(engine.NewLogger(os.Stderr, c.LogLevel))

	c.HTTPClient = &http.Client{
		Timeout: c.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}
	engine.Init(c)
	engine.InitCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
	return *engine.Cfg
}

// configFromEnv overrides c with any variables set in the environment.
func configFromEnv(c engine.Config) engine.Config {
	c.YouTubeAPIKey = env.Str("YOUTUBE_API_KEY", c.YouTubeAPIKey)
	c.YouTubeAPIBase = env.Str("YOUTUBE_API_BASE", c.YouTubeAPIBase)
	c.SearchKeyword = env.Str("SEARCH_KEYWORD", c.SearchKeyword)
	c.SearchOrder = env.Str("SEARCH_ORDER", c.SearchOrder)
	c.MaxPages = env.Int("MAX_PAGES", c.MaxPages)
	c.RequestTimeout = env.Duration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.RetryAttempts = env.Int("RETRY_ATTEMPTS", c.RetryAttempts)
	c.RetryBackoff = env.Duration("RETRY_BACKOFF", c.RetryBackoff)
	c.RequestInterval = env.Duration("REQUEST_INTERVAL", c.RequestInterval)
	c.BatchConcurrency = env.Int("BATCH_CONCURRENCY", c.BatchConcurrency)
	c.RPMScale = env.Float("RPM_SCALE", c.RPMScale)
	c.CacheTTL = env.Duration("CACHE_TTL", c.CacheTTL)
	c.CacheMaxEntries = env.Int("CACHE_MAX_ENTRIES", c.CacheMaxEntries)
	c.CacheCleanupInterval = env.Duration("CACHE_CLEANUP_INTERVAL", c.CacheCleanupInterval)
	c.RedisURL = env.Str("REDIS_URL", c.RedisURL)
	c.HistoryPath = env.Str("HISTORY_PATH", c.HistoryPath)
	c.DatabaseURL = env.Str("DATABASE_URL", c.DatabaseURL)
	c.LogLevel = env.Str("LOG_LEVEL", c.LogLevel)
	return c
}
