package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	PipelineRuns      atomic.Int64
	PipelineErrors    atomic.Int64
	APIRequests       atomic.Int64
	Retries           atomic.Int64
	QuotaErrors       atomic.Int64
	SearchPages       atomic.Int64
	VideoBatches      atomic.Int64
	ChannelBatches    atomic.Int64
	VideosEnriched    atomic.Int64
	HistorySaves      atomic.Int64
	HistorySaveErrors atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"pipeline_runs":       metrics.PipelineRuns.Load(),
		"pipeline_errors":     metrics.PipelineErrors.Load(),
		"api_requests":        metrics.APIRequests.Load(),
		"retries":             metrics.Retries.Load(),
		"quota_errors":        metrics.QuotaErrors.Load(),
		"search_pages":        metrics.SearchPages.Load(),
		"video_batches":       metrics.VideoBatches.Load(),
		"channel_batches":     metrics.ChannelBatches.Load(),
		"videos_enriched":     metrics.VideosEnriched.Load(),
		"history_saves":       metrics.HistorySaves.Load(),
		"history_save_errors": metrics.HistorySaveErrors.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"pipeline_runs", "pipeline_errors",
		"api_requests", "retries", "quota_errors",
		"search_pages", "video_batches", "channel_batches", "videos_enriched",
		"history_saves", "history_save_errors",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ and dashboard/ sub-packages.
func IncrAPIRequests()        { metrics.APIRequests.Add(1) }
func IncrQuotaErrors()        { metrics.QuotaErrors.Add(1) }
func IncrSearchPages()        { metrics.SearchPages.Add(1) }
func IncrVideoBatches()       { metrics.VideoBatches.Add(1) }
func IncrChannelBatches()     { metrics.ChannelBatches.Add(1) }
func IncrPipelineRuns()       { metrics.PipelineRuns.Add(1) }
func IncrPipelineErrors()     { metrics.PipelineErrors.Add(1) }
func IncrHistorySaves()       { metrics.HistorySaves.Add(1) }
func IncrHistorySaveErrors()  { metrics.HistorySaveErrors.Add(1) }
func AddVideosEnriched(n int) { metrics.VideosEnriched.Add(int64(n)) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 20*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
