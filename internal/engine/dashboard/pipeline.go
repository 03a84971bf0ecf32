package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/sources"
	"github.com/google/uuid"
)

// Source is the YouTube side of the pipeline; *sources.Client implements it.
type Source interface {
	SearchToday(ctx context.Context, apiKey string, q sources.SearchQuery) ([]engine.VideoStub, error)
	EnrichStatistics(ctx context.Context, apiKey string, stubs []engine.VideoStub) ([]engine.VideoRow, error)
	EnrichChannels(ctx context.Context, apiKey string, rows []engine.VideoRow) ([]engine.VideoRow, error)
}

// RunOptions selects what one run searches for.
type RunOptions struct {
	Keyword  string
	Order    string  // date or viewCount
	MaxPages int     // 0 = client default
	Scale    float64 // 0 = model default
}

// Report is the result of one run: every row, sorted, plus the overview.
type Report struct {
	RunID       string
	Keyword     string
	Order       string
	Day         string // UTC day searched, YYYY-MM-DD
	GeneratedAt time.Time
	Rows        []engine.VideoRow
	Overview    engine.Overview
}

// Pipeline runs search, statistics, channels, derive in sequence.
// It keeps no state between runs.
type Pipeline struct {
	src   Source
	model RevenueModel
	now   func() time.Time
}

// NewPipeline creates a Pipeline. A nil now means time.Now.
func NewPipeline(src Source, model RevenueModel, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{src: src, model: model, now: now}
}

// Run executes one pipeline pass. Nothing partial is returned: any failing
// step fails the run.
func (p *Pipeline) Run(ctx context.Context, apiKey string, opts RunOptions) (Report, error) {
	if strings.TrimSpace(apiKey) == "" {
		return Report{}, sources.ErrMissingCredential
	}
	order, err := sources.NormalizeOrder(opts.Order)
	if err != nil {
		return Report{}, err
	}
	model := p.model
	if opts.Scale != 0 {
		model.Scale = opts.Scale
	}
	if err := model.Validate(); err != nil {
		return Report{}, err
	}

	engine.IncrPipelineRuns()
	now := p.now().UTC()
	day, _ := sources.DayWindow(now)
	rep := Report{
		RunID:       uuid.NewString(),
		Keyword:     strings.TrimSpace(opts.Keyword),
		Order:       order,
		Day:         day.Format(time.DateOnly),
		GeneratedAt: now,
	}
	log := slog.With(slog.String("run_id", rep.RunID), slog.String("keyword", rep.Keyword))

	err = engine.TrackOperation(ctx, "youtube_pipeline", func(ctx context.Context) error {
		start := time.Now()
		stubs, err := p.src.SearchToday(ctx, apiKey, sources.SearchQuery{
			Keyword:  opts.Keyword,
			Order:    order,
			MaxPages: opts.MaxPages,
		})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		unique, dropped := Dedupe(stubs)
		log.Info("pipeline: search done",
			slog.Int("stubs", len(stubs)), slog.Int("duplicates", dropped),
			slog.Duration("elapsed", time.Since(start)))

		start = time.Now()
		rows, err := p.src.EnrichStatistics(ctx, apiKey, unique)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		log.Info("pipeline: statistics done", slog.Int("rows", len(rows)), slog.Duration("elapsed", time.Since(start)))

		start = time.Now()
		rows, err = p.src.EnrichChannels(ctx, apiKey, rows)
		if err != nil {
			return fmt.Errorf("channels: %w", err)
		}
		log.Info("pipeline: channels done", slog.Int("rows", len(rows)), slog.Duration("elapsed", time.Since(start)))

		rep.Rows = Derive(rows, model, now)
		rep.Overview = Summarize(rep.Rows)
		return nil
	})
	if err != nil {
		engine.IncrPipelineErrors()
		log.Warn("pipeline: failed", slog.Any("error", err))
		return Report{}, err
	}

	log.Info("pipeline: done",
		slog.Int("videos", rep.Overview.TotalVideos),
		slog.Int("monetizable", rep.Overview.MonetizableVideos),
		slog.Int64("views", rep.Overview.TotalViews))
	return rep, nil
}

// Dedupe drops repeated video IDs, keeping the first occurrence, and reports
// how many were dropped.
func Dedupe(stubs []engine.VideoStub) ([]engine.VideoStub, int) {
	seen := make(map[string]bool, len(stubs))
	out := make([]engine.VideoStub, 0, len(stubs))
	for _, s := range stubs {
		if seen[s.VideoID] {
			continue
		}
		seen[s.VideoID] = true
		out = append(out, s)
	}
	return out, len(stubs) - len(out)
}
