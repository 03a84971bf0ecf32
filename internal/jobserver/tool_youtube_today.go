package jobserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/dashboard"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/sources"
	"github.com/anatolykoptev/go_ytpulse/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultVideoLimit  = 50
	maxVideoLimit      = 500
	minRPMScale        = 0.2
	maxRPMScale        = 4.0
	historySaveTimeout = 10 * time.Second
)

func registerYouTubeToday(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_today",
		Description: "Search YouTube for videos published today (UTC) matching a keyword, enrich them with view, live and channel statistics, and estimate RPM revenue. Returns an overview (totals, countries, fastest video to 1K views, upload hour histogram), the filtered video list, and a markdown table sorted by views. Results are cached for a few minutes; set refresh to force a new run.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.DailyVideosInput) (*mcp.CallToolResult, engine.DailyVideosOutput, error) {
		out, err := t.Today(ctx, input)
		if err != nil {
			return nil, engine.DailyVideosOutput{}, err
		}
		return nil, out, nil
	})
}

// Today runs (or loads from cache) today's report and applies the display filters.
func (t *Tools) Today(ctx context.Context, input engine.DailyVideosInput) (engine.DailyVideosOutput, error) {
	apiKey := toolutil.FirstNonEmpty(input.APIKey, t.cfg.YouTubeAPIKey)
	if apiKey == "" {
		return engine.DailyVideosOutput{}, errors.New("api key required: pass api_key or set YOUTUBE_API_KEY")
	}
	keyword := toolutil.FirstNonEmpty(input.Keyword, t.cfg.SearchKeyword)
	if keyword == "" {
		return engine.DailyVideosOutput{}, errors.New("keyword is required")
	}
	order, err := sources.NormalizeOrder(toolutil.FirstNonEmpty(input.Order, t.cfg.SearchOrder))
	if err != nil {
		return engine.DailyVideosOutput{}, err
	}
	if input.MaxPages < 0 {
		return engine.DailyVideosOutput{}, fmt.Errorf("max_pages must be >= 0, got %d", input.MaxPages)
	}
	if s := input.RPMScale; s != 0 && (s < minRPMScale || s > maxRPMScale) {
		return engine.DailyVideosOutput{}, fmt.Errorf("rpm_scale must be between %.1f and %.1f, got %v", minRPMScale, maxRPMScale, s)
	}

	day := t.now().UTC().Format(time.DateOnly)
	cacheKey := engine.CacheKey("youtube_today", keyword, order, day,
		toolutil.KeyPart(input.MaxPages), toolutil.KeyPart(input.RPMScale))

	var (
		rep    dashboard.Report
		cached bool
	)
	if !input.Refresh {
		rep, cached = engine.CacheLoadJSON[dashboard.Report](ctx, cacheKey)
	}
	if !cached {
		rep, err = t.pipeline.Run(ctx, apiKey, dashboard.RunOptions{
			Keyword:  keyword,
			Order:    order,
			MaxPages: input.MaxPages,
			Scale:    input.RPMScale,
		})
		if err != nil {
			return engine.DailyVideosOutput{}, toolError(err)
		}
		engine.CacheStoreJSON(ctx, cacheKey, rep)
		t.saveHistory(ctx, rep)
	}

	return buildDailyOutput(rep, input, cached), nil
}

// toolError rewrites the errors a caller can act on.
func toolError(err error) error {
	switch {
	case errors.Is(err, sources.ErrQuota):
		return fmt.Errorf("youtube quota exceeded, wait for the daily reset or switch API key: %w", err)
	case errors.Is(err, sources.ErrMissingCredential):
		return fmt.Errorf("api key required: %w", err)
	default:
		return err
	}
}

// saveHistory records rep. Failures are logged only.
func (t *Tools) saveHistory(ctx context.Context, rep dashboard.Report) {
	if t.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()

	if err := t.history.SaveRun(ctx, rep); err != nil {
		engine.IncrHistorySaveErrors()
		slog.Warn("history: save failed", slog.String("run_id", rep.RunID), slog.Any("error", err))
		return
	}
	engine.IncrHistorySaves()
}

func buildDailyOutput(rep dashboard.Report, input engine.DailyVideosInput, cached bool) engine.DailyVideosOutput {
	f := dashboard.Filter{
		TitleKeyword:    input.TitleKeyword,
		Channel:         input.Channel,
		Country:         input.Country,
		MinRPM:          input.MinRPM,
		OnlyMonetizable: input.OnlyMonetizable,
	}
	matched := f.Apply(rep.Rows)
	shown := matched[:min(len(matched), toolutil.ClampLimit(input.Limit, defaultVideoLimit, maxVideoLimit))]

	ov := rep.Overview
	if ov.Countries == nil {
		ov.Countries = []string{}
	}
	return engine.DailyVideosOutput{
		RunID:       rep.RunID,
		Keyword:     rep.Keyword,
		Order:       rep.Order,
		Day:         rep.Day,
		GeneratedAt: rep.GeneratedAt,
		Total:       len(matched),
		Shown:       len(shown),
		Overview:    ov,
		Videos:      shown,
		Table:       dashboard.DetailTable(shown),
		Cached:      cached,
	}
}
