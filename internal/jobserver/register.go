package jobserver

import (
	"context"
	"time"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/dashboard"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/history"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Runner executes one pipeline pass; *dashboard.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, apiKey string, opts dashboard.RunOptions) (dashboard.Report, error)
}

// Deps are the services the tools are built on.
type Deps struct {
	Pipeline Runner
	History  history.Store // nil disables history
	Config   engine.Config
	Now      func() time.Time
}

// Tools holds the handlers behind the registered MCP tools.
type Tools struct {
	pipeline Runner
	history  history.Store
	cfg      engine.Config
	now      func() time.Time
}

// NewTools builds the tool handlers from d. A nil d.Now means time.Now.
func NewTools(d Deps) *Tools {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Tools{pipeline: d.Pipeline, history: d.History, cfg: d.Config, now: now}
}

// RegisterTools registers the dashboard tools on the given MCP server:
// youtube_today, youtube_history.
func RegisterTools(server *mcp.Server, d Deps) {
	t := NewTools(d)
	registerYouTubeToday(server, t)
	registerYouTubeHistory(server, t)
}
