package jobserver

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// errHistoryDisabled is returned when no history backend is configured.
var errHistoryDisabled = errors.New("history is disabled: set HISTORY_PATH or DATABASE_URL")

func registerYouTubeHistory(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_history",
		Description: "List earlier youtube_today runs (newest first, optionally for one keyword) with their totals, or pass run_id to get the videos recorded in that run. Requires a history database on the server.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.RunHistoryInput) (*mcp.CallToolResult, engine.RunHistoryOutput, error) {
		out, err := t.History(ctx, input)
		if err != nil {
			return nil, engine.RunHistoryOutput{}, err
		}
		return nil, out, nil
	})
}

// History lists stored runs, or the videos of one run when input.RunID is set.
func (t *Tools) History(ctx context.Context, input engine.RunHistoryInput) (engine.RunHistoryOutput, error) {
	if t.history == nil {
		return engine.RunHistoryOutput{}, errHistoryDisabled
	}

	if runID := strings.TrimSpace(input.RunID); runID != "" {
		videos, err := t.history.RunVideos(ctx, runID)
		if err != nil {
			return engine.RunHistoryOutput{}, err
		}
		return engine.RunHistoryOutput{RunID: runID, Videos: videos}, nil
	}

	runs, err := t.history.ListRuns(ctx, strings.TrimSpace(input.Keyword), input.Limit)
	if err != nil {
		return engine.RunHistoryOutput{}, err
	}
	return engine.RunHistoryOutput{Runs: runs}, nil
}
