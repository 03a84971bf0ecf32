package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
)

// count decodes the API's counters, which arrive as JSON strings
// ("1234") but are accepted as bare numbers too.
type count int64

func (n *count) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("parse count %q: %w", b, err)
	}
	*n = count(v)
	return nil
}

// --- videos.list response ---

type ytVideosResp struct {
	Items []ytVideoItem `json:"items"`
}

type ytVideoItem struct {
	ID         string `json:"id"`
	Statistics struct {
		ViewCount    count `json:"viewCount"`
		LikeCount    count `json:"likeCount"`
		CommentCount count `json:"commentCount"`
	} `json:"statistics"`
	LiveStreamingDetails *struct {
		ActualStartTime    string `json:"actualStartTime"`
		ScheduledStartTime string `json:"scheduledStartTime"`
	} `json:"liveStreamingDetails"`
}

func (it ytVideoItem) stats() engine.VideoStats {
	st := engine.VideoStats{
		VideoID:      it.ID,
		ViewCount:    int64(it.Statistics.ViewCount),
		LikeCount:    int64(it.Statistics.LikeCount),
		CommentCount: int64(it.Statistics.CommentCount),
	}
	if d := it.LiveStreamingDetails; d != nil {
		st.LiveDetailsPresent = true
		start := d.ActualStartTime
		if start == "" {
			start = d.ScheduledStartTime
		}
		if t, err := time.Parse(time.RFC3339, start); err == nil {
			st.LiveStartedAt = &t
		}
	}
	return st
}

// EnrichStatistics joins videos.list statistics onto stubs in batches of 50 ids.
// The result has one row per stub, in stub order. Videos the API omits keep
// zero counters. Any batch failure aborts the whole step.
func (c *Client) EnrichStatistics(ctx context.Context, apiKey string, stubs []engine.VideoStub) ([]engine.VideoRow, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}

	ids := make([]string, 0, len(stubs))
	for _, s := range stubs {
		ids = append(ids, s.VideoID)
	}
	batches := chunk(ids, ytBatchSize)

	var (
		mu     sync.Mutex
		merged = make(map[string]engine.VideoStats, len(ids))
	)
	err := c.runBatches(ctx, len(batches), func(ctx context.Context, i int) error {
		params := url.Values{
			"part":       {"statistics,liveStreamingDetails"},
			"id":         {strings.Join(batches[i], ",")},
			"maxResults": {strconv.Itoa(ytBatchSize)},
		}
		var resp ytVideosResp
		if err := c.Fetch(ctx, apiKey, "videos", params, &resp); err != nil {
			return fmt.Errorf("videos batch %d/%d: %w", i+1, len(batches), err)
		}
		engine.IncrVideoBatches()

		mu.Lock()
		defer mu.Unlock()
		for _, item := range resp.Items {
			merged[item.ID] = item.stats()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows := make([]engine.VideoRow, len(stubs))
	missing := 0
	for i, s := range stubs {
		rows[i] = engine.VideoRow{VideoStub: s}
		if st, ok := merged[s.VideoID]; ok {
			rows[i].ApplyStats(st)
		} else {
			missing++
		}
	}
	engine.AddVideosEnriched(len(rows) - missing)
	if missing > 0 {
		slog.Debug("youtube: videos without statistics", slog.Int("missing", missing))
	}
	return rows, nil
}
