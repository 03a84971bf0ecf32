package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
)

// --- channels.list response ---

type ytChannelsResp struct {
	Items []ytChannelItem `json:"items"`
}

type ytChannelItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Country string `json:"country"`
	} `json:"snippet"`
	Statistics struct {
		SubscriberCount count `json:"subscriberCount"`
		VideoCount      count `json:"videoCount"`
	} `json:"statistics"`
}

// EnrichChannels joins channel statistics onto rows. Distinct channel ids are
// queried in batches of 50; every row of a channel gets the same values.
// Rows whose channel the API omits get zero counts and country "Unknown".
// Row count and order are preserved.
func (c *Client) EnrichChannels(ctx context.Context, apiKey string, rows []engine.VideoRow) ([]engine.VideoRow, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}

	seen := make(map[string]bool, len(rows))
	var ids []string
	for _, r := range rows {
		if r.ChannelID == "" || seen[r.ChannelID] {
			continue
		}
		seen[r.ChannelID] = true
		ids = append(ids, r.ChannelID)
	}
	batches := chunk(ids, ytBatchSize)

	var (
		mu     sync.Mutex
		merged = make(map[string]engine.ChannelStats, len(ids))
	)
	err := c.runBatches(ctx, len(batches), func(ctx context.Context, i int) error {
		params := url.Values{
			"part":       {"statistics,snippet"},
			"id":         {strings.Join(batches[i], ",")},
			"maxResults": {strconv.Itoa(ytBatchSize)},
		}
		var resp ytChannelsResp
		if err := c.Fetch(ctx, apiKey, "channels", params, &resp); err != nil {
			return fmt.Errorf("channels batch %d/%d: %w", i+1, len(batches), err)
		}
		engine.IncrChannelBatches()

		mu.Lock()
		defer mu.Unlock()
		for _, item := range resp.Items {
			merged[item.ID] = engine.ChannelStats{
				ChannelID:       item.ID,
				SubscriberCount: int64(item.Statistics.SubscriberCount),
				VideoCount:      int64(item.Statistics.VideoCount),
				Country:         item.Snippet.Country,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]engine.VideoRow, len(rows))
	copy(out, rows)
	for i := range out {
		st, ok := merged[out[i].ChannelID]
		if !ok {
			st = engine.ChannelStats{ChannelID: out[i].ChannelID}
		}
		out[i].ApplyChannel(st)
	}
	return out, nil
}
