package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"golang.org/x/net/html"
)

// Search orders accepted by search.list that this client exposes.
const (
	OrderDate      = "date"
	OrderViewCount = "viewCount"
)

// SearchQuery selects today's videos for a keyword.
type SearchQuery struct {
	Keyword  string
	Order    string // OrderDate (default) or OrderViewCount
	MaxPages int    // > 0 overrides the client's page cap
}

// ErrInvalidQuery is returned for an empty keyword or unknown order.
var ErrInvalidQuery = errors.New("youtube: invalid search query")

// --- search.list response ---

type ytSearchResp struct {
	NextPageToken string         `json:"nextPageToken"`
	Items         []ytSearchItem `json:"items"`
}

type ytSearchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet ytSearchSnippet `json:"snippet"`
}

type ytSearchSnippet struct {
	PublishedAt          string                 `json:"publishedAt"`
	ChannelID            string                 `json:"channelId"`
	Title                string                 `json:"title"`
	Description          string                 `json:"description"`
	ChannelTitle         string                 `json:"channelTitle"`
	LiveBroadcastContent string                 `json:"liveBroadcastContent"`
	Thumbnails           map[string]ytThumbnail `json:"thumbnails"`
}

type ytThumbnail struct {
	URL string `json:"url"`
}

// NormalizeOrder maps user input to a search.list order; empty means date.
func NormalizeOrder(order string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "date":
		return OrderDate, nil
	case "viewcount", "views":
		return OrderViewCount, nil
	default:
		return "", fmt.Errorf("%w: order %q (want date or viewCount)", ErrInvalidQuery, order)
	}
}

// DayWindow returns the UTC calendar day containing now as [start, end).
func DayWindow(now time.Time) (start, end time.Time) {
	y, m, d := now.UTC().Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// SearchToday lists videos matching q published during the current UTC day.
// Pages are followed until the cursor runs out or the page cap is reached;
// stubs are returned in page order without deduplication.
func (c *Client) SearchToday(ctx context.Context, apiKey string, q SearchQuery) ([]engine.VideoStub, error) {
	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is empty", ErrInvalidQuery)
	}
	order, err := NormalizeOrder(q.Order)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	maxPages := c.maxPages
	if q.MaxPages > 0 {
		maxPages = q.MaxPages
	}

	start, end := DayWindow(c.now())
	params := url.Values{
		"part":            {"snippet"},
		"type":            {"video"},
		"q":               {keyword},
		"order":           {order},
		"publishedAfter":  {start.Format(time.RFC3339)},
		"publishedBefore": {end.Format(time.RFC3339)},
		"maxResults":      {strconv.Itoa(ytPageSize)},
	}

	var stubs []engine.VideoStub
	for page := 1; ; page++ {
		var resp ytSearchResp
		if err := c.Fetch(ctx, apiKey, "search", params, &resp); err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}
		engine.IncrSearchPages()

		for _, item := range resp.Items {
			if item.ID.VideoID == "" {
				continue
			}
			stubs = append(stubs, stubFromSearchItem(item))
		}
		slog.Debug("youtube: search page",
			slog.Int("page", page),
			slog.Int("items", len(resp.Items)),
			slog.Bool("more", resp.NextPageToken != ""))

		if resp.NextPageToken == "" {
			break
		}
		if maxPages > 0 && page >= maxPages {
			slog.Info("youtube: search page cap reached", slog.Int("pages", page), slog.Int("stubs", len(stubs)))
			break
		}
		params.Set("pageToken", resp.NextPageToken)
	}
	return stubs, nil
}

func stubFromSearchItem(item ytSearchItem) engine.VideoStub {
	s := item.Snippet
	return engine.VideoStub{
		VideoID:              item.ID.VideoID,
		Title:                html.UnescapeString(s.Title),
		Description:          html.UnescapeString(s.Description),
		ChannelID:            s.ChannelID,
		ChannelTitle:         html.UnescapeString(s.ChannelTitle),
		PublishedAt:          s.PublishedAt,
		Thumbnail:            bestThumbnail(s.Thumbnails),
		LiveBroadcastContent: s.LiveBroadcastContent,
	}
}

func bestThumbnail(thumbs map[string]ytThumbnail) string {
	for _, size := range []string{"high", "medium", "default"} {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}
