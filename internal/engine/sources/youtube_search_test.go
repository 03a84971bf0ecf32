package sources

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func searchItem(id, title, channelID, channelTitle, published string) map[string]any {
	return map[string]any{
		"id": map[string]string{"kind": "youtube#video", "videoId": id},
		"snippet": map[string]any{
			"publishedAt":          published,
			"channelId":            channelID,
			"title":                title,
			"description":          "about " + title,
			"channelTitle":         channelTitle,
			"liveBroadcastContent": "none",
			"thumbnails": map[string]any{
				"default": map[string]string{"url": "https://i.ytimg.com/vi/" + id + "/default.jpg"},
				"high":    map[string]string{"url": "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"},
			},
		},
	}
}

func TestDayWindow(t *testing.T) {
	local := time.FixedZone("UTC+9", 9*3600)
	tests := []struct {
		name      string
		now       time.Time
		wantStart string
	}{
		{"midday utc", time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC), "2025-03-14T00:00:00Z"},
		{"midnight", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "2025-03-14T00:00:00Z"},
		{"local zone converts to utc day", time.Date(2025, 3, 15, 5, 0, 0, 0, local), "2025-03-14T00:00:00Z"},
		{"year end", time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), "2024-12-31T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := DayWindow(tt.now)
			if got := start.Format(time.RFC3339); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if end.Sub(start) != 24*time.Hour {
				t.Errorf("window = %v, want 24h", end.Sub(start))
			}
		})
	}
}

func TestNormalizeOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", OrderDate, false},
		{"date", OrderDate, false},
		{"DATE", OrderDate, false},
		{"viewCount", OrderViewCount, false},
		{"viewcount", OrderViewCount, false},
		{"views", OrderViewCount, false},
		{"rating", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeOrder(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeOrder(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearchTodayFollowsCursors(t *testing.T) {
	pages := map[string]map[string]any{
		"": {
			"nextPageToken": "p2",
			"items": []any{
				searchItem("v1", "One", "c1", "Chan 1", "2025-03-14T10:00:00Z"),
				searchItem("v2", "Two", "c2", "Chan 2", "2025-03-14T11:00:00Z"),
			},
		},
		"p2": {
			"nextPageToken": "p3",
			"items":         []any{searchItem("v3", "Three", "c1", "Chan 1", "2025-03-14T12:00:00Z")},
		},
		"p3": {
			"items": []any{searchItem("v4", "Four", "c3", "Chan 3", "2025-03-14T13:00:00Z")},
		},
	}

	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		checks := map[string]string{
			"part":            "snippet",
			"type":            "video",
			"q":               "meditation",
			"order":           "date",
			"maxResults":      "50",
			"publishedAfter":  "2025-03-14T00:00:00Z",
			"publishedBefore": "2025-03-15T00:00:00Z",
		}
		for k, want := range checks {
			if got := q.Get(k); got != want {
				t.Errorf("param %s = %q, want %q", k, got, want)
			}
		}
		page, ok := pages[q.Get("pageToken")]
		if !ok {
			t.Errorf("unexpected pageToken %q", q.Get("pageToken"))
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(t, w, http.StatusOK, page)
	}, WithMaxPages(0))

	stubs, err := c.SearchToday(context.Background(), testKey, SearchQuery{Keyword: "meditation"})
	if err != nil {
		t.Fatalf("SearchToday: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	var ids []string
	for _, s := range stubs {
		ids = append(ids, s.VideoID)
	}
	if got := strings.Join(ids, ","); got != "v1,v2,v3,v4" {
		t.Errorf("ids = %s, want v1,v2,v3,v4", got)
	}

	first := stubs[0]
	if first.ChannelID != "c1" || first.ChannelTitle != "Chan 1" {
		t.Errorf("channel = %q/%q", first.ChannelID, first.ChannelTitle)
	}
	if first.PublishedAt != "2025-03-14T10:00:00Z" {
		t.Errorf("PublishedAt = %q", first.PublishedAt)
	}
	if !strings.HasSuffix(first.Thumbnail, "hqdefault.jpg") {
		t.Errorf("Thumbnail = %q, want high quality", first.Thumbnail)
	}
	if first.Description != "about One" || first.LiveBroadcastContent != "none" {
		t.Errorf("snippet fields = %+v", first)
	}
}

func TestSearchTodayPageCap(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		id := "v" + r.URL.Query().Get("pageToken")
		writeJSON(t, w, http.StatusOK, map[string]any{
			"nextPageToken": "n" + r.URL.Query().Get("pageToken"),
			"items":         []any{searchItem(id, id, "c", "C", "2025-03-14T01:00:00Z")},
		})
	}, WithMaxPages(2))

	stubs, err := c.SearchToday(context.Background(), testKey, SearchQuery{Keyword: "yoga"})
	if err != nil {
		t.Fatalf("SearchToday: %v", err)
	}
	if calls.Load() != 2 || len(stubs) != 2 {
		t.Errorf("calls = %d, stubs = %d, want 2 and 2", calls.Load(), len(stubs))
	}

	calls.Store(0)
	stubs, err = c.SearchToday(context.Background(), testKey, SearchQuery{Keyword: "yoga", MaxPages: 4})
	if err != nil {
		t.Fatalf("SearchToday: %v", err)
	}
	if calls.Load() != 4 || len(stubs) != 4 {
		t.Errorf("with MaxPages=4: calls = %d, stubs = %d", calls.Load(), len(stubs))
	}
}

func TestSearchTodayKeepsDuplicates(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"nextPageToken": "x",
				"items":         []any{searchItem("dup", "A", "c", "C", "2025-03-14T01:00:00Z")},
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"items": []any{searchItem("dup", "A", "c", "C", "2025-03-14T01:00:00Z")},
		})
	})

	stubs, err := c.SearchToday(context.Background(), testKey, SearchQuery{Keyword: "x"})
	if err != nil {
		t.Fatalf("SearchToday: %v", err)
	}
	if len(stubs) != 2 {
		t.Errorf("stubs = %d, want 2 (search does not dedupe)", len(stubs))
	}
}

func TestSearchTodayUnescapesEntities(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"items": []any{searchItem("v1", "Rock &amp; Roll &#39;Live&#39;", "c", "Tom &amp; Co", "2025-03-14T01:00:00Z")},
		})
	})
	stubs, err := c.SearchToday(context.Background(), testKey, SearchQuery{Keyword: "rock"})
	if err != nil {
		t.Fatalf("SearchToday: %v", err)
	}
	if stubs[0].Title != "Rock & Roll 'Live'" {
		t.Errorf("Title = %q", stubs[0].Title)
	}
	if stubs[0].ChannelTitle != "Tom & Co" {
		t.Errorf("ChannelTitle = %q", stubs[0].ChannelTitle)
	}
}

func TestSearchTodaySkipsItemsWithoutVideoID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"items": []any{
				map[string]any{"id": map[string]string{"kind": "youtube#channel", "channelId": "c9"}},
				searchItem("v1", "One", "c", "C", "2025-03-14T01:00:00Z"),
			},
		})
	})
	stubs, err := c.SearchToday(context.Background(), testKey, SearchQuery{Keyword: "x"})
	if err != nil {
		t.Fatalf("SearchToday: %v", err)
	}
	if len(stubs) != 1 || stubs[0].VideoID != "v1" {
		t.Errorf("stubs = %+v", stubs)
	}
}

func TestSearchTodayErrors(t *testing.T) {
	t.Run("empty keyword", func(t *testing.T) {
		c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := c.SearchToday(context.Background(), testKey, SearchQuery{Keyword: "  "})
		if !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("err = %v, want ErrInvalidQuery", err)
		}
		if calls.Load() != 0 {
			t.Errorf("calls = %d, want 0", calls.Load())
		}
	})

	t.Run("missing key", func(t *testing.T) {
		c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := c.SearchToday(context.Background(), "", SearchQuery{Keyword: "x"})
		if !errors.Is(err, ErrMissingCredential) {
			t.Errorf("err = %v, want ErrMissingCredential", err)
		}
		if calls.Load() != 0 {
			t.Errorf("calls = %d, want 0", calls.Load())
		}
	})

	t.Run("failure on second page", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("pageToken") == "" {
				writeJSON(t, w, http.StatusOK, map[string]any{
					"nextPageToken": "p2",
					"items":         []any{searchItem("v1", "One", "c", "C", "2025-03-14T01:00:00Z")},
				})
				return
			}
			w.WriteHeader(http.StatusTooManyRequests)
		})
		stubs, err := c.SearchToday(context.Background(), testKey, SearchQuery{Keyword: "x"})
		if !errors.Is(err, ErrQuota) {
			t.Fatalf("err = %v, want ErrQuota", err)
		}
		if !strings.Contains(err.Error(), "search page 2") {
			t.Errorf("err = %v, want page number", err)
		}
		if stubs != nil {
			t.Errorf("stubs = %v, want nil on failure", stubs)
		}
	})
}
