package engine

import "time"

// --- Pipeline records ---

// VideoStub is one search hit as returned by search.list, before enrichment.
type VideoStub struct {
	VideoID              string `json:"video_id"`
	Title                string `json:"title"`
	Description          string `json:"description,omitempty"`
	ChannelID            string `json:"channel_id"`
	ChannelTitle         string `json:"channel_title"`
	PublishedAt          string `json:"published_at"` // RFC 3339 as sent by the API
	Thumbnail            string `json:"thumbnail,omitempty"`
	LiveBroadcastContent string `json:"live_broadcast_content"` // none, live, upcoming
}

// VideoStats holds the videos.list counters for one video.
type VideoStats struct {
	VideoID            string     `json:"video_id"`
	ViewCount          int64      `json:"view_count"`
	LikeCount          int64      `json:"like_count"`
	CommentCount       int64      `json:"comment_count"`
	LiveStartedAt      *time.Time `json:"live_started_at,omitempty"`
	LiveDetailsPresent bool       `json:"live_details_present"`
}

// ChannelStats holds the channels.list fields merged onto every video of that channel.
type ChannelStats struct {
	ChannelID       string `json:"channel_id"`
	SubscriberCount int64  `json:"subscriber_count"`
	VideoCount      int64  `json:"video_count"`
	Country         string `json:"country"`
}

// UnknownCountry is used when a channel does not declare a country.
const UnknownCountry = "Unknown"

// VideoRow is the fully joined record handed to the presentation layer.
type VideoRow struct {
	VideoStub
	ViewCount          int64      `json:"view_count"`
	LikeCount          int64      `json:"like_count"`
	CommentCount       int64      `json:"comment_count"`
	LiveStartedAt      *time.Time `json:"live_started_at,omitempty"`
	LiveDetailsPresent bool       `json:"live_details_present"`
	SubscriberCount    int64      `json:"subscriber_count"`
	ChannelVideoCount  int64      `json:"channel_video_count"`
	Country            string     `json:"country"`

	// Derived fields.
	Published       time.Time `json:"published"`
	EstimatedRPM    float64   `json:"estimated_rpm_usd"`
	Monetizable     bool      `json:"monetizable"`
	HoursToThousand *float64  `json:"hours_to_1k,omitempty"`
}

// URL returns the watch page of the video.
func (r VideoRow) URL() string {
	return "https://www.youtube.com/watch?v=" + r.VideoID
}

// ApplyStats copies counters from s onto the row.
func (r *VideoRow) ApplyStats(s VideoStats) {
	r.ViewCount = s.ViewCount
	r.LikeCount = s.LikeCount
	r.CommentCount = s.CommentCount
	r.LiveStartedAt = s.LiveStartedAt
	r.LiveDetailsPresent = s.LiveDetailsPresent
}

// ApplyChannel copies channel-level fields onto the row.
func (r *VideoRow) ApplyChannel(c ChannelStats) {
	r.SubscriberCount = c.SubscriberCount
	r.ChannelVideoCount = c.VideoCount
	r.Country = c.Country
	if r.Country == "" {
		r.Country = UnknownCountry
	}
}

// --- Tool I/O ---

// DailyVideosInput is the input for the youtube_today tool.
type DailyVideosInput struct {
	Keyword         string  `json:"keyword,omitempty" jsonschema:"Search keyword (default: server SEARCH_KEYWORD, e.g. meditation)"`
	Order           string  `json:"order,omitempty" jsonschema:"Search order: date (default) or viewCount"`
	MaxPages        int     `json:"max_pages,omitempty" jsonschema:"Max search pages of 50 results (default: server MAX_PAGES)"`
	RPMScale        float64 `json:"rpm_scale,omitempty" jsonschema:"Multiplier applied to the estimated RPM, 0.2-4.0 (default: 1.0)"`
	TitleKeyword    string  `json:"title_keyword,omitempty" jsonschema:"Only show videos whose title contains this text (case-insensitive)"`
	Channel         string  `json:"channel,omitempty" jsonschema:"Only show channels whose name contains this text (case-insensitive)"`
	Country         string  `json:"country,omitempty" jsonschema:"Only show channels from this country code, or All"`
	MinRPM          float64 `json:"min_rpm,omitempty" jsonschema:"Minimum estimated RPM in USD"`
	OnlyMonetizable bool    `json:"only_monetizable,omitempty" jsonschema:"Only show videos with at least 1000 views"`
	Limit           int     `json:"limit,omitempty" jsonschema:"Max videos in the response (default: 50)"`
	Refresh         bool    `json:"refresh,omitempty" jsonschema:"Bypass the result cache"`
	APIKey          string  `json:"api_key,omitempty" jsonschema:"YouTube Data API key (default: server key)"`
}

// Overview summarizes a whole run (unfiltered).
type Overview struct {
	TotalVideos       int       `json:"total_videos"`
	ActiveChannels    int       `json:"active_channels"`
	Livestreams       int       `json:"livestreams"`
	MonetizableVideos int       `json:"monetizable_videos"`
	TotalViews        int64     `json:"total_views"`
	TotalEstimatedRPM float64   `json:"total_estimated_rpm_usd"`
	Countries         []string  `json:"countries"`
	FastestToThousand *VideoRow `json:"fastest_to_1k,omitempty"`
	HourHistogram     [24]int   `json:"hour_histogram_utc"`
}

// DailyVideosOutput is the structured output for youtube_today.
type DailyVideosOutput struct {
	RunID       string     `json:"run_id"`
	Keyword     string     `json:"keyword"`
	Order       string     `json:"order"`
	Day         string     `json:"day"`
	GeneratedAt time.Time  `json:"generated_at"`
	Total       int        `json:"total"`
	Shown       int        `json:"shown"`
	Overview    Overview   `json:"overview"`
	Videos      []VideoRow `json:"videos"`
	Table       string     `json:"table"` // markdown detail table
	Cached      bool       `json:"cached,omitempty"`
}

// RunHistoryInput is the input for the youtube_history tool.
type RunHistoryInput struct {
	Keyword string `json:"keyword,omitempty" jsonschema:"Only runs for this keyword"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max runs to list (default: 10, max: 100)"`
	RunID   string `json:"run_id,omitempty" jsonschema:"Return the videos recorded for this run instead of the run list"`
}

// RunSummary is one stored pipeline run.
type RunSummary struct {
	RunID             string    `json:"run_id"`
	Keyword           string    `json:"keyword"`
	Order             string    `json:"order"`
	Day               string    `json:"day"`
	GeneratedAt       time.Time `json:"generated_at"`
	TotalVideos       int       `json:"total_videos"`
	TotalViews        int64     `json:"total_views"`
	TotalEstimatedRPM float64   `json:"total_estimated_rpm_usd"`
}

// RunVideo is one video snapshot stored with a run.
type RunVideo struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	Country      string    `json:"country"`
	ViewCount    int64     `json:"view_count"`
	EstimatedRPM float64   `json:"estimated_rpm_usd"`
	Monetizable  bool      `json:"monetizable"`
	Published    time.Time `json:"published"`
}

// RunHistoryOutput is the structured output for youtube_history.
type RunHistoryOutput struct {
	Runs   []RunSummary `json:"runs,omitempty"`
	RunID  string       `json:"run_id,omitempty"`
	Videos []RunVideo   `json:"videos,omitempty"`
}
