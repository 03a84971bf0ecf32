package main

import (
	"testing"
	"time"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
)

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "env-key")
	t.Setenv("SEARCH_KEYWORD", "breathwork")
	t.Setenv("MAX_PAGES", "3")
	t.Setenv("REQUEST_INTERVAL", "250ms")
	t.Setenv("RPM_SCALE", "2.5")

	base := engine.DefaultConfig()
	base.YouTubeAPIKey = "file-key"
	base.HistoryPath = "from-file.db"

	got := configFromEnv(base)
	if got.YouTubeAPIKey != "env-key" {
		t.Errorf("YouTubeAPIKey = %q, env should win over file", got.YouTubeAPIKey)
	}
	if got.SearchKeyword != "breathwork" || got.MaxPages != 3 {
		t.Errorf("keyword/pages = %q/%d", got.SearchKeyword, got.MaxPages)
	}
	if got.RequestInterval != 250*time.Millisecond || got.RPMScale != 2.5 {
		t.Errorf("interval/scale = %v/%v", got.RequestInterval, got.RPMScale)
	}
	if got.HistoryPath != "from-file.db" {
		t.Errorf("HistoryPath = %q, unset env must keep file value", got.HistoryPath)
	}
}
