package engine

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ytpulse.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFileMerges(t *testing.T) {
	path := writeConfig(t, `
youtube:
  apiKey: file-key
search:
  keyword: yoga
  order: viewCount
  maxPages: 0
http:
  timeout: 5s
  requestInterval: 0s
  batchConcurrency: 4
rpmScale: 1.5
cache:
  ttl: 2m
history:
  path: /tmp/ytpulse.db
logLevel: debug
`)
	got, err := LoadConfigFile(DefaultConfig(), path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	if got.YouTubeAPIKey != "file-key" || got.SearchKeyword != "yoga" || got.SearchOrder != "viewCount" {
		t.Errorf("strings not merged: %+v", got)
	}
	if got.MaxPages != 0 {
		t.Errorf("MaxPages = %d, want explicit 0", got.MaxPages)
	}
	if got.RequestInterval != 0 {
		t.Errorf("RequestInterval = %v, want explicit 0", got.RequestInterval)
	}
	if got.RequestTimeout != 5*time.Second || got.BatchConcurrency != 4 || got.CacheTTL != 2*time.Minute {
		t.Errorf("durations/ints not merged: %+v", got)
	}
	if got.RPMScale != 1.5 || got.HistoryPath != "/tmp/ytpulse.db" || got.LogLevel != "debug" {
		t.Errorf("misc not merged: %+v", got)
	}
	// Unset keys keep their defaults.
	def := DefaultConfig()
	if got.YouTubeAPIBase != def.YouTubeAPIBase || got.RetryAttempts != def.RetryAttempts {
		t.Errorf("defaults lost: %+v", got)
	}
}

func TestLoadConfigFileEmptyPath(t *testing.T) {
	base := DefaultConfig()
	got, err := LoadConfigFile(base, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.SearchKeyword != base.SearchKeyword || got.MaxPages != base.MaxPages {
		t.Errorf("got %+v, want base", got)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	if _, err := LoadConfigFile(DefaultConfig(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := writeConfig(t, "search: [not, a, map")
	if _, err := LoadConfigFile(DefaultConfig(), path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestInitDefaultsHTTPClient(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { Init(prev) })

	Init(Config{RequestTimeout: 3 * time.Second})
	if Cfg.HTTPClient == nil || Cfg.HTTPClient.Timeout != 3*time.Second {
		t.Errorf("HTTPClient = %+v", Cfg.HTTPClient)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
