// Package history records pipeline runs so earlier days can be compared.
// Two backends share one set of queries: SQLite for a local file and
// Postgres for a shared database.
package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/dashboard"
)

//go:embed schema/sqlite/*.sql schema/postgres/*.sql
var schemaFS embed.FS

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// ErrRunNotFound is returned by RunVideos for an unknown run id.
var ErrRunNotFound = errors.New("history: run not found")

// Store persists reports and reads them back.
type Store interface {
	SaveRun(ctx context.Context, rep dashboard.Report) error
	// ListRuns returns the newest runs first, optionally only for keyword.
	ListRuns(ctx context.Context, keyword string, limit int) ([]engine.RunSummary, error)
	// RunVideos returns the videos of one run in report order.
	RunVideos(ctx context.Context, runID string) ([]engine.RunVideo, error)
	Close() error
}

// Open picks a backend from the config: DatabaseURL wins over HistoryPath.
// With neither set it returns a nil Store and no error.
func Open(ctx context.Context, cfg engine.Config) (Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		s, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case cfg.HistoryPath != "":
		s, err := OpenSQLite(ctx, cfg.HistoryPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, nil
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// migrations returns the embedded schema files of one backend in name order.
func migrations(backend string) ([]string, error) {
	dir := "schema/" + backend
	entries, err := fs.ReadDir(schemaFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		data, err := fs.ReadFile(schemaFS, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		out = append(out, string(data))
	}
	return out, nil
}
