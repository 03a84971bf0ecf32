package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/dashboard"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps history in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
	d  dialect
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	s := &SQLiteStore{db: db, d: sqliteDialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	slog.Info("history: sqlite ready", slog.String("path", path))
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	stmts, err := migrations("sqlite")
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun writes the run and its videos in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, rep dashboard.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := s.d.insertRun(rep)
	if err != nil {
		return fmt.Errorf("history: build run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	for start := 0; start < len(rep.Rows); start += videosPerInsert {
		end := min(start+videosPerInsert, len(rep.Rows))
		query, args, err := s.d.insertVideos(rep.RunID, rep.Rows[start:end], start)
		if err != nil {
			return fmt.Errorf("history: build video insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("history: insert videos: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, keyword string, limit int) ([]engine.RunSummary, error) {
	query, args, err := s.d.selectRuns(keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("history: build list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	runs := []engine.RunSummary{}
	for rows.Next() {
		r, err := s.d.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) RunVideos(ctx context.Context, runID string) ([]engine.RunVideo, error) {
	query, args, err := s.d.selectRunExists(runID)
	if err != nil {
		return nil, fmt.Errorf("history: build lookup: %w", err)
	}
	var one int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("history: lookup run: %w", err)
	}

	query, args, err = s.d.selectVideos(runID)
	if err != nil {
		return nil, fmt.Errorf("history: build videos: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: run videos: %w", err)
	}
	defer rows.Close()

	videos := []engine.RunVideo{}
	for rows.Next() {
		v, err := s.d.scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
