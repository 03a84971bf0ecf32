package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/dashboard"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps history in Postgres through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	d    dialect
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects, pings and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("history: DATABASE_URL is required")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("history: parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("history: create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, d: postgresDialect}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: run migrations: %w", err)
	}
	slog.Info("history: postgres connected", slog.String("addr", config.ConnConfig.Host))
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts, err := migrations("postgres")
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, rep dashboard.Report) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query, args, err := s.d.insertRun(rep)
	if err != nil {
		return fmt.Errorf("history: build run insert: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	for start := 0; start < len(rep.Rows); start += videosPerInsert {
		end := min(start+videosPerInsert, len(rep.Rows))
		query, args, err := s.d.insertVideos(rep.RunID, rep.Rows[start:end], start)
		if err != nil {
			return fmt.Errorf("history: build video insert: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("history: insert videos: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, keyword string, limit int) ([]engine.RunSummary, error) {
	query, args, err := s.d.selectRuns(keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("history: build list: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStore) RunVideos(ctx context.Context, runID string) ([]engine.RunVideo, error) {
	query, args, err := s.d.selectRunExists(runID)
	if err != nil {
		return nil, fmt.Errorf("history: build lookup: %w", err)
	}
	var one int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("history: lookup run: %w", err)
	}

	query, args, err = s.d.selectVideos(runID)
	if err != nil {
		return nil, fmt.Errorf("history: build videos: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
