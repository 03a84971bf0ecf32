package history

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/anatolykoptev/go_ytpulse/internal/engine/dashboard"
)

const (
	runsTable   = "ytpulse_runs"
	videosTable = "ytpulse_run_videos"

	// videosPerInsert bounds the bind parameters of one multi-row insert.
	videosPerInsert = 200
)

var (
	runColumns = []string{
		"run_id", "keyword", "search_order", "day", "generated_at",
		"total_videos", "total_views", "total_rpm",
	}
	videoColumns = []string{
		"run_id", "position", "video_id", "title", "channel_id", "channel_title",
		"country", "view_count", "estimated_rpm", "monetizable", "published",
	}
)

// rowScanner is satisfied by *sql.Row(s) and pgx.Row(s).
type rowScanner interface {
	Scan(dest ...any) error
}

// dialect holds what differs between backends: placeholders and how
// timestamps travel.
type dialect struct {
	sb       sq.StatementBuilderType
	timeArg  func(time.Time) any
	timeDest func(*time.Time) any
}

var sqliteDialect = dialect{
	sb:       sq.StatementBuilder.PlaceholderFormat(sq.Question),
	timeArg:  func(t time.Time) any { return formatSQLiteTime(t) },
	timeDest: func(t *time.Time) any { return &sqliteTime{t: t} },
}

var postgresDialect = dialect{
	sb:       sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	timeArg:  func(t time.Time) any { return t.UTC() },
	timeDest: func(t *time.Time) any { return t },
}

func (d dialect) insertRun(rep dashboard.Report) (string, []any, error) {
	ov := rep.Overview
	return d.sb.Insert(runsTable).
		Columns(runColumns...).
		Values(rep.RunID, rep.Keyword, rep.Order, rep.Day, d.timeArg(rep.GeneratedAt),
			ov.TotalVideos, ov.TotalViews, ov.TotalEstimatedRPM).
		ToSql()
}

// insertVideos builds one insert for rows, numbering positions from offset.
func (d dialect) insertVideos(runID string, rows []engine.VideoRow, offset int) (string, []any, error) {
	q := d.sb.Insert(videosTable).Columns(videoColumns...)
	for i, r := range rows {
		q = q.Values(runID, offset+i, r.VideoID, r.Title, r.ChannelID, r.ChannelTitle,
			r.Country, r.ViewCount, r.EstimatedRPM, r.Monetizable, d.timeArg(r.Published))
	}
	return q.ToSql()
}

func (d dialect) selectRuns(keyword string, limit int) (string, []any, error) {
	q := d.sb.Select(runColumns...).From(runsTable)
	if keyword != "" {
		q = q.Where(sq.Eq{"keyword": keyword})
	}
	return q.OrderBy("generated_at DESC", "run_id").
		Limit(uint64(clampLimit(limit))).
		ToSql()
}

func (d dialect) selectRunExists(runID string) (string, []any, error) {
	return d.sb.Select("1").From(runsTable).Where(sq.Eq{"run_id": runID}).ToSql()
}

func (d dialect) selectVideos(runID string) (string, []any, error) {
	return d.sb.Select(videoColumns[2:]...).
		From(videosTable).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		ToSql()
}

func (d dialect) scanRun(s rowScanner) (engine.RunSummary, error) {
	var r engine.RunSummary
	err := s.Scan(&r.RunID, &r.Keyword, &r.Order, &r.Day, d.timeDest(&r.GeneratedAt),
		&r.TotalVideos, &r.TotalViews, &r.TotalEstimatedRPM)
	return r, err
}

func (d dialect) scanVideo(s rowScanner) (engine.RunVideo, error) {
	var v engine.RunVideo
	err := s.Scan(&v.VideoID, &v.Title, &v.ChannelID, &v.ChannelTitle,
		&v.Country, &v.ViewCount, &v.EstimatedRPM, &v.Monetizable, d.timeDest(&v.Published))
	return v, err
}

// --- SQLite timestamps ---

// Fixed-width so that text order matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// sqliteTime scans a TEXT timestamp (or a driver-parsed time) into t.
type sqliteTime struct {
	t *time.Time
}

var _ sql.Scanner = (*sqliteTime)(nil)

func (s *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.t = time.Time{}
	case time.Time:
		*s.t = v.UTC()
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return fmt.Errorf("history: cannot scan %T into time", src)
	}
	return nil
}

func (s *sqliteTime) parse(v string) error {
	if v == "" {
		*s.t = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return fmt.Errorf("history: parse time %q: %w", v, err)
	}
	*s.t = t.UTC()
	return nil
}
