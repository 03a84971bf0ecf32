package dashboard

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
)

// RevenueBand applies Rate (USD per 1000 views) to view counts below Below.
type RevenueBand struct {
	Below int64
	Rate  float64
}

// RevenueModel is a coarse step-function estimate of ad revenue from views.
// The constants are heuristics, not an advertising model.
type RevenueModel struct {
	MonetizeThreshold int64         // views needed before any revenue
	Bands             []RevenueBand // ascending by Below
	TopRate           float64       // rate at or above the last band
	Scale             float64       // caller multiplier, must be > 0
}

// DefaultRevenueModel returns the 0.5 / 1.5 / 3.5 per-thousand bands.
func DefaultRevenueModel() RevenueModel {
	return RevenueModel{
		MonetizeThreshold: 1000,
		Bands: []RevenueBand{
			{Below: 5000, Rate: 0.5},
			{Below: 10000, Rate: 1.5},
		},
		TopRate: 3.5,
		Scale:   1.0,
	}
}

// ErrInvalidModel is returned by Validate.
var ErrInvalidModel = errors.New("dashboard: invalid revenue model")

func (m RevenueModel) Validate() error {
	if !(m.Scale > 0) || math.IsInf(m.Scale, 0) {
		return fmt.Errorf("%w: scale must be > 0, got %v", ErrInvalidModel, m.Scale)
	}
	if m.MonetizeThreshold < 0 {
		return fmt.Errorf("%w: negative monetize threshold", ErrInvalidModel)
	}
	prev := int64(math.MinInt64)
	for _, b := range m.Bands {
		if b.Below <= prev {
			return fmt.Errorf("%w: bands must ascend", ErrInvalidModel)
		}
		if b.Rate < 0 {
			return fmt.Errorf("%w: negative rate", ErrInvalidModel)
		}
		prev = b.Below
	}
	if m.TopRate < 0 {
		return fmt.Errorf("%w: negative top rate", ErrInvalidModel)
	}
	return nil
}

// Monetizable reports whether views reach the threshold.
func (m RevenueModel) Monetizable(views int64) bool {
	return views >= m.MonetizeThreshold
}

// EstimateRPM returns the scaled revenue estimate in USD, rounded to cents.
func (m RevenueModel) EstimateRPM(views int64) float64 {
	if !m.Monetizable(views) {
		return 0
	}
	rate := m.TopRate
	for _, b := range m.Bands {
		if views < b.Below {
			rate = b.Rate
			break
		}
	}
	return roundTo(float64(views)*rate/1000*m.Scale, 2)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ParsePublished parses an RFC 3339 publish time. Unparsable input yields
// the zero time, which sorts after every real timestamp.
func ParsePublished(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Derive fills the derived columns and returns a new slice sorted by publish
// time, newest first, ties broken by video ID. Input rows are not modified.
func Derive(rows []engine.VideoRow, m RevenueModel, now time.Time) []engine.VideoRow {
	out := make([]engine.VideoRow, len(rows))
	copy(out, rows)

	for i := range out {
		r := &out[i]
		r.Published = ParsePublished(r.PublishedAt)
		r.EstimatedRPM = m.EstimateRPM(r.ViewCount)
		r.Monetizable = m.Monetizable(r.ViewCount)
		r.HoursToThousand = nil
		if r.Monetizable && !r.Published.IsZero() {
			h := roundTo(math.Max(0, now.Sub(r.Published).Hours()), 1)
			r.HoursToThousand = &h
		}
	}

	SortByPublished(out)
	return out
}

// SortByPublished orders rows newest first; equal times fall back to video ID.
func SortByPublished(rows []engine.VideoRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Published, rows[j].Published
		if !a.Equal(b) {
			return a.After(b)
		}
		return rows[i].VideoID < rows[j].VideoID
	})
}
