package dashboard

import (
	"strings"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
)

// AllCountries disables the country filter.
const AllCountries = "All"

// Filter narrows a report for display. The zero Filter keeps every row.
type Filter struct {
	TitleKeyword    string  // case-insensitive substring of the title
	Channel         string  // case-insensitive substring of the channel name
	Country         string  // exact country code; "" or "All" = any
	MinRPM          float64 // estimated RPM at least this much
	OnlyMonetizable bool
}

// Match reports whether r passes every active criterion.
func (f Filter) Match(r engine.VideoRow) bool {
	if kw := strings.TrimSpace(f.TitleKeyword); kw != "" && !containsFold(r.Title, kw) {
		return false
	}
	if ch := strings.TrimSpace(f.Channel); ch != "" && !containsFold(r.ChannelTitle, ch) {
		return false
	}
	if c := strings.TrimSpace(f.Country); c != "" && !strings.EqualFold(c, AllCountries) && !strings.EqualFold(r.Country, c) {
		return false
	}
	if f.MinRPM > 0 && r.EstimatedRPM < f.MinRPM {
		return false
	}
	if f.OnlyMonetizable && !r.Monetizable {
		return false
	}
	return true
}

// Apply returns the matching rows in input order.
func (f Filter) Apply(rows []engine.VideoRow) []engine.VideoRow {
	out := make([]engine.VideoRow, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
