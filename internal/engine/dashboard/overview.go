package dashboard

import (
	"math"
	"sort"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
)

// Summarize computes the run overview. It is meant for the unfiltered rows.
func Summarize(rows []engine.VideoRow) engine.Overview {
	ov := engine.Overview{TotalVideos: len(rows), Countries: []string{}}
	channels := make(map[string]bool)
	countries := make(map[string]bool)
	var total float64

	for i := range rows {
		r := &rows[i]
		if r.ChannelID != "" {
			channels[r.ChannelID] = true
		}
		if r.Country != "" {
			countries[r.Country] = true
		}
		if r.LiveDetailsPresent {
			ov.Livestreams++
		}
		if r.Monetizable {
			ov.MonetizableVideos++
		}
		ov.TotalViews += r.ViewCount
		total += r.EstimatedRPM
		if !r.Published.IsZero() {
			ov.HourHistogram[r.Published.UTC().Hour()]++
		}
		if r.Monetizable && r.HoursToThousand != nil && fasterThan(r, ov.FastestToThousand) {
			fastest := *r
			ov.FastestToThousand = &fastest
		}
	}

	ov.ActiveChannels = len(channels)
	ov.TotalEstimatedRPM = math.Round(total*100) / 100
	for c := range countries {
		ov.Countries = append(ov.Countries, c)
	}
	sort.Strings(ov.Countries)
	return ov
}

// fasterThan compares hours-to-1K; ties go to the earlier video ID.
func fasterThan(r *engine.VideoRow, best *engine.VideoRow) bool {
	if best == nil {
		return true
	}
	if *r.HoursToThousand != *best.HoursToThousand {
		return *r.HoursToThousand < *best.HoursToThousand
	}
	return r.VideoID < best.VideoID
}
