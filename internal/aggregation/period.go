package aggregation

import (
	"fmt"
	"strings"
	"time"

	"github.com/fraghub/metrics-api/internal/models"
)

// WindowAllTime is the default aggregation window.
const WindowAllTime = "all_time"

// ResolvePeriod parses a window name into an AggregationPeriod carrying
// either a date cutoff or a match limit, never both.
//
//	all_time        -> no filter
//	last_30d        -> DateCutoff = now - 30 days
//	last_10_matches -> MatchLimit = 10
func ResolvePeriod(window string, now time.Time) (models.AggregationPeriod, error) {
	p := models.AggregationPeriod{Name: window}

	switch {
	case window == "" || window == WindowAllTime:
		p.Name = WindowAllTime
		return p, nil

	case strings.HasPrefix(window, "last_") && strings.HasSuffix(window, "_matches"):
		var n int
		if _, err := fmt.Sscanf(window, "last_%d_matches", &n); err != nil || n <= 0 {
			return p, fmt.Errorf("%w: %q", ErrUnknownWindow, window)
		}
		p.MatchLimit = n
		return p, nil

	case strings.HasPrefix(window, "last_") && strings.HasSuffix(window, "d"):
		var days int
		if _, err := fmt.Sscanf(window, "last_%dd", &days); err != nil || days <= 0 {
			return p, fmt.Errorf("%w: %q", ErrUnknownWindow, window)
		}
		cutoff := now.AddDate(0, 0, -days)
		p.DateCutoff = &cutoff
		return p, nil
	}

	return p, fmt.Errorf("%w: %q", ErrUnknownWindow, window)
}

// bindPeriodBounds fills the derived bounds from the matches that survived
// filtering. times must already be ascending.
func bindPeriodBounds(p *models.AggregationPeriod, first, last time.Time, matches, rounds int) {
	p.FirstMatch = first
	p.LastMatch = last
	p.Matches = matches
	p.Rounds = rounds
	if matches > 0 {
		p.DaySpan = int(last.Sub(first).Hours()/24) + 1
	}
}
