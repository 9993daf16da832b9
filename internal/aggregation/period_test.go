package aggregation

import (
	"errors"
	"testing"
	"time"
)

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		window     string
		wantName   string
		wantLimit  int
		wantCutoff *time.Time
		wantErr    bool
	}{
		{window: "", wantName: "all_time"},
		{window: "all_time", wantName: "all_time"},
		{window: "last_10_matches", wantName: "last_10_matches", wantLimit: 10},
		{window: "last_30d", wantName: "last_30d", wantCutoff: timePtr(now.AddDate(0, 0, -30))},
		{window: "last_7d", wantName: "last_7d", wantCutoff: timePtr(now.AddDate(0, 0, -7))},
		{window: "last_0_matches", wantErr: true},
		{window: "last_-3d", wantErr: true},
		{window: "yesterday", wantErr: true},
		{window: "last_things", wantErr: true},
	}
	for _, tc := range tests {
		p, err := ResolvePeriod(tc.window, now)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownWindow) {
				t.Errorf("%q: error = %v, want ErrUnknownWindow", tc.window, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.window, err)
			continue
		}
		if p.Name != tc.wantName {
			t.Errorf("%q: name = %s, want %s", tc.window, p.Name, tc.wantName)
		}
		if p.MatchLimit != tc.wantLimit {
			t.Errorf("%q: match limit = %d, want %d", tc.window, p.MatchLimit, tc.wantLimit)
		}
		if (p.DateCutoff == nil) != (tc.wantCutoff == nil) {
			t.Errorf("%q: cutoff = %v, want %v", tc.window, p.DateCutoff, tc.wantCutoff)
		} else if tc.wantCutoff != nil && !p.DateCutoff.Equal(*tc.wantCutoff) {
			t.Errorf("%q: cutoff = %v, want %v", tc.window, p.DateCutoff, tc.wantCutoff)
		}
		if p.MatchLimit > 0 && p.DateCutoff != nil {
			t.Errorf("%q: match limit and date cutoff both set", tc.window)
		}
	}
}

func timePtr(t time.Time) *time.Time { return &t }
