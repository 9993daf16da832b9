package metrics

import (
	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/stats"
)

// ClutchCalculator counts clutch situations from the round records. A round
// is an attempt iff ClutchVs is positive; the 1vN breakdown compares against
// fixed expected success baselines.
type ClutchCalculator struct {
	cfg Config
}

func NewClutchCalculator(cfg Config) *ClutchCalculator {
	return &ClutchCalculator{cfg: cfg}
}

func (c *ClutchCalculator) Calculate(d *ProcessedMatchData) models.ClutchMetrics {
	var attempts, won int
	attemptsByVs := make(map[int]int)
	wonByVs := make(map[int]int)

	for _, rn := range d.RoundNumbers {
		r := d.RoundsByNumber[rn]
		if r.ClutchVs <= 0 {
			continue
		}
		attempts++
		attemptsByVs[r.ClutchVs]++
		if r.ClutchWon {
			won++
			wonByVs[r.ClutchVs]++
		}
	}

	var breakdown []models.ClutchVsSplit
	for vs := 1; vs <= 5; vs++ {
		a := attemptsByVs[vs]
		if a == 0 {
			continue
		}
		w := wonByVs[vs]
		rate := stats.SafeDiv(float64(w), float64(a)) * 100
		expected := c.cfg.ClutchExpectedRates[vs-1]
		breakdown = append(breakdown, models.ClutchVsSplit{
			Versus:       vs,
			Attempts:     a,
			Won:          w,
			SuccessRate:  rate,
			ExpectedRate: expected,
			OverExpected: rate - expected,
		})
	}

	return models.ClutchMetrics{
		Attempts:    attempts,
		Won:         won,
		SuccessRate: stats.SafeDiv(float64(won), float64(attempts)) * 100,
		Breakdown:   breakdown,
	}
}
