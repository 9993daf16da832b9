package metrics

import (
	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/stats"
)

// OpeningCalculator turns first-kill/first-death flags into opening duel
// stats. RatingImpact reuses the opening term of the impact formula.
type OpeningCalculator struct {
	cfg Config
}

func NewOpeningCalculator(cfg Config) *OpeningCalculator {
	return &OpeningCalculator{cfg: cfg}
}

func (c *OpeningCalculator) Calculate(d *ProcessedMatchData) models.OpeningMetrics {
	attempts := d.OpeningWins + d.OpeningLosses
	return models.OpeningMetrics{
		Wins:     d.OpeningWins,
		Losses:   d.OpeningLosses,
		Attempts: attempts,
		WinRate:  stats.SafeDiv(float64(d.OpeningWins), float64(attempts)) * 100,
		RatingImpact: stats.SafeDiv(
			c.cfg.OpeningWinWeight*float64(d.OpeningWins)-c.cfg.OpeningLossWeight*float64(d.OpeningLosses),
			float64(d.TotalRounds)),
	}
}
