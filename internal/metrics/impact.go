package metrics

import (
	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/stats"
)

// ImpactCalculator scores round-winning contribution from kill/assist rates
// plus multi-kill and opening-duel bonuses. Clutch impact is tracked as its
// own field and stays 0 until dedicated clutch-by-round data exists.
type ImpactCalculator struct {
	cfg Config
}

func NewImpactCalculator(cfg Config) *ImpactCalculator {
	return &ImpactCalculator{cfg: cfg}
}

func (c *ImpactCalculator) Calculate(d *ProcessedMatchData) models.ImpactMetrics {
	rounds := float64(d.TotalRounds)

	kpr := stats.SafeDiv(float64(d.Kills), rounds)
	apr := stats.SafeDiv(float64(d.Assists), rounds)

	multiKill := stats.SafeDiv(
		c.cfg.MultiKill2KWeight*float64(d.MultiKills.TwoK)+
			c.cfg.MultiKill3KWeight*float64(d.MultiKills.ThreeK)+
			c.cfg.MultiKill4KWeight*float64(d.MultiKills.FourK)+
			c.cfg.MultiKillAceWeight*float64(d.MultiKills.Ace),
		rounds)

	opening := c.openingImpact(d.OpeningWins, d.OpeningLosses, rounds)

	score := c.cfg.ImpactKPRWeight*kpr + c.cfg.ImpactAPRWeight*apr - c.cfg.ImpactConstant + multiKill + opening

	return models.ImpactMetrics{
		Score:           stats.Finite(score),
		MultiKillImpact: multiKill,
		OpeningImpact:   opening,
		ClutchImpact:    0,
	}
}

// openingImpact is shared with the openings calculator so the two report the
// same number.
func (c *ImpactCalculator) openingImpact(wins, losses int, rounds float64) float64 {
	return stats.SafeDiv(
		c.cfg.OpeningWinWeight*float64(wins)-c.cfg.OpeningLossWeight*float64(losses),
		rounds)
}
