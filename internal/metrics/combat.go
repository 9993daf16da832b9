package metrics

import (
	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/stats"
)

// CombatCalculator derives the basic rate stats. Every division is guarded
// to 0; KD with zero deaths reports raw kills.
type CombatCalculator struct {
	cfg Config
}

func NewCombatCalculator(cfg Config) *CombatCalculator {
	return &CombatCalculator{cfg: cfg}
}

func (c *CombatCalculator) Calculate(d *ProcessedMatchData) models.CombatMetrics {
	rounds := float64(d.TotalRounds)

	kd := float64(d.Kills)
	if d.Deaths > 0 {
		kd = float64(d.Kills) / float64(d.Deaths)
	}

	return models.CombatMetrics{
		Kills:         d.Kills,
		Deaths:        d.Deaths,
		Assists:       d.Assists,
		HeadshotKills: d.HeadshotKills,
		SniperKills:   d.SniperKills,
		TotalDamage:   d.Damage,
		KD:            kd,
		KPR:           stats.SafeDiv(float64(d.Kills), rounds),
		DPR:           stats.SafeDiv(float64(d.Deaths), rounds),
		APR:           stats.SafeDiv(float64(d.Assists), rounds),
		ADR:           stats.SafeDiv(float64(d.Damage), rounds),
		HSPercent:     stats.SafeDiv(float64(d.HeadshotKills), float64(d.Kills)) * 100,
		MultiKills:    d.MultiKills,
	}
}
