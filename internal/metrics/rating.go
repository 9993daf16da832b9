package metrics

import (
	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/stats"
)

// RatingCalculator combines KAST, KPR, DPR, Impact and ADR into the HLTV 2.0
// style rating. The five contribution fields plus the constant sum to the
// rating exactly; downstream consumers use them for explainability.
type RatingCalculator struct {
	cfg Config
}

func NewRatingCalculator(cfg Config) *RatingCalculator {
	return &RatingCalculator{cfg: cfg}
}

func (c *RatingCalculator) Calculate(kast models.KASTMetrics, combat models.CombatMetrics, impact models.ImpactMetrics) models.RatingMetrics {
	contrib := models.RatingContributions{
		KAST:   c.cfg.RatingKASTCoeff * stats.Finite(kast.Percentage),
		KPR:    c.cfg.RatingKPRCoeff * stats.Finite(combat.KPR),
		DPR:    -c.cfg.RatingDPRCoeff * stats.Finite(combat.DPR),
		Impact: c.cfg.RatingImpactCoeff * stats.Finite(impact.Score),
		ADR:    c.cfg.RatingADRCoeff * stats.Finite(combat.ADR),
	}

	rating := contrib.KAST + contrib.KPR + contrib.DPR + contrib.Impact + contrib.ADR + c.cfg.RatingConstant

	return models.RatingMetrics{
		Value:         rating,
		Percentile:    c.cfg.ratingPercentile(rating),
		Label:         c.cfg.ratingLabel(rating),
		Contributions: contrib,
	}
}
