package metrics

import (
	"sort"

	"github.com/fraghub/metrics-api/internal/models"
)

// KASTCalculator computes the share of rounds with a Kill, Assist, Survival
// or Trade. The four conditions are a set union: a round qualifying several
// ways is still one positive round.
type KASTCalculator struct {
	cfg Config
}

func NewKASTCalculator(cfg Config) *KASTCalculator {
	return &KASTCalculator{cfg: cfg}
}

func (c *KASTCalculator) Calculate(d *ProcessedMatchData) models.KASTMetrics {
	positive := make(map[int]struct{}, d.TotalRounds)
	for rn := range d.KillRounds {
		positive[rn] = struct{}{}
	}
	for rn := range d.AssistRounds {
		positive[rn] = struct{}{}
	}
	for rn := range d.SurvivalRounds {
		positive[rn] = struct{}{}
	}
	for rn := range d.TradedRounds {
		positive[rn] = struct{}{}
	}

	var zeroImpact []int
	for _, rn := range d.RoundNumbers {
		if _, ok := positive[rn]; !ok {
			zeroImpact = append(zeroImpact, rn)
		}
	}

	pct := 0.0
	if d.TotalRounds > 0 {
		pct = float64(len(positive)) / float64(d.TotalRounds) * 100
	}

	return models.KASTMetrics{
		Percentage:     pct,
		PositiveRounds: len(positive),
		TotalRounds:    d.TotalRounds,
		Breakdown: models.KASTBreakdown{
			KillRounds:     sortedRounds(d.KillRounds),
			AssistRounds:   sortedRounds(d.AssistRounds),
			SurvivalRounds: sortedRounds(d.SurvivalRounds),
			TradedRounds:   sortedRounds(d.TradedRounds),
		},
		ZeroImpactRounds: zeroImpact,
	}
}

func sortedRounds(set map[int]struct{}) []int {
	if len(set) == 0 {
		return nil
	}
	out := make([]int, 0, len(set))
	for rn := range set {
		out = append(out, rn)
	}
	sort.Ints(out)
	return out
}
