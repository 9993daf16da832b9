// Package roles derives role archetypes and playstyle dimensions from
// aggregated per-round rates. Classification is a fixed weighted heuristic,
// not a learned model: identical input always produces identical output.
package roles

import (
	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/stats"
)

// Feature names shared by the role and playstyle weight tables.
const (
	featOpening       = "opening_rate"
	featOpeningWin    = "opening_win"
	featPassivity     = "passivity"
	featAWP           = "awp_share"
	featFlash         = "flash_rate"
	featAssist        = "assist_rate"
	featTradedDeath   = "traded_death"
	featClutchAttempt = "clutch_attempt"
	featClutchWin     = "clutch_win"
	featSurvival      = "survival"
	featCTShare       = "ct_share"
	featKPR           = "kpr"
	featDPR           = "dpr"
	featADR           = "adr"
)

// Weight binds one normalized feature to its share of a score. Tables are
// ordered slices so scoring never depends on map iteration order.
type Weight struct {
	Feature string
	Value   float64
}

// Config carries the thresholds and every weight table. Normalization caps
// turn raw rates into [0,100] features; they are constants, never fitted.
type Config struct {
	MinPrimaryRoleScore float64
	// Secondary role must reach this share of the primary score...
	SecondaryRelativeShare float64
	// ...and this share of the primary threshold.
	SecondaryAbsoluteShare float64

	OpeningRateCap   float64 // opening attempts per round at 100
	FlashRateCap     float64 // flash assists per round at 100
	AssistRateCap    float64 // assists per round at 100
	ClutchAttemptCap float64 // clutch situations per round at 100
	KPRCap           float64
	DPRCap           float64
	ADRCap           float64

	EntryWeights   []Weight
	AWPerWeights   []Weight
	SupportWeights []Weight
	LurkerWeights  []Weight
	AnchorWeights  []Weight

	AggressionWeights    []Weight
	PositioningWeights   []Weight
	UtilityUsageWeights  []Weight
	TeamPlayWeights      []Weight
	ClutchAbilityWeights []Weight
}

func DefaultConfig() Config {
	return Config{
		MinPrimaryRoleScore:    40,
		SecondaryRelativeShare: 0.50,
		SecondaryAbsoluteShare: 0.75,

		OpeningRateCap:   0.25,
		FlashRateCap:     0.15,
		AssistRateCap:    0.30,
		ClutchAttemptCap: 0.10,
		KPRCap:           1.0,
		DPRCap:           1.0,
		ADRCap:           110,

		EntryWeights: []Weight{
			{featOpening, 0.45},
			{featKPR, 0.20},
			{featTradedDeath, 0.20},
			{featOpeningWin, 0.15},
		},
		AWPerWeights: []Weight{
			{featAWP, 0.60},
			{featOpening, 0.15},
			{featADR, 0.15},
			{featSurvival, 0.10},
		},
		SupportWeights: []Weight{
			{featFlash, 0.40},
			{featAssist, 0.35},
			{featPassivity, 0.25},
		},
		LurkerWeights: []Weight{
			{featPassivity, 0.30},
			{featClutchAttempt, 0.30},
			{featSurvival, 0.20},
			{featClutchWin, 0.20},
		},
		AnchorWeights: []Weight{
			{featCTShare, 0.35},
			{featSurvival, 0.25},
			{featClutchAttempt, 0.20},
			{featPassivity, 0.20},
		},

		AggressionWeights: []Weight{
			{featOpening, 0.50},
			{featKPR, 0.30},
			{featDPR, 0.20},
		},
		PositioningWeights: []Weight{
			{featSurvival, 0.60},
			{featPassivity, 0.40},
		},
		UtilityUsageWeights: []Weight{
			{featFlash, 0.70},
			{featAssist, 0.30},
		},
		TeamPlayWeights: []Weight{
			{featAssist, 0.35},
			{featFlash, 0.35},
			{featTradedDeath, 0.30},
		},
		ClutchAbilityWeights: []Weight{
			{featClutchWin, 0.60},
			{featClutchAttempt, 0.40},
		},
	}
}

type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify maps the detection input to role scores, the primary/secondary
// assignment and the playstyle profile.
func (c *Classifier) Classify(in models.RoleDetectionInput) models.PlayerRoleAnalysis {
	f := c.features(in)

	scores := models.RoleScores{
		Entry:   weightedScore(f, c.cfg.EntryWeights),
		AWPer:   weightedScore(f, c.cfg.AWPerWeights),
		Support: weightedScore(f, c.cfg.SupportWeights),
		Lurker:  weightedScore(f, c.cfg.LurkerWeights),
		Anchor:  weightedScore(f, c.cfg.AnchorWeights),
	}

	primary, primaryScore, secondary, secondaryScore := rank(scores)

	analysis := models.PlayerRoleAnalysis{
		PrimaryRole: models.RoleHybrid,
		Scores:      scores,
		Playstyle: models.PlaystyleProfile{
			Aggression:    weightedScore(f, c.cfg.AggressionWeights),
			Positioning:   weightedScore(f, c.cfg.PositioningWeights),
			UtilityUsage:  weightedScore(f, c.cfg.UtilityUsageWeights),
			TeamPlay:      weightedScore(f, c.cfg.TeamPlayWeights),
			ClutchAbility: weightedScore(f, c.cfg.ClutchAbilityWeights),
		},
	}

	if primaryScore >= c.cfg.MinPrimaryRoleScore {
		analysis.PrimaryRole = primary
		if secondaryScore >= primaryScore*c.cfg.SecondaryRelativeShare &&
			secondaryScore >= c.cfg.MinPrimaryRoleScore*c.cfg.SecondaryAbsoluteShare {
			analysis.SecondaryRole = secondary
		}
	}

	confidence := 50 + primaryScore - secondaryScore
	if confidence > 100 {
		confidence = 100
	}
	analysis.Confidence = confidence

	return analysis
}

// features normalizes raw rates into [0,100] using the configured caps.
func (c *Classifier) features(in models.RoleDetectionInput) map[string]float64 {
	openingNorm := normalize(in.OpeningAttemptRate, c.cfg.OpeningRateCap)
	return map[string]float64{
		featOpening:       openingNorm,
		featOpeningWin:    clamp(stats.Finite(in.OpeningWinRate)),
		featPassivity:     100 - openingNorm,
		featAWP:           clamp(stats.Finite(in.AWPKillShare)),
		featFlash:         normalize(in.FlashAssistRate, c.cfg.FlashRateCap),
		featAssist:        normalize(in.AssistRate, c.cfg.AssistRateCap),
		featTradedDeath:   clamp(stats.Finite(in.TradedDeathRate)),
		featClutchAttempt: normalize(in.ClutchAttemptRate, c.cfg.ClutchAttemptCap),
		featClutchWin:     clamp(stats.Finite(in.ClutchWinRate)),
		featSurvival:      clamp(stats.Finite(in.SurvivalRate)),
		featCTShare:       clamp(stats.Finite(in.CTRoundShare)),
		featKPR:           normalize(in.KPR, c.cfg.KPRCap),
		featDPR:           normalize(in.DPR, c.cfg.DPRCap),
		featADR:           normalize(in.ADR, c.cfg.ADRCap),
	}
}

// weightedScore is the one generic scoring function every role and
// playstyle dimension goes through. It walks the table in order and clamps
// the result to [0,100].
func weightedScore(features map[string]float64, table []Weight) float64 {
	var score float64
	for _, w := range table {
		score += w.Value * features[w.Feature]
	}
	return clamp(score)
}

// rank orders the five scores with a fixed role order for ties.
func rank(s models.RoleScores) (primary string, primaryScore float64, secondary string, secondaryScore float64) {
	ordered := []struct {
		role  string
		score float64
	}{
		{models.RoleEntry, s.Entry},
		{models.RoleAWPer, s.AWPer},
		{models.RoleSupport, s.Support},
		{models.RoleLurker, s.Lurker},
		{models.RoleAnchor, s.Anchor},
	}
	for _, cand := range ordered {
		if cand.score > primaryScore {
			secondary, secondaryScore = primary, primaryScore
			primary, primaryScore = cand.role, cand.score
		} else if cand.score > secondaryScore {
			secondary, secondaryScore = cand.role, cand.score
		}
	}
	return primary, primaryScore, secondary, secondaryScore
}

func normalize(value, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return clamp(stats.Finite(value) / limit * 100)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
