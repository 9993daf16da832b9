// Package metrics implements the per-match calculation pipeline: one
// preprocessing pass over a player's round and kill records feeds the
// combat, KAST, impact, rating, trade, opening and clutch calculators,
// producing a single immutable PlayerMatchMetrics.
package metrics

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/stats"
)

// Calculator orchestrates the individual calculators over one shared
// ProcessedMatchData so nothing is recomputed. It is pure and safe for
// concurrent use across (player, match) keys.
type Calculator struct {
	cfg      Config
	combat   *CombatCalculator
	kast     *KASTCalculator
	impact   *ImpactCalculator
	rating   *RatingCalculator
	trades   *TradeCalculator
	openings *OpeningCalculator
	clutches *ClutchCalculator
	logger   *zap.SugaredLogger
}

func NewCalculator(cfg Config, logger *zap.Logger) *Calculator {
	return &Calculator{
		cfg:      cfg,
		combat:   NewCombatCalculator(cfg),
		kast:     NewKASTCalculator(cfg),
		impact:   NewImpactCalculator(cfg),
		rating:   NewRatingCalculator(cfg),
		trades:   NewTradeCalculator(cfg),
		openings: NewOpeningCalculator(cfg),
		clutches: NewClutchCalculator(cfg),
		logger:   logger.Sugar(),
	}
}

// Calculate produces the full metrics record for one player in one match.
// rounds must be this player's round records; kills is the match's complete
// kill list.
func (c *Calculator) Calculate(steamID, matchID string, rounds []models.RoundRecord, kills []models.KillRecord, tickRate float64) (*models.PlayerMatchMetrics, error) {
	d, err := Preprocess(c.cfg, steamID, rounds, kills, tickRate)
	if err != nil {
		return nil, fmt.Errorf("preprocess %s/%s: %w", steamID, matchID, err)
	}

	m := &models.PlayerMatchMetrics{
		SteamID: steamID,
		MatchID: matchID,
	}

	m.Combat = c.combat.Calculate(d)
	m.KAST = c.kast.Calculate(d)
	m.Impact = c.impact.Calculate(d)
	m.Rating = c.rating.Calculate(m.KAST, m.Combat, m.Impact)
	m.Trades = c.trades.Calculate(d)
	m.Openings = c.openings.Calculate(d)
	m.Clutches = c.clutches.Calculate(d)
	m.Utility = c.utilityMetrics(d)
	m.Economy = c.economyMetrics(d)
	m.Rounds = c.roundPerformance(d)
	m.Meta = c.calculationMeta(d)

	c.logger.Debugw("Calculated match metrics",
		"steam_id", steamID,
		"match_id", matchID,
		"rounds", d.TotalRounds,
		"rating", m.Rating.Value,
	)

	return m, nil
}

func (c *Calculator) utilityMetrics(d *ProcessedMatchData) models.UtilityMetrics {
	var u models.UtilityMetrics
	for _, kills := range d.KillsByRound {
		for _, k := range kills {
			if k.AssisterSteamID == d.SteamID && k.FlashAssist {
				u.FlashAssists++
			}
			if k.AttackerSteamID != d.SteamID {
				continue
			}
			if k.ThruSmoke {
				u.ThruSmokeKills++
			}
			if k.AttackerBlind {
				u.BlindKills++
			}
			if k.Noscope {
				u.NoscopeKills++
			}
		}
	}
	return u
}

func (c *Calculator) economyMetrics(d *ProcessedMatchData) models.EconomyMetrics {
	e := models.EconomyMetrics{
		AvgEquipValue: stats.SafeDiv(float64(d.EquipValueSum), float64(d.TotalRounds)),
	}
	for _, rn := range d.RoundNumbers {
		switch v := d.RoundsByNumber[rn].EquipValue; {
		case v >= c.cfg.FullBuyEquipValue:
			e.FullBuyRounds++
		case v >= c.cfg.ForceBuyEquipValue:
			e.ForceBuyRounds++
		case v >= c.cfg.SemiEcoEquipValue:
			e.SemiEcoRounds++
		default:
			e.EcoRounds++
		}
	}
	return e
}

func (c *Calculator) roundPerformance(d *ProcessedMatchData) []models.RoundPerformance {
	out := make([]models.RoundPerformance, 0, d.TotalRounds)
	for _, rn := range d.RoundNumbers {
		r := d.RoundsByNumber[rn]
		_, traded := d.TradedRounds[rn]
		out = append(out, models.RoundPerformance{
			RoundNumber:  rn,
			Side:         r.Side,
			Kills:        r.Kills,
			Deaths:       r.Deaths,
			Assists:      r.Assists,
			Damage:       r.Damage,
			Survived:     r.Survived,
			Traded:       traded,
			KASTPositive: r.Kills > 0 || r.Assists > 0 || r.Survived || traded,
		})
	}
	return out
}

// calculationMeta scores how trustworthy the input looked. Missing tick data
// weakens trade detection; kill rounds without damage suggest an incomplete
// damage feed.
func (c *Calculator) calculationMeta(d *ProcessedMatchData) models.CalculationMeta {
	meta := models.CalculationMeta{
		RoundsAnalyzed: d.TotalRounds,
		DataQuality:    100,
	}

	ticklessKills := 0
	for _, kills := range d.KillsByRound {
		meta.KillEvents += len(kills)
		for _, k := range kills {
			if k.Tick <= 0 {
				ticklessKills++
			}
		}
	}
	if ticklessKills > 0 {
		meta.DataQuality -= 20
		meta.Warnings = append(meta.Warnings,
			fmt.Sprintf("%d kill events without tick data; trade detection degraded", ticklessKills))
	}

	zeroDamageKillRounds := 0
	for _, rn := range d.RoundNumbers {
		r := d.RoundsByNumber[rn]
		if r.Kills > 0 && r.Damage == 0 {
			zeroDamageKillRounds++
		}
	}
	if zeroDamageKillRounds > 0 {
		meta.DataQuality -= 10
		meta.Warnings = append(meta.Warnings,
			fmt.Sprintf("%d rounds with kills but no damage recorded", zeroDamageKillRounds))
	}

	if meta.KillEvents == 0 {
		meta.DataQuality -= 30
		meta.Warnings = append(meta.Warnings, "no kill events supplied; trade and utility stats unavailable")
	}

	if meta.DataQuality < 0 {
		meta.DataQuality = 0
	}
	return meta
}
