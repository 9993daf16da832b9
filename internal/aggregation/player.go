// Package aggregation folds per-match metric records over a named window
// into player and team profile documents. Aggregators are pure and safe to
// run in parallel across (entity, window) keys; all I/O lives in Service.
package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/roles"
	"github.com/fraghub/metrics-api/internal/stats"
)

type PlayerAggregator struct {
	cfg        Config
	classifier *roles.Classifier
}

func NewPlayerAggregator(cfg Config, classifier *roles.Classifier) *PlayerAggregator {
	return &PlayerAggregator{cfg: cfg, classifier: classifier}
}

// Aggregate builds a full player profile from the matches that fall inside
// the period. Returns ErrNoMatches when the filtered set is empty.
func (a *PlayerAggregator) Aggregate(steamID string, period models.AggregationPeriod, matches []models.MatchRecord, peers []models.PeerSummary) (*models.AggregatedPlayerProfile, error) {
	matches = filterMatches(period, matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("player %s window %s: %w", steamID, period.Name, ErrNoMatches)
	}

	totalRounds := 0
	for _, m := range matches {
		totalRounds += m.Rounds
	}
	bindPeriodBounds(&period, matches[0].PlayedAt, matches[len(matches)-1].PlayedAt, len(matches), totalRounds)

	ratings := make([]float64, len(matches))
	outcomes := make([]bool, len(matches))
	for i, m := range matches {
		ratings[i] = m.Metrics.Rating.Value
		outcomes[i] = m.Won
	}

	sides := a.sideSplit(matches)

	profile := &models.AggregatedPlayerProfile{
		SteamID:            steamID,
		Period:             period,
		Performance:        a.performance(matches, ratings, outcomes),
		Form:               a.form(ratings, outcomes),
		Percentiles:        a.peerPercentiles(matches, peers),
		Role:               a.classifier.Classify(a.roleInput(matches, totalRounds, sides)),
		Maps:               a.mapSplits(matches),
		Sides:              sides,
		Economy:            a.economySplit(matches, totalRounds),
		RatingDistribution: a.ratingDistribution(ratings),
		GeneratedAt:        time.Now().UTC(),
	}
	return profile, nil
}

// filterMatches applies the period filter and returns the survivors sorted
// ascending by played-at. A match limit keeps the most recent N.
func filterMatches(period models.AggregationPeriod, matches []models.MatchRecord) []models.MatchRecord {
	out := make([]models.MatchRecord, 0, len(matches))
	for _, m := range matches {
		if period.DateCutoff != nil && m.PlayedAt.Before(*period.DateCutoff) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PlayedAt.Equal(out[j].PlayedAt) {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].PlayedAt.Before(out[j].PlayedAt)
	})
	if period.MatchLimit > 0 && len(out) > period.MatchLimit {
		out = out[len(out)-period.MatchLimit:]
	}
	return out
}

func (a *PlayerAggregator) performance(matches []models.MatchRecord, ratings []float64, outcomes []bool) models.PerformanceSummary {
	n := len(matches)
	kast := make([]float64, n)
	adr := make([]float64, n)
	kd := make([]float64, n)
	hs := make([]float64, n)
	weights := make([]float64, n)
	wins := 0
	for i, m := range matches {
		kast[i] = m.Metrics.KAST.Percentage
		adr[i] = m.Metrics.Combat.ADR
		kd[i] = m.Metrics.Combat.KD
		hs[i] = m.Metrics.Combat.HSPercent
		weights[i] = float64(m.Rounds)
		if outcomes[i] {
			wins++
		}
	}

	cv := stats.CoefficientOfVariation(ratings)
	consistency := 100 * (1 - a.cfg.ConsistencyCVMultiplier*cv)
	if consistency < 0 {
		consistency = 0
	}

	return models.PerformanceSummary{
		AvgRating:              stats.Mean(ratings),
		AvgKAST:                stats.Mean(kast),
		AvgADR:                 stats.Mean(adr),
		AvgKD:                  stats.Mean(kd),
		AvgHS:                  stats.Mean(hs),
		WeightedRating:         stats.WeightedMean(ratings, weights),
		RatingStdDev:           stats.StdDev(ratings),
		CoefficientOfVariation: cv,
		Consistency:            consistency,
		Floor:                  stats.Percentile(ratings, a.cfg.FloorPercentile),
		Ceiling:                stats.Percentile(ratings, a.cfg.CeilingPercentile),
		WinRate:                stats.SafeDiv(float64(wins), float64(n)) * 100,
	}
}

// form classifies the rating trajectory. The trend label needs enough
// explained variance; the extreme form labels additionally need the short
// window to confirm the direction.
func (a *PlayerAggregator) form(ratings []float64, outcomes []bool) models.FormSummary {
	x := make([]float64, len(ratings))
	for i := range x {
		x[i] = float64(i)
	}
	reg := stats.LinearRegression(x, ratings)

	trend := "stable"
	if len(ratings) >= 2 && reg.RSquared >= a.cfg.TrendMinRSquared {
		if reg.Slope > 0 {
			trend = "improving"
		} else if reg.Slope < 0 {
			trend = "declining"
		}
	}

	overall := stats.Mean(ratings)
	recent := stats.Mean(tail(ratings, a.cfg.RecentWindow))
	short := stats.Mean(tail(ratings, a.cfg.ShortWindow))

	streaks := stats.Streaks(outcomes)
	return models.FormSummary{
		Trend:             trend,
		Slope:             reg.Slope,
		RSquared:          reg.RSquared,
		Form:              a.formLabel(recent, short, overall),
		RecentAvg:         recent,
		OverallAvg:        overall,
		CurrentStreak:     streaks.Current,
		LongestWinStreak:  streaks.LongestWin,
		LongestLossStreak: streaks.LongestLoss,
	}
}

func (a *PlayerAggregator) formLabel(recent, short, overall float64) string {
	if overall <= 0 {
		return "average"
	}
	ratio := recent / overall
	shortRatio := short / overall
	switch {
	case ratio >= a.cfg.OnFireRatio:
		if shortRatio >= a.cfg.OnFireShortRatio {
			return "on_fire"
		}
		return "hot"
	case ratio >= a.cfg.HotRatio:
		return "hot"
	case ratio >= a.cfg.WarmRatio:
		return "warm"
	case ratio >= a.cfg.AverageRatio:
		return "average"
	case ratio >= a.cfg.ColdRatio:
		return "cold"
	default:
		if shortRatio <= a.cfg.IceColdShortRatio {
			return "ice_cold"
		}
		return "cold"
	}
}

func (a *PlayerAggregator) peerPercentiles(matches []models.MatchRecord, peers []models.PeerSummary) models.PeerPercentiles {
	var ratingPop, kastPop, adrPop, kdPop []float64
	for _, p := range peers {
		ratingPop = append(ratingPop, p.AvgRating)
		kastPop = append(kastPop, p.AvgKAST)
		adrPop = append(adrPop, p.AvgADR)
		kdPop = append(kdPop, p.AvgKD)
	}

	var rating, kast, adr, kd []float64
	for _, m := range matches {
		rating = append(rating, m.Metrics.Rating.Value)
		kast = append(kast, m.Metrics.KAST.Percentage)
		adr = append(adr, m.Metrics.Combat.ADR)
		kd = append(kd, m.Metrics.Combat.KD)
	}

	return models.PeerPercentiles{
		Rating:    stats.PercentileRank(ratingPop, stats.Mean(rating)),
		KAST:      stats.PercentileRank(kastPop, stats.Mean(kast)),
		ADR:       stats.PercentileRank(adrPop, stats.Mean(adr)),
		KD:        stats.PercentileRank(kdPop, stats.Mean(kd)),
		PeerCount: len(peers),
	}
}

// roleInput reduces the match set to the per-round rates the classifier
// consumes. Everything is recomputed from scratch on each aggregation.
func (a *PlayerAggregator) roleInput(matches []models.MatchRecord, totalRounds int, sides models.SideSplit) models.RoleDetectionInput {
	var kills, deaths, assists, damage int
	var sniperKills, flashAssists int
	var openingAttempts, openingWins int
	var clutchAttempts, clutchWins int
	var tradesReceived, survivedRounds int

	for _, m := range matches {
		c := m.Metrics.Combat
		kills += c.Kills
		deaths += c.Deaths
		assists += c.Assists
		damage += c.TotalDamage
		sniperKills += c.SniperKills
		flashAssists += m.Metrics.Utility.FlashAssists
		openingAttempts += m.Metrics.Openings.Attempts
		openingWins += m.Metrics.Openings.Wins
		clutchAttempts += m.Metrics.Clutches.Attempts
		clutchWins += m.Metrics.Clutches.Won
		tradesReceived += m.Metrics.Trades.TradesReceived
		survivedRounds += len(m.Metrics.KAST.Breakdown.SurvivalRounds)
	}

	rounds := float64(totalRounds)
	ctShare := 50.0
	if !sides.Approximated {
		ctShare = stats.SafeDiv(float64(sides.CTRounds), float64(sides.CTRounds+sides.TRounds)) * 100
	}

	return models.RoleDetectionInput{
		OpeningAttemptRate: stats.SafeDiv(float64(openingAttempts), rounds),
		OpeningWinRate:     stats.SafeDiv(float64(openingWins), float64(openingAttempts)) * 100,
		AWPKillShare:       stats.SafeDiv(float64(sniperKills), float64(kills)) * 100,
		FlashAssistRate:    stats.SafeDiv(float64(flashAssists), rounds),
		AssistRate:         stats.SafeDiv(float64(assists), rounds),
		TradedDeathRate:    stats.SafeDiv(float64(tradesReceived), float64(deaths)) * 100,
		ClutchAttemptRate:  stats.SafeDiv(float64(clutchAttempts), rounds),
		ClutchWinRate:      stats.SafeDiv(float64(clutchWins), float64(clutchAttempts)) * 100,
		SurvivalRate:       stats.SafeDiv(float64(survivedRounds), rounds) * 100,
		CTRoundShare:       ctShare,
		KPR:                stats.SafeDiv(float64(kills), rounds),
		DPR:                stats.SafeDiv(float64(deaths), rounds),
		ADR:                stats.SafeDiv(float64(damage), rounds),
	}
}

func (a *PlayerAggregator) mapSplits(matches []models.MatchRecord) []models.MapSplit {
	type acc struct {
		matches int
		wins    int
		rating  []float64
		adr     []float64
	}
	byMap := make(map[string]*acc)
	for _, m := range matches {
		name := m.MapName
		if name == "" {
			name = "unknown"
		}
		s, ok := byMap[name]
		if !ok {
			s = &acc{}
			byMap[name] = s
		}
		s.matches++
		if m.Won {
			s.wins++
		}
		s.rating = append(s.rating, m.Metrics.Rating.Value)
		s.adr = append(s.adr, m.Metrics.Combat.ADR)
	}

	out := make([]models.MapSplit, 0, len(byMap))
	for name, s := range byMap {
		out = append(out, models.MapSplit{
			MapName:   name,
			Matches:   s.matches,
			Wins:      s.wins,
			WinRate:   stats.SafeDiv(float64(s.wins), float64(s.matches)) * 100,
			AvgRating: stats.Mean(s.rating),
			AvgADR:    stats.Mean(s.adr),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Matches != out[j].Matches {
			return out[i].Matches > out[j].Matches
		}
		return out[i].MapName < out[j].MapName
	})
	return out
}

// sideSplit aggregates CT/T rounds and round-weighted side ratings. When no
// round carries side data the split falls back to an even approximation.
func (a *PlayerAggregator) sideSplit(matches []models.MatchRecord) models.SideSplit {
	var split models.SideSplit
	var ctRatingWeighted, tRatingWeighted float64
	totalRounds := 0

	for _, m := range matches {
		totalRounds += m.Rounds
		ct, t := 0, 0
		for _, r := range m.Metrics.Rounds {
			switch r.Side {
			case "CT":
				ct++
			case "T":
				t++
			}
		}
		split.CTRounds += ct
		split.TRounds += t
		ctRatingWeighted += m.Metrics.Rating.Value * float64(ct)
		tRatingWeighted += m.Metrics.Rating.Value * float64(t)
	}

	if split.CTRounds == 0 && split.TRounds == 0 {
		split.Approximated = true
		split.CTRounds = int(float64(totalRounds) * a.cfg.ApproxSideShare)
		split.TRounds = totalRounds - split.CTRounds
		avg := 0.0
		for _, m := range matches {
			avg += m.Metrics.Rating.Value
		}
		avg = stats.SafeDiv(avg, float64(len(matches)))
		split.CTRating = avg
		split.TRating = avg
		return split
	}

	split.CTRating = stats.SafeDiv(ctRatingWeighted, float64(split.CTRounds))
	split.TRating = stats.SafeDiv(tRatingWeighted, float64(split.TRounds))
	return split
}

func (a *PlayerAggregator) economySplit(matches []models.MatchRecord, totalRounds int) models.EconomySplit {
	var split models.EconomySplit
	var equipWeighted float64
	for _, m := range matches {
		e := m.Metrics.Economy
		split.FullBuyRounds += e.FullBuyRounds
		split.ForceBuyRounds += e.ForceBuyRounds
		split.SemiEcoRounds += e.SemiEcoRounds
		split.EcoRounds += e.EcoRounds
		equipWeighted += e.AvgEquipValue * float64(m.Rounds)
	}
	split.AvgEquipValue = stats.SafeDiv(equipWeighted, float64(totalRounds))
	return split
}

func (a *PlayerAggregator) ratingDistribution(ratings []float64) []models.RatingBucket {
	low, high := ratings[0], ratings[0]
	for _, r := range ratings[1:] {
		if r < low {
			low = r
		}
		if r > high {
			high = r
		}
	}
	if high == low {
		low -= 0.05
		high += 0.05
	}
	buckets := stats.Distribute(ratings, low, high, a.cfg.RatingBuckets)
	out := make([]models.RatingBucket, len(buckets))
	for i, b := range buckets {
		out[i] = models.RatingBucket{Low: b.Low, High: b.High, Count: b.Count}
	}
	return out
}

func tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
