package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/stats"
)

type TeamAggregator struct {
	cfg Config
}

func NewTeamAggregator(cfg Config) *TeamAggregator {
	return &TeamAggregator{cfg: cfg}
}

// Aggregate builds a team profile from the matches inside the period.
// Team-level rating for a match is the mean of the roster's match ratings.
func (a *TeamAggregator) Aggregate(teamID string, period models.AggregationPeriod, matches []models.TeamMatchRecord) (*models.AggregatedTeamProfile, error) {
	matches = filterTeamMatches(period, matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("team %s window %s: %w", teamID, period.Name, ErrNoMatches)
	}

	totalRounds := 0
	for _, m := range matches {
		totalRounds += m.Rounds
	}
	bindPeriodBounds(&period, matches[0].PlayedAt, matches[len(matches)-1].PlayedAt, len(matches), totalRounds)

	ratings := make([]float64, len(matches))
	outcomes := make([]bool, len(matches))
	for i, m := range matches {
		ratings[i] = teamRating(m)
		outcomes[i] = m.Won
	}

	// Player-level machinery is reused for the shared sections.
	pa := &PlayerAggregator{cfg: a.cfg}

	profile := &models.AggregatedTeamProfile{
		TeamID:        teamID,
		Period:        period,
		Performance:   a.performance(matches, ratings, outcomes),
		Form:          pa.form(ratings, outcomes),
		Maps:          a.mapSplits(matches),
		Synergy:       a.pairSynergy(matches),
		RosterRatings: a.rosterRatings(matches),
		GeneratedAt:   time.Now().UTC(),
	}
	return profile, nil
}

func filterTeamMatches(period models.AggregationPeriod, matches []models.TeamMatchRecord) []models.TeamMatchRecord {
	out := make([]models.TeamMatchRecord, 0, len(matches))
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

func teamRating(m models.TeamMatchRecord) float64 {
	var sum float64
	for _, p := range m.Players {
		sum += p.Rating.Value
	}
	return stats.SafeDiv(sum, float64(len(m.Players)))
}

func (a *TeamAggregator) performance(matches []models.TeamMatchRecord, ratings []float64, outcomes []bool) models.PerformanceSummary {
	n := len(matches)
	kast := make([]float64, n)
	adr := make([]float64, n)
	kd := make([]float64, n)
	hs := make([]float64, n)
	weights := make([]float64, n)
	wins := 0
	for i, m := range matches {
		var kastSum, adrSum, hsSum float64
		var kills, deaths int
		for _, p := range m.Players {
			kastSum += p.KAST.Percentage
			adrSum += p.Combat.ADR
			hsSum += p.Combat.HSPercent
			kills += p.Combat.Kills
			deaths += p.Combat.Deaths
		}
		players := float64(len(m.Players))
		kast[i] = stats.SafeDiv(kastSum, players)
		adr[i] = stats.SafeDiv(adrSum, players)
		hs[i] = stats.SafeDiv(hsSum, players)
		if deaths > 0 {
			kd[i] = float64(kills) / float64(deaths)
		} else {
			kd[i] = float64(kills)
		}
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

func (a *TeamAggregator) mapSplits(matches []models.TeamMatchRecord) []models.MapSplit {
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
		s.rating = append(s.rating, teamRating(m))
		var adrSum float64
		for _, p := range m.Players {
			adrSum += p.Combat.ADR
		}
		s.adr = append(s.adr, stats.SafeDiv(adrSum, float64(len(m.Players))))
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

// pairSynergy scores every unique player pair across the match set. The
// trade and flash-assist rates are per shared round; pairs below the shared
// match minimum are dropped.
func (a *TeamAggregator) pairSynergy(matches []models.TeamMatchRecord) []models.PairSynergy {
	type acc struct {
		shared       int
		sharedRounds int
		trades       int
		flashAssists int
	}
	pairs := make(map[[2]string]*acc)

	for _, m := range matches {
		for i := 0; i < len(m.Players); i++ {
			for j := i + 1; j < len(m.Players); j++ {
				a1, b := m.Players[i], m.Players[j]
				key := pairKey(a1.SteamID, b.SteamID)
				p, ok := pairs[key]
				if !ok {
					p = &acc{}
					pairs[key] = p
				}
				p.shared++
				p.sharedRounds += m.Rounds
				p.trades += a1.Trades.TradesReceived + b.Trades.TradesReceived
				p.flashAssists += a1.Utility.FlashAssists + b.Utility.FlashAssists
			}
		}
	}

	out := make([]models.PairSynergy, 0, len(pairs))
	for key, p := range pairs {
		if p.shared < a.cfg.MinSharedMatches {
			continue
		}
		rounds := float64(p.sharedRounds)
		score := stats.SafeDiv(float64(p.trades), rounds)*a.cfg.SynergyTradeWeight +
			stats.SafeDiv(float64(p.flashAssists), rounds)*a.cfg.SynergyFlashWeight
		if score > a.cfg.SynergyCap {
			score = a.cfg.SynergyCap
		}
		out = append(out, models.PairSynergy{
			SteamIDA:      key[0],
			SteamIDB:      key[1],
			SharedMatches: p.shared,
			Score:         score,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].SteamIDA != out[j].SteamIDA {
			return out[i].SteamIDA < out[j].SteamIDA
		}
		return out[i].SteamIDB < out[j].SteamIDB
	})
	return out
}

func pairKey(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

func (a *TeamAggregator) rosterRatings(matches []models.TeamMatchRecord) map[string]float64 {
	byPlayer := make(map[string][]float64)
	for _, m := range matches {
		for _, p := range m.Players {
			byPlayer[p.SteamID] = append(byPlayer[p.SteamID], p.Rating.Value)
		}
	}
	out := make(map[string]float64, len(byPlayer))
	for id, ratings := range byPlayer {
		out[id] = stats.Mean(ratings)
	}
	return out
}
