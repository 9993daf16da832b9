package aggregation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fraghub/metrics-api/internal/models"
)

func teamPlayer(steamID string, rating float64, trades, flashes int) models.PlayerMatchMetrics {
	return models.PlayerMatchMetrics{
		SteamID: steamID,
		Combat:  models.CombatMetrics{Kills: 18, Deaths: 16, ADR: 75},
		KAST:    models.KASTMetrics{Percentage: 70},
		Rating:  models.RatingMetrics{Value: rating},
		Trades:  models.TradeMetrics{TradesReceived: trades},
		Utility: models.UtilityMetrics{FlashAssists: flashes},
	}
}

func teamMatch(id string, day int, won bool, players ...models.PlayerMatchMetrics) models.TeamMatchRecord {
	return models.TeamMatchRecord{
		MatchID:  id,
		TeamID:   "team-1",
		MapName:  "de_ancient",
		PlayedAt: baseTime.AddDate(0, 0, day),
		Rounds:   24,
		Won:      won,
		Players:  players,
	}
}

func TestTeamAggregateEmptyIsNotFound(t *testing.T) {
	a := NewTeamAggregator(DefaultConfig())
	period, _ := ResolvePeriod("all_time", time.Now())

	_, err := a.Aggregate("team-1", period, nil)
	if !errors.Is(err, ErrNoMatches) {
		t.Fatalf("error = %v, want ErrNoMatches", err)
	}
}

func TestTeamAggregateRatingIsRosterMean(t *testing.T) {
	a := NewTeamAggregator(DefaultConfig())
	period, _ := ResolvePeriod("all_time", time.Now())

	matches := []models.TeamMatchRecord{
		teamMatch("m1", 0, true,
			teamPlayer("p1", 1.20, 0, 0),
			teamPlayer("p2", 0.80, 0, 0),
		),
	}
	p, err := a.Aggregate("team-1", period, matches)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Performance.AvgRating-1.0) > 1e-9 {
		t.Errorf("avg rating = %f, want 1.0", p.Performance.AvgRating)
	}
	if got := p.RosterRatings["p1"]; math.Abs(got-1.20) > 1e-9 {
		t.Errorf("roster rating p1 = %f, want 1.20", got)
	}
}

func TestTeamSynergyRequiresSharedMatches(t *testing.T) {
	a := NewTeamAggregator(DefaultConfig())
	period, _ := ResolvePeriod("all_time", time.Now())

	core := func(id string, day int) models.TeamMatchRecord {
		return teamMatch(id, day, true,
			teamPlayer("p1", 1.1, 4, 2),
			teamPlayer("p2", 1.0, 3, 3),
		)
	}
	matches := []models.TeamMatchRecord{
		core("m1", 0),
		core("m2", 1),
		core("m3", 2),
		// The stand-in appears once and must not produce a synergy pair.
		teamMatch("m4", 3, false,
			teamPlayer("p1", 0.9, 1, 0),
			teamPlayer("p9", 0.8, 1, 0),
		),
	}

	p, err := a.Aggregate("team-1", period, matches)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Synergy) != 1 {
		t.Fatalf("synergy pairs = %d, want 1 (%+v)", len(p.Synergy), p.Synergy)
	}
	pair := p.Synergy[0]
	if pair.SteamIDA != "p1" || pair.SteamIDB != "p2" {
		t.Fatalf("pair = %s/%s, want p1/p2", pair.SteamIDA, pair.SteamIDB)
	}
	if pair.SharedMatches != 3 {
		t.Errorf("shared matches = %d, want 3", pair.SharedMatches)
	}
	// 21 trades and 15 flash assists over 72 shared rounds.
	want := 21.0/72*20 + 15.0/72*30
	if math.Abs(pair.Score-want) > 1e-9 {
		t.Errorf("score = %f, want %f", pair.Score, want)
	}
}

func TestTeamSynergyScoreIsCapped(t *testing.T) {
	a := NewTeamAggregator(DefaultConfig())
	period, _ := ResolvePeriod("all_time", time.Now())

	var matches []models.TeamMatchRecord
	for i := 0; i < 3; i++ {
		matches = append(matches, teamMatch("m"+string(rune('a'+i)), i, true,
			teamPlayer("p1", 1.0, 60, 60),
			teamPlayer("p2", 1.0, 60, 60),
		))
	}
	p, err := a.Aggregate("team-1", period, matches)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Synergy) != 1 || p.Synergy[0].Score != 100 {
		t.Fatalf("synergy = %+v, want single pair capped at 100", p.Synergy)
	}
}

func TestTeamPairKeyIsOrderIndependent(t *testing.T) {
	if pairKey("b", "a") != pairKey("a", "b") {
		t.Fatal("pair key depends on argument order")
	}
}
