package metrics

import (
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/models"
)

func emptyProcessed() *ProcessedMatchData {
	return &ProcessedMatchData{
		SteamID:             testPlayer,
		RoundsByNumber:      map[int]models.RoundRecord{},
		KillsByRound:        map[int][]models.KillRecord{},
		PlayerKillsByRound:  map[int][]models.KillRecord{},
		PlayerDeathsByRound: map[int][]models.KillRecord{},
		KillRounds:          map[int]struct{}{},
		AssistRounds:        map[int]struct{}{},
		SurvivalRounds:      map[int]struct{}{},
		TradedRounds:        map[int]struct{}{},
	}
}

func TestCombatKD(t *testing.T) {
	cfg := DefaultConfig()
	calc := NewCombatCalculator(cfg)

	tests := []struct {
		name   string
		kills  int
		deaths int
		want   float64
	}{
		{"ZeroDeathsReportsKills", 3, 0, 3},
		{"HalfKD", 2, 4, 0.5},
		{"AllZero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := emptyProcessed()
			d.TotalRounds = 10
			d.Kills = tt.kills
			d.Deaths = tt.deaths
			if got := calc.Calculate(d).KD; got != tt.want {
				t.Errorf("KD = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEveryCalculatorHandlesEmptyInput(t *testing.T) {
	cfg := DefaultConfig()
	d := emptyProcessed()

	combat := NewCombatCalculator(cfg).Calculate(d)
	if combat.Kills != 0 || combat.KD != 0 || combat.ADR != 0 || combat.HSPercent != 0 {
		t.Errorf("combat not zeroed: %+v", combat)
	}
	kast := NewKASTCalculator(cfg).Calculate(d)
	if kast.Percentage != 0 || kast.PositiveRounds != 0 {
		t.Errorf("kast not zeroed: %+v", kast)
	}
	impact := NewImpactCalculator(cfg).Calculate(d)
	if impact.MultiKillImpact != 0 || impact.OpeningImpact != 0 {
		t.Errorf("impact bonuses not zeroed: %+v", impact)
	}
	trades := NewTradeCalculator(cfg).Calculate(d)
	if trades.TradesReceived != 0 || trades.TradedDeathRate != 0 {
		t.Errorf("trades not zeroed: %+v", trades)
	}
	openings := NewOpeningCalculator(cfg).Calculate(d)
	if openings.Attempts != 0 || openings.WinRate != 0 {
		t.Errorf("openings not zeroed: %+v", openings)
	}
	clutches := NewClutchCalculator(cfg).Calculate(d)
	if clutches.Attempts != 0 || clutches.SuccessRate != 0 {
		t.Errorf("clutches not zeroed: %+v", clutches)
	}
	rating := NewRatingCalculator(cfg).Calculate(kast, combat, impact)
	if math.IsNaN(rating.Value) || math.IsInf(rating.Value, 0) {
		t.Errorf("rating not finite: %v", rating.Value)
	}
}

func TestRatingIsLinearInComponents(t *testing.T) {
	cfg := DefaultConfig()
	calc := NewRatingCalculator(cfg)

	kast := models.KASTMetrics{Percentage: 72.5}
	combat := models.CombatMetrics{KPR: 0.85, DPR: 0.62, ADR: 81.3}
	impact := models.ImpactMetrics{Score: 1.12}

	r := calc.Calculate(kast, combat, impact)

	sum := r.Contributions.KAST + r.Contributions.KPR + r.Contributions.DPR +
		r.Contributions.Impact + r.Contributions.ADR + cfg.RatingConstant
	if math.Abs(sum-r.Value) > 1e-12 {
		t.Errorf("contributions sum %v != rating %v", sum, r.Value)
	}

	// Spot-check individual terms against the published coefficients.
	if math.Abs(r.Contributions.KAST-0.0073*72.5) > 1e-12 {
		t.Errorf("KAST contribution = %v", r.Contributions.KAST)
	}
	if math.Abs(r.Contributions.DPR-(-0.5329*0.62)) > 1e-12 {
		t.Errorf("DPR contribution = %v", r.Contributions.DPR)
	}
}

func TestRatingStepTables(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		rating     float64
		percentile int
		label      string
	}{
		{1.45, 99, "elite"},
		{1.40, 99, "elite"},
		{1.10, 80, "very_good"},
		{1.00, 60, "good"},
		{0.85, 20, "average"},
		{0.79, 5, "below_average"},
		{0.50, 5, "poor"},
	}
	for _, tt := range tests {
		if got := cfg.ratingPercentile(tt.rating); got != tt.percentile {
			t.Errorf("ratingPercentile(%v) = %d, want %d", tt.rating, got, tt.percentile)
		}
		if got := cfg.ratingLabel(tt.rating); got != tt.label {
			t.Errorf("ratingLabel(%v) = %q, want %q", tt.rating, got, tt.label)
		}
	}
}

func TestKASTUnionDoesNotDoubleCount(t *testing.T) {
	cfg := DefaultConfig()
	d := emptyProcessed()
	d.TotalRounds = 4
	d.RoundNumbers = []int{1, 2, 3, 4}
	for _, rn := range d.RoundNumbers {
		d.RoundsByNumber[rn] = models.RoundRecord{RoundNumber: rn}
	}
	// Round 1 qualifies three ways; still one positive round.
	d.KillRounds[1] = struct{}{}
	d.AssistRounds[1] = struct{}{}
	d.SurvivalRounds[1] = struct{}{}
	d.TradedRounds[2] = struct{}{}

	k := NewKASTCalculator(cfg).Calculate(d)
	if k.PositiveRounds != 2 {
		t.Errorf("PositiveRounds = %d, want 2", k.PositiveRounds)
	}
	if k.Percentage != 50 {
		t.Errorf("Percentage = %v, want 50", k.Percentage)
	}
	if !reflect.DeepEqual(k.ZeroImpactRounds, []int{3, 4}) {
		t.Errorf("ZeroImpactRounds = %v, want [3 4]", k.ZeroImpactRounds)
	}
	// Breakdown sets and zero-impact rounds partition the analyzed rounds.
	positive := map[int]bool{}
	for _, set := range [][]int{k.Breakdown.KillRounds, k.Breakdown.AssistRounds, k.Breakdown.SurvivalRounds, k.Breakdown.TradedRounds} {
		for _, rn := range set {
			positive[rn] = true
		}
	}
	for _, rn := range k.ZeroImpactRounds {
		if positive[rn] {
			t.Errorf("round %d in both breakdown and zero-impact", rn)
		}
	}
	if len(positive)+len(k.ZeroImpactRounds) != d.TotalRounds {
		t.Errorf("union %d + zero %d != total %d", len(positive), len(k.ZeroImpactRounds), d.TotalRounds)
	}
}

// The end-to-end scenario: two kills in round 1, assist+survival in round 2,
// nothing in round 3 but the player's death there is traded -> KAST 100%.
func TestCalculateEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	calc := NewCalculator(cfg, zap.NewNop())

	rounds := []models.RoundRecord{
		round(1, 2, 0, 0, 210, false),
		round(2, 0, 0, 1, 35, true),
		round(3, 0, 1, 0, 0, false),
	}
	kills := []models.KillRecord{
		{MatchID: "m1", RoundNumber: 1, Tick: 500, AttackerSteamID: testPlayer, VictimSteamID: "e1", Headshot: true},
		{MatchID: "m1", RoundNumber: 1, Tick: 700, AttackerSteamID: testPlayer, VictimSteamID: "e2"},
		{MatchID: "m1", RoundNumber: 3, Tick: 1000, AttackerSteamID: "e1", VictimSteamID: testPlayer},
		{MatchID: "m1", RoundNumber: 3, Tick: 1150, AttackerSteamID: "mate", VictimSteamID: "e1"},
	}

	m, err := calc.Calculate(testPlayer, "m1", rounds, kills, 64)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if m.KAST.Percentage != 100 {
		t.Errorf("KAST = %v, want 100", m.KAST.Percentage)
	}
	if len(m.KAST.ZeroImpactRounds) != 0 {
		t.Errorf("ZeroImpactRounds = %v, want none", m.KAST.ZeroImpactRounds)
	}
	if m.Trades.TradesReceived != 1 {
		t.Errorf("TradesReceived = %d, want 1", m.Trades.TradesReceived)
	}
	if m.Combat.Kills != 2 || m.Combat.Deaths != 1 || m.Combat.Assists != 1 {
		t.Errorf("combat = %d/%d/%d", m.Combat.Kills, m.Combat.Deaths, m.Combat.Assists)
	}
	if m.Combat.HSPercent != 50 {
		t.Errorf("HSPercent = %v, want 50", m.Combat.HSPercent)
	}
	if m.Combat.MultiKills.TwoK != 1 {
		t.Errorf("2K = %d, want 1", m.Combat.MultiKills.TwoK)
	}
	if len(m.Rounds) != 3 {
		t.Fatalf("round performance rows = %d", len(m.Rounds))
	}
	if !m.Rounds[2].Traded || !m.Rounds[2].KASTPositive {
		t.Errorf("round 3 performance = %+v", m.Rounds[2])
	}
	if m.Meta.RoundsAnalyzed != 3 || m.Meta.KillEvents != 4 {
		t.Errorf("meta = %+v", m.Meta)
	}

	// Deterministic: same input twice yields an identical record.
	m2, err := calc.Calculate(testPlayer, "m1", rounds, kills, 64)
	if err != nil {
		t.Fatalf("second Calculate() error = %v", err)
	}
	if !reflect.DeepEqual(m, m2) {
		t.Error("repeated calculation differs")
	}
}

func TestClutchBreakdown(t *testing.T) {
	cfg := DefaultConfig()

	r1 := round(1, 1, 0, 0, 100, true)
	r1.ClutchVs = 1
	r1.ClutchWon = true
	r2 := round(2, 0, 1, 0, 50, false)
	r2.ClutchVs = 2
	r3 := round(3, 0, 1, 0, 0, false)

	d, err := Preprocess(cfg, testPlayer, []models.RoundRecord{r1, r2, r3}, nil, 64)
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	c := NewClutchCalculator(cfg).Calculate(d)

	if c.Attempts != 2 || c.Won != 1 || c.SuccessRate != 50 {
		t.Errorf("clutches = %+v", c)
	}
	if len(c.Breakdown) != 2 {
		t.Fatalf("breakdown rows = %d", len(c.Breakdown))
	}
	v1 := c.Breakdown[0]
	if v1.Versus != 1 || v1.ExpectedRate != 50 || v1.OverExpected != 50 {
		t.Errorf("1v1 split = %+v", v1)
	}
	v2 := c.Breakdown[1]
	if v2.Versus != 2 || v2.SuccessRate != 0 || v2.ExpectedRate != 25 {
		t.Errorf("1v2 split = %+v", v2)
	}
}

func TestImpactFormula(t *testing.T) {
	cfg := DefaultConfig()
	d := emptyProcessed()
	d.TotalRounds = 10
	d.Kills = 8
	d.Assists = 2
	d.MultiKills.TwoK = 2
	d.OpeningWins = 2
	d.OpeningLosses = 1

	got := NewImpactCalculator(cfg).Calculate(d)

	wantMulti := 0.1 * 2 / 10.0
	wantOpening := (0.15*2 - 0.10*1) / 10.0
	want := 2.13*0.8 + 0.42*0.2 - 0.41 + wantMulti + wantOpening

	if math.Abs(got.MultiKillImpact-wantMulti) > 1e-12 {
		t.Errorf("MultiKillImpact = %v, want %v", got.MultiKillImpact, wantMulti)
	}
	if math.Abs(got.OpeningImpact-wantOpening) > 1e-12 {
		t.Errorf("OpeningImpact = %v, want %v", got.OpeningImpact, wantOpening)
	}
	if math.Abs(got.Score-want) > 1e-12 {
		t.Errorf("Score = %v, want %v", got.Score, want)
	}
}
