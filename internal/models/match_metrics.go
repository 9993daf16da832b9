package models

// PlayerMatchMetrics is the full calculation output for one player in one
// match. It is produced by the unified calculator in a single pass and is
// never mutated afterwards.
type PlayerMatchMetrics struct {
	SteamID string `json:"steam_id"`
	MatchID string `json:"match_id"`

	Combat   CombatMetrics   `json:"combat"`
	KAST     KASTMetrics     `json:"kast"`
	Impact   ImpactMetrics   `json:"impact"`
	Rating   RatingMetrics   `json:"rating"`
	Trades   TradeMetrics    `json:"trades"`
	Openings OpeningMetrics  `json:"openings"`
	Clutches ClutchMetrics   `json:"clutches"`
	Utility  UtilityMetrics  `json:"utility"`
	Economy  EconomyMetrics  `json:"economy"`

	Rounds []RoundPerformance `json:"rounds"`
	Meta   CalculationMeta    `json:"meta"`
}

type CombatMetrics struct {
	Kills         int     `json:"kills"`
	Deaths        int     `json:"deaths"`
	Assists       int     `json:"assists"`
	HeadshotKills int     `json:"headshot_kills"`
	SniperKills   int     `json:"sniper_kills"`
	TotalDamage   int     `json:"total_damage"`
	KD            float64 `json:"kd"`
	KPR           float64 `json:"kpr"`
	DPR           float64 `json:"dpr"`
	APR           float64 `json:"apr"`
	ADR           float64 `json:"adr"`
	HSPercent     float64 `json:"hs_percent"`
	MultiKills    MultiKillCounts `json:"multi_kills"`
}

type MultiKillCounts struct {
	TwoK   int `json:"2k"`
	ThreeK int `json:"3k"`
	FourK  int `json:"4k"`
	Ace    int `json:"ace"`
}

// KASTMetrics reports the share of rounds with a Kill, Assist, Survival or
// Trade. Breakdown lists the round numbers that qualified under each
// condition; a round can appear under several conditions but is counted once.
type KASTMetrics struct {
	Percentage     float64       `json:"percentage"`
	PositiveRounds int           `json:"positive_rounds"`
	TotalRounds    int           `json:"total_rounds"`
	Breakdown      KASTBreakdown `json:"breakdown"`
	// ZeroImpactRounds are analyzed rounds with none of the four conditions.
	ZeroImpactRounds []int `json:"zero_impact_rounds"`
}

type KASTBreakdown struct {
	KillRounds     []int `json:"kill_rounds"`
	AssistRounds   []int `json:"assist_rounds"`
	SurvivalRounds []int `json:"survival_rounds"`
	TradedRounds   []int `json:"traded_rounds"`
}

type ImpactMetrics struct {
	Score           float64 `json:"score"`
	MultiKillImpact float64 `json:"multi_kill_impact"`
	OpeningImpact   float64 `json:"opening_impact"`
	// ClutchImpact is tracked separately and stays 0 without dedicated
	// clutch-by-round data.
	ClutchImpact float64 `json:"clutch_impact"`
}

// RatingMetrics is the HLTV 2.0 style rating with exact per-component
// contributions. Contributions plus the constant sum to Value.
type RatingMetrics struct {
	Value         float64             `json:"value"`
	Percentile    int                 `json:"percentile"`
	Label         string              `json:"label"`
	Contributions RatingContributions `json:"contributions"`
}

type RatingContributions struct {
	KAST   float64 `json:"kast"`
	KPR    float64 `json:"kpr"`
	DPR    float64 `json:"dpr"`
	Impact float64 `json:"impact"`
	ADR    float64 `json:"adr"`
}

type TradeMetrics struct {
	// TradesReceived counts rounds where this player's death was avenged
	// within the trade window.
	TradesReceived int `json:"trades_received"`
	// TradesGiven requires inter-player correlation across the full roster
	// and is not yet computed. See aggregation service notes.
	TradesGiven       int     `json:"trades_given"`
	TradeOpportunities int    `json:"trade_opportunities"`
	TradedDeathRate   float64 `json:"traded_death_rate"`
}

type OpeningMetrics struct {
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Attempts     int     `json:"attempts"`
	WinRate      float64 `json:"win_rate"`
	RatingImpact float64 `json:"rating_impact"`
}

type ClutchMetrics struct {
	Attempts    int             `json:"attempts"`
	Won         int             `json:"won"`
	SuccessRate float64         `json:"success_rate"`
	Breakdown   []ClutchVsSplit `json:"breakdown"`
}

// ClutchVsSplit compares observed 1vN success against the fixed expected
// baseline for that N.
type ClutchVsSplit struct {
	Versus       int     `json:"versus"`
	Attempts     int     `json:"attempts"`
	Won          int     `json:"won"`
	SuccessRate  float64 `json:"success_rate"`
	ExpectedRate float64 `json:"expected_rate"`
	OverExpected float64 `json:"over_expected"`
}

type UtilityMetrics struct {
	FlashAssists   int `json:"flash_assists"`
	ThruSmokeKills int `json:"thru_smoke_kills"`
	BlindKills     int `json:"blind_kills"`
	NoscopeKills   int `json:"noscope_kills"`
}

type EconomyMetrics struct {
	AvgEquipValue float64 `json:"avg_equip_value"`
	FullBuyRounds int     `json:"full_buy_rounds"`
	ForceBuyRounds int    `json:"force_buy_rounds"`
	SemiEcoRounds int     `json:"semi_eco_rounds"`
	EcoRounds     int     `json:"eco_rounds"`
}

// RoundPerformance is the round-by-round line kept on the metrics record.
type RoundPerformance struct {
	RoundNumber  int     `json:"round_number"`
	Side         string  `json:"side,omitempty"`
	Kills        int     `json:"kills"`
	Deaths       int     `json:"deaths"`
	Assists      int     `json:"assists"`
	Damage       int     `json:"damage"`
	Survived     bool    `json:"survived"`
	Traded       bool    `json:"traded"`
	KASTPositive bool    `json:"kast_positive"`
}

type CalculationMeta struct {
	RoundsAnalyzed int      `json:"rounds_analyzed"`
	KillEvents     int      `json:"kill_events"`
	DataQuality    float64  `json:"data_quality"`
	Warnings       []string `json:"warnings,omitempty"`
}
