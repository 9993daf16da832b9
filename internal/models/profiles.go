package models

import "time"

// AggregationPeriod is a named time window with its resolved filter and the
// bounds derived from the matches that fell inside it. DateCutoff and
// MatchLimit are mutually exclusive; all_time sets neither.
type AggregationPeriod struct {
	Name       string     `json:"name"` // "all_time", "last_30d", "last_10_matches", ...
	MatchLimit int        `json:"match_limit,omitempty"`
	DateCutoff *time.Time `json:"date_cutoff,omitempty"`

	FirstMatch time.Time `json:"first_match"`
	LastMatch  time.Time `json:"last_match"`
	Matches    int       `json:"matches"`
	Rounds     int       `json:"rounds"`
	DaySpan    int       `json:"day_span"`
}

// PerformanceSummary is the rolled-up performance section of a profile.
type PerformanceSummary struct {
	AvgRating float64 `json:"avg_rating"`
	AvgKAST   float64 `json:"avg_kast"`
	AvgADR    float64 `json:"avg_adr"`
	AvgKD     float64 `json:"avg_kd"`
	AvgHS     float64 `json:"avg_hs"`

	// Round-weighted rating mean; longer matches count for more.
	WeightedRating float64 `json:"weighted_rating"`

	RatingStdDev           float64 `json:"rating_std_dev"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	Consistency            float64 `json:"consistency"` // max(0, 100*(1-2*CV))
	Floor                  float64 `json:"floor"`       // 10th percentile rating
	Ceiling                float64 `json:"ceiling"`     // 90th percentile rating

	WinRate float64 `json:"win_rate"`
}

// FormSummary classifies recent form against the lifetime baseline.
type FormSummary struct {
	Trend      string  `json:"trend"` // "improving", "declining", "stable"
	Slope      float64 `json:"slope"`
	RSquared   float64 `json:"r_squared"`
	Form       string  `json:"form"` // on_fire/hot/warm/average/cold/ice_cold
	RecentAvg  float64 `json:"recent_avg"`
	OverallAvg float64 `json:"overall_avg"`

	CurrentStreak     int `json:"current_streak"` // >0 wins, <0 losses
	LongestWinStreak  int `json:"longest_win_streak"`
	LongestLossStreak int `json:"longest_loss_streak"`
}

// PeerPercentiles ranks the entity against its peer population using the
// midpoint method. 50 when the population is empty.
type PeerPercentiles struct {
	Rating   float64 `json:"rating"`
	KAST     float64 `json:"kast"`
	ADR      float64 `json:"adr"`
	KD       float64 `json:"kd"`
	PeerCount int    `json:"peer_count"`
}

type MapSplit struct {
	MapName   string  `json:"map_name"`
	Matches   int     `json:"matches"`
	Wins      int     `json:"wins"`
	WinRate   float64 `json:"win_rate"`
	AvgRating float64 `json:"avg_rating"`
	AvgADR    float64 `json:"avg_adr"`
}

// SideSplit carries per-side averages. When round-level side data is absent
// a fixed 12/12 split is assumed; Approximated flags that case.
type SideSplit struct {
	CTRounds    int     `json:"ct_rounds"`
	TRounds     int     `json:"t_rounds"`
	CTRating    float64 `json:"ct_rating"`
	TRating     float64 `json:"t_rating"`
	Approximated bool   `json:"approximated"`
}

type EconomySplit struct {
	FullBuyRounds  int     `json:"full_buy_rounds"`
	ForceBuyRounds int     `json:"force_buy_rounds"`
	SemiEcoRounds  int     `json:"semi_eco_rounds"`
	EcoRounds      int     `json:"eco_rounds"`
	AvgEquipValue  float64 `json:"avg_equip_value"`
}

// RatingBucket is one bar of the profile's rating distribution histogram.
type RatingBucket struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// AggregatedPlayerProfile is the produced player profile document. Field
// names and nesting are part of the compatibility surface.
type AggregatedPlayerProfile struct {
	SteamID string            `json:"steam_id"`
	Name    string            `json:"name,omitempty"`
	Period  AggregationPeriod `json:"period"`

	Performance PerformanceSummary `json:"performance"`
	Form        FormSummary        `json:"form"`
	Percentiles PeerPercentiles    `json:"percentiles"`
	Role        PlayerRoleAnalysis `json:"role"`
	Maps        []MapSplit         `json:"maps"`
	Sides       SideSplit          `json:"sides"`
	Economy     EconomySplit       `json:"economy"`
	RatingDistribution []RatingBucket `json:"rating_distribution"`

	GeneratedAt time.Time `json:"generated_at"`
}

// PairSynergy scores how well two players play together across their shared
// matches. Pairs with fewer than the minimum shared matches are excluded.
type PairSynergy struct {
	SteamIDA      string  `json:"steam_id_a"`
	SteamIDB      string  `json:"steam_id_b"`
	SharedMatches int     `json:"shared_matches"`
	Score         float64 `json:"score"`
}

// AggregatedTeamProfile is the produced team profile document.
type AggregatedTeamProfile struct {
	TeamID string            `json:"team_id"`
	Name   string            `json:"name,omitempty"`
	Period AggregationPeriod `json:"period"`

	Performance PerformanceSummary `json:"performance"`
	Form        FormSummary        `json:"form"`
	Maps        []MapSplit         `json:"maps"`
	Synergy     []PairSynergy      `json:"synergy"`
	RosterRatings map[string]float64 `json:"roster_ratings"`

	GeneratedAt time.Time `json:"generated_at"`
}
