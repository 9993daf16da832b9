package models

// Role archetypes. Hybrid is assigned when no score clears the primary
// threshold.
const (
	RoleEntry   = "entry"
	RoleAWPer   = "awper"
	RoleSupport = "support"
	RoleLurker  = "lurker"
	RoleAnchor  = "anchor"
	RoleHybrid  = "hybrid"
)

// RoleDetectionInput carries the aggregated rates the classifier consumes.
// All rates are per-round or percentages derived from the same match set;
// the classifier never looks at raw records.
type RoleDetectionInput struct {
	OpeningAttemptRate float64 `json:"opening_attempt_rate"` // opening duels per round
	OpeningWinRate     float64 `json:"opening_win_rate"`     // 0-100
	AWPKillShare       float64 `json:"awp_kill_share"`       // 0-100, share of kills with sniper rifles
	FlashAssistRate    float64 `json:"flash_assist_rate"`    // flash assists per round
	AssistRate         float64 `json:"assist_rate"`          // assists per round
	TradedDeathRate    float64 `json:"traded_death_rate"`    // 0-100, deaths that were traded
	ClutchAttemptRate  float64 `json:"clutch_attempt_rate"`  // clutch situations per round
	ClutchWinRate      float64 `json:"clutch_win_rate"`      // 0-100
	SurvivalRate       float64 `json:"survival_rate"`        // 0-100
	CTRoundShare       float64 `json:"ct_round_share"`       // 0-100
	KPR                float64 `json:"kpr"`
	DPR                float64 `json:"dpr"`
	ADR                float64 `json:"adr"`
}

// RoleScores holds the five archetype scores. A fixed struct (not a map)
// keeps serialization and comparison deterministic.
type RoleScores struct {
	Entry   float64 `json:"entry"`
	AWPer   float64 `json:"awper"`
	Support float64 `json:"support"`
	Lurker  float64 `json:"lurker"`
	Anchor  float64 `json:"anchor"`
}

// PlaystyleProfile scores five independent dimensions in [0,100].
type PlaystyleProfile struct {
	Aggression    float64 `json:"aggression"`
	Positioning   float64 `json:"positioning"`
	UtilityUsage  float64 `json:"utility_usage"`
	TeamPlay      float64 `json:"team_play"`
	ClutchAbility float64 `json:"clutch_ability"`
}

// PlayerRoleAnalysis is the classifier output. SecondaryRole is empty when
// no score qualifies.
type PlayerRoleAnalysis struct {
	PrimaryRole   string           `json:"primary_role"`
	SecondaryRole string           `json:"secondary_role,omitempty"`
	Confidence    float64          `json:"confidence"`
	Scores        RoleScores       `json:"scores"`
	Playstyle     PlaystyleProfile `json:"playstyle"`
}
