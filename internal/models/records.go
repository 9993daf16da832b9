package models

import "time"

// RoundRecord is one player's combat line for a single round.
// Immutable once ingested; exactly one per (player, round).
type RoundRecord struct {
	MatchID     string `json:"match_id"`
	SteamID     string `json:"steam_id"`
	RoundNumber int    `json:"round_number"`
	Side        string `json:"side"` // "CT" or "T", empty when unknown

	Kills      int  `json:"kills"`
	Deaths     int  `json:"deaths"`
	Assists    int  `json:"assists"`
	Damage     int  `json:"damage"`
	EquipValue int  `json:"equip_value"`
	Survived   bool `json:"survived"`

	FirstKill  bool `json:"first_kill"`
	FirstDeath bool `json:"first_death"`

	// ClutchVs is the number of opponents faced alone; 0 means no clutch
	// situation this round.
	ClutchVs  int  `json:"clutch_vs"`
	ClutchWon bool `json:"clutch_won"`
}

// KillRecord is one kill event. Records are ordered by tick within a round.
type KillRecord struct {
	MatchID     string `json:"match_id"`
	RoundNumber int    `json:"round_number"`
	Tick        int    `json:"tick"`

	AttackerSteamID string `json:"attacker_steam_id"`
	AttackerTeam    string `json:"attacker_team"`
	VictimSteamID   string `json:"victim_steam_id"`
	VictimTeam      string `json:"victim_team"`
	AssisterSteamID string `json:"assister_steam_id,omitempty"`

	Weapon        string  `json:"weapon"`
	Headshot      bool    `json:"headshot"`
	Noscope       bool    `json:"noscope"`
	ThruSmoke     bool    `json:"thru_smoke"`
	AttackerBlind bool    `json:"attacker_blind"`
	FlashAssist   bool    `json:"flash_assist"`
	Distance      float64 `json:"distance"`
	Traded        bool    `json:"traded"`
}

// MatchRecord identifies one match in a player's or team's history together
// with the per-match metrics the aggregator folds over.
type MatchRecord struct {
	MatchID  string    `json:"match_id"`
	MapName  string    `json:"map_name"`
	PlayedAt time.Time `json:"played_at"`
	Rounds   int       `json:"rounds"`
	Won      bool      `json:"won"`

	Metrics PlayerMatchMetrics `json:"metrics"`
}

// TeamMatchRecord is the team-level view of one match used by the team
// aggregator: the five player metric sets plus the match outcome.
type TeamMatchRecord struct {
	MatchID  string    `json:"match_id"`
	TeamID   string    `json:"team_id"`
	MapName  string    `json:"map_name"`
	PlayedAt time.Time `json:"played_at"`
	Rounds   int       `json:"rounds"`
	RoundsWon int      `json:"rounds_won"`
	Won      bool      `json:"won"`

	Players []PlayerMatchMetrics `json:"players"`
}

// PeerSummary is one precomputed row of the peer population used for
// percentile ranking. Rows are produced by the peer store, not the engine.
type PeerSummary struct {
	SteamID   string  `json:"steam_id"`
	AvgRating float64 `json:"avg_rating"`
	AvgKAST   float64 `json:"avg_kast"`
	AvgADR    float64 `json:"avg_adr"`
	AvgKD     float64 `json:"avg_kd"`
	Matches   int     `json:"matches"`
}
