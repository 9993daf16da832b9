// Package source feeds the aggregator from the telemetry warehouse. Raw
// round and kill records live in ClickHouse; per-match metrics are computed
// on the way out so the aggregator only ever sees metric-bearing match sets.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/aggregation"
	"github.com/fraghub/metrics-api/internal/metrics"
	"github.com/fraghub/metrics-api/internal/models"
)

// activePlayerDays bounds the roster scan for full recomputes.
const activePlayerDays = 90

type Store struct {
	ch     driver.Conn
	calc   *metrics.Calculator
	logger *zap.SugaredLogger
}

func NewStore(ch driver.Conn, calc *metrics.Calculator, logger *zap.Logger) *Store {
	return &Store{ch: ch, calc: calc, logger: logger.Sugar()}
}

type matchRow struct {
	MatchID  string
	MapName  string
	PlayedAt time.Time
	Rounds   int
	Won      bool
	TickRate float64
}

// PlayerMatches returns the player's matches inside the filter, oldest
// first, each carrying freshly computed metrics. Matches whose records fail
// validation are skipped with a warning rather than failing the whole set.
func (s *Store) PlayerMatches(ctx context.Context, steamID string, filter aggregation.SourceFilter) ([]models.MatchRecord, error) {
	rows, err := s.playerMatchRows(ctx, steamID, filter)
	if err != nil {
		return nil, err
	}

	out := make([]models.MatchRecord, 0, len(rows))
	for _, row := range rows {
		rounds, kills, err := s.matchEvents(ctx, row.MatchID, steamID)
		if err != nil {
			return nil, fmt.Errorf("load events for match %s: %w", row.MatchID, err)
		}
		m, err := s.calc.Calculate(steamID, row.MatchID, rounds, kills, row.TickRate)
		if err != nil {
			s.logger.Warnw("Skipping uncalculable match",
				"match_id", row.MatchID, "steam_id", steamID, "error", err)
			continue
		}
		out = append(out, models.MatchRecord{
			MatchID:  row.MatchID,
			MapName:  row.MapName,
			PlayedAt: row.PlayedAt,
			Rounds:   row.Rounds,
			Won:      row.Won,
			Metrics:  *m,
		})
	}
	return out, nil
}

// TeamMatches returns the team's matches with metrics for every rostered
// player in each match.
func (s *Store) TeamMatches(ctx context.Context, teamID string, filter aggregation.SourceFilter) ([]models.TeamMatchRecord, error) {
	query := `
		SELECT match_id, map_name, played_at, rounds, rounds_won, won, tick_rate
		FROM cs_stats.team_matches
		WHERE team_id = ?` + windowPredicate(filter) + `
		ORDER BY played_at ASC`
	args := []any{teamID}
	if filter.DateCutoff != nil {
		args = append(args, *filter.DateCutoff)
	}

	rows, err := s.ch.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query team matches: %w", err)
	}
	defer rows.Close()

	var out []models.TeamMatchRecord
	for rows.Next() {
		var m models.TeamMatchRecord
		var roundsWon uint32
		var rounds uint32
		var tickRate float64
		if err := rows.Scan(&m.MatchID, &m.MapName, &m.PlayedAt, &rounds, &roundsWon, &m.Won, &tickRate); err != nil {
			return nil, fmt.Errorf("scan team match: %w", err)
		}
		m.TeamID = teamID
		m.Rounds = int(rounds)
		m.RoundsWon = int(roundsWon)

		roster, err := s.matchRoster(ctx, m.MatchID, teamID)
		if err != nil {
			return nil, err
		}
		for _, steamID := range roster {
			roundRecs, kills, err := s.matchEvents(ctx, m.MatchID, steamID)
			if err != nil {
				return nil, fmt.Errorf("load events for match %s: %w", m.MatchID, err)
			}
			pm, err := s.calc.Calculate(steamID, m.MatchID, roundRecs, kills, tickRate)
			if err != nil {
				s.logger.Warnw("Skipping uncalculable roster entry",
					"match_id", m.MatchID, "steam_id", steamID, "error", err)
				continue
			}
			m.Players = append(m.Players, *pm)
		}
		out = append(out, m)
	}
	if filter.MatchLimit > 0 && len(out) > filter.MatchLimit {
		out = out[len(out)-filter.MatchLimit:]
	}
	return out, rows.Err()
}

func (s *Store) ActivePlayers(ctx context.Context) ([]string, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT DISTINCT steam_id
		FROM cs_stats.player_matches
		WHERE played_at > now() - INTERVAL ? DAY
		ORDER BY steam_id`, activePlayerDays)
	if err != nil {
		return nil, fmt.Errorf("query active players: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan steam id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) ActiveTeams(ctx context.Context) ([]string, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT DISTINCT team_id
		FROM cs_stats.team_matches
		WHERE played_at > now() - INTERVAL ? DAY
		ORDER BY team_id`, activePlayerDays)
	if err != nil {
		return nil, fmt.Errorf("query active teams: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) playerMatchRows(ctx context.Context, steamID string, filter aggregation.SourceFilter) ([]matchRow, error) {
	query := `
		SELECT match_id, map_name, played_at, rounds, won, tick_rate
		FROM cs_stats.player_matches
		WHERE steam_id = ?` + windowPredicate(filter) + `
		ORDER BY played_at ASC`
	args := []any{steamID}
	if filter.DateCutoff != nil {
		args = append(args, *filter.DateCutoff)
	}

	rows, err := s.ch.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query player matches: %w", err)
	}
	defer rows.Close()

	var out []matchRow
	for rows.Next() {
		var m matchRow
		var rounds uint32
		if err := rows.Scan(&m.MatchID, &m.MapName, &m.PlayedAt, &rounds, &m.Won, &m.TickRate); err != nil {
			return nil, fmt.Errorf("scan player match: %w", err)
		}
		m.Rounds = int(rounds)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.MatchLimit > 0 && len(out) > filter.MatchLimit {
		out = out[len(out)-filter.MatchLimit:]
	}
	return out, nil
}

// windowPredicate appends the date filter when set. Match limits are applied
// after the ordered scan so the newest N survive.
func windowPredicate(filter aggregation.SourceFilter) string {
	if filter.DateCutoff != nil {
		return " AND played_at >= ?"
	}
	return ""
}

func (s *Store) matchEvents(ctx context.Context, matchID, steamID string) ([]models.RoundRecord, []models.KillRecord, error) {
	rounds, err := s.playerRounds(ctx, matchID, steamID)
	if err != nil {
		return nil, nil, err
	}
	kills, err := s.matchKills(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	return rounds, kills, nil
}

func (s *Store) playerRounds(ctx context.Context, matchID, steamID string) ([]models.RoundRecord, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT round_number, side, kills, deaths, assists, damage, equip_value,
		       survived, first_kill, first_death, clutch_vs, clutch_won
		FROM cs_stats.player_rounds
		WHERE match_id = ? AND steam_id = ?
		ORDER BY round_number ASC`, matchID, steamID)
	if err != nil {
		return nil, fmt.Errorf("query player rounds: %w", err)
	}
	defer rows.Close()

	var out []models.RoundRecord
	for rows.Next() {
		r := models.RoundRecord{MatchID: matchID, SteamID: steamID}
		var roundNumber, kills, deaths, assists, damage, equip, clutchVs uint16
		if err := rows.Scan(&roundNumber, &r.Side, &kills, &deaths, &assists, &damage, &equip,
			&r.Survived, &r.FirstKill, &r.FirstDeath, &clutchVs, &r.ClutchWon); err != nil {
			return nil, fmt.Errorf("scan player round: %w", err)
		}
		r.RoundNumber = int(roundNumber)
		r.Kills = int(kills)
		r.Deaths = int(deaths)
		r.Assists = int(assists)
		r.Damage = int(damage)
		r.EquipValue = int(equip)
		r.ClutchVs = int(clutchVs)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) matchKills(ctx context.Context, matchID string) ([]models.KillRecord, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT round_number, tick, attacker_steam_id, attacker_team,
		       victim_steam_id, victim_team, assister_steam_id, weapon,
		       headshot, noscope, thru_smoke, attacker_blind, flash_assist, distance
		FROM cs_stats.kills
		WHERE match_id = ?
		ORDER BY round_number ASC, tick ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query kills: %w", err)
	}
	defer rows.Close()

	var out []models.KillRecord
	for rows.Next() {
		k := models.KillRecord{MatchID: matchID}
		var roundNumber uint16
		var tick uint32
		if err := rows.Scan(&roundNumber, &tick, &k.AttackerSteamID, &k.AttackerTeam,
			&k.VictimSteamID, &k.VictimTeam, &k.AssisterSteamID, &k.Weapon,
			&k.Headshot, &k.Noscope, &k.ThruSmoke, &k.AttackerBlind, &k.FlashAssist, &k.Distance); err != nil {
			return nil, fmt.Errorf("scan kill: %w", err)
		}
		k.RoundNumber = int(roundNumber)
		k.Tick = int(tick)
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *Store) matchRoster(ctx context.Context, matchID, teamID string) ([]string, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT DISTINCT steam_id
		FROM cs_stats.player_rounds
		WHERE match_id = ? AND team_id = ?
		ORDER BY steam_id`, matchID, teamID)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
