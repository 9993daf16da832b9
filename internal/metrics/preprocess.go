package metrics

import (
	"math"
	"sort"

	"github.com/fraghub/metrics-api/internal/models"
)

// ProcessedMatchData indexes one player's match into the lookup structures
// the calculators share. It is built once per calculation call, owned by
// that call, and discarded afterwards, never persisted or cached.
type ProcessedMatchData struct {
	SteamID     string
	TotalRounds int

	// TradeThresholdTicks is the resolved trade window for this match's
	// tick rate.
	TradeThresholdTicks int

	RoundsByNumber map[int]models.RoundRecord
	RoundNumbers   []int // ascending

	// KillsByRound holds every kill in the match, tick-sorted per round.
	KillsByRound map[int][]models.KillRecord
	// PlayerKillsByRound / PlayerDeathsByRound partition the player's own
	// kill involvement.
	PlayerKillsByRound  map[int][]models.KillRecord
	PlayerDeathsByRound map[int][]models.KillRecord

	// Per-round contribution sets. A round number is present when the
	// condition held for the player that round.
	KillRounds     map[int]struct{}
	AssistRounds   map[int]struct{}
	SurvivalRounds map[int]struct{}
	TradedRounds   map[int]struct{}

	// Match totals from the round traversal.
	Kills         int
	Deaths        int
	Assists       int
	Damage        int
	EquipValueSum int

	// From the kill traversal.
	HeadshotKills int
	SniperKills   int

	MultiKills    models.MultiKillCounts
	OpeningWins   int
	OpeningLosses int
}

var sniperWeapons = map[string]bool{
	"awp":    true,
	"ssg08":  true,
	"scar20": true,
	"g3sg1":  true,
}

// Preprocess builds ProcessedMatchData from one player's round records and
// the match's full kill list in a single traversal of each. tickRate scales
// the trade window; a zero tickRate defaults to 64.
func Preprocess(cfg Config, steamID string, rounds []models.RoundRecord, kills []models.KillRecord, tickRate float64) (*ProcessedMatchData, error) {
	if len(rounds) == 0 {
		return nil, invalidInput("rounds", "no rounds supplied")
	}
	if tickRate <= 0 {
		tickRate = 64
	}

	d := &ProcessedMatchData{
		SteamID:             steamID,
		TotalRounds:         len(rounds),
		TradeThresholdTicks: int(math.Round(float64(cfg.TradeWindowTicksAt64) / 64 * tickRate)),
		RoundsByNumber:      make(map[int]models.RoundRecord, len(rounds)),
		KillsByRound:        make(map[int][]models.KillRecord),
		PlayerKillsByRound:  make(map[int][]models.KillRecord),
		PlayerDeathsByRound: make(map[int][]models.KillRecord),
		KillRounds:          make(map[int]struct{}),
		AssistRounds:        make(map[int]struct{}),
		SurvivalRounds:      make(map[int]struct{}),
		TradedRounds:        make(map[int]struct{}),
	}

	// First traversal: rounds. Totals, contribution sets, multi-kills,
	// openings.
	for _, r := range rounds {
		if r.RoundNumber <= 0 {
			return nil, invalidInput("round_number", "round number %d is not positive", r.RoundNumber)
		}
		if r.Kills < 0 || r.Deaths < 0 || r.Assists < 0 || r.Damage < 0 {
			return nil, invalidInput("round_record", "negative counter in round %d", r.RoundNumber)
		}
		d.RoundsByNumber[r.RoundNumber] = r
		d.RoundNumbers = append(d.RoundNumbers, r.RoundNumber)

		d.Kills += r.Kills
		d.Deaths += r.Deaths
		d.Assists += r.Assists
		d.Damage += r.Damage
		d.EquipValueSum += r.EquipValue

		if r.Kills > 0 {
			d.KillRounds[r.RoundNumber] = struct{}{}
		}
		if r.Assists > 0 {
			d.AssistRounds[r.RoundNumber] = struct{}{}
		}
		if r.Survived {
			d.SurvivalRounds[r.RoundNumber] = struct{}{}
		}

		switch {
		case r.Kills >= 5:
			d.MultiKills.Ace++
		case r.Kills == 4:
			d.MultiKills.FourK++
		case r.Kills == 3:
			d.MultiKills.ThreeK++
		case r.Kills == 2:
			d.MultiKills.TwoK++
		}

		if r.FirstKill {
			d.OpeningWins++
		}
		if r.FirstDeath {
			d.OpeningLosses++
		}
	}
	sort.Ints(d.RoundNumbers)

	// Second traversal: kills. Partition by round and by the player's side
	// of the event.
	for _, k := range kills {
		d.KillsByRound[k.RoundNumber] = append(d.KillsByRound[k.RoundNumber], k)
		if k.AttackerSteamID == steamID {
			d.PlayerKillsByRound[k.RoundNumber] = append(d.PlayerKillsByRound[k.RoundNumber], k)
			if k.Headshot {
				d.HeadshotKills++
			}
			if sniperWeapons[k.Weapon] {
				d.SniperKills++
			}
		}
		if k.VictimSteamID == steamID {
			d.PlayerDeathsByRound[k.RoundNumber] = append(d.PlayerDeathsByRound[k.RoundNumber], k)
		}
	}
	for rn := range d.KillsByRound {
		sort.Slice(d.KillsByRound[rn], func(i, j int) bool {
			return d.KillsByRound[rn][i].Tick < d.KillsByRound[rn][j].Tick
		})
	}

	d.detectTrades()

	return d, nil
}

// detectTrades marks a round traded when the player's killer was killed by
// someone else strictly after the player's death, within the trade window.
// The first qualifying kill wins.
func (d *ProcessedMatchData) detectTrades() {
	for rn, deaths := range d.PlayerDeathsByRound {
		if _, ok := d.RoundsByNumber[rn]; !ok {
			continue // kill event for a round the player has no record for
		}
		death := deaths[0]
		for _, k := range d.KillsByRound[rn] {
			if k.Tick <= death.Tick {
				continue
			}
			if k.Tick-death.Tick > d.TradeThresholdTicks {
				break // tick-sorted, nothing later can qualify
			}
			if k.VictimSteamID == death.AttackerSteamID && k.AttackerSteamID != d.SteamID {
				d.TradedRounds[rn] = struct{}{}
				break
			}
		}
	}
}
