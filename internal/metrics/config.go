package metrics

// Config holds every weight and threshold the calculators use. One immutable
// value is injected at construction; there are no mutable package globals,
// so scenario-specific overrides stay local to a test or caller.
type Config struct {
	// Trade detection. The window is defined at 64 ticks/s and scaled to the
	// actual tick rate: round(TradeWindowTicksAt64 / 64 * tickRate).
	TradeWindowTicksAt64 int

	// Impact formula: 2.13*KPR + 0.42*APR - 0.41 + multiKill + opening.
	ImpactKPRWeight float64
	ImpactAPRWeight float64
	ImpactConstant  float64

	// Multi-kill impact numerators, divided by rounds played.
	MultiKill2KWeight  float64
	MultiKill3KWeight  float64
	MultiKill4KWeight  float64
	MultiKillAceWeight float64

	// Opening impact numerators, divided by rounds played.
	OpeningWinWeight  float64
	OpeningLossWeight float64

	// HLTV 2.0 rating coefficients. These are published numbers; consumers
	// rely on exact per-component contributions, so never adjust them.
	RatingKASTCoeff   float64
	RatingKPRCoeff    float64
	RatingDPRCoeff    float64
	RatingImpactCoeff float64
	RatingADRCoeff    float64
	RatingConstant    float64

	// Fixed monotonic step tables for percentile and label lookup.
	RatingPercentileSteps []RatingStep
	RatingLabelSteps      []LabelStep

	// Expected 1vN clutch success baselines, index 0 = 1v1.
	ClutchExpectedRates [5]float64

	// Economy round classification by equip value.
	FullBuyEquipValue int
	ForceBuyEquipValue int
	SemiEcoEquipValue int
}

// RatingStep maps a minimum rating to a percentile.
type RatingStep struct {
	Min        float64
	Percentile int
}

// LabelStep maps a minimum rating to a human-readable label.
type LabelStep struct {
	Min   float64
	Label string
}

// DefaultConfig returns the production weights. The step tables are ordered
// descending; lookup takes the first entry whose Min the rating reaches.
func DefaultConfig() Config {
	return Config{
		TradeWindowTicksAt64: 320, // 5 seconds at 64 tick

		ImpactKPRWeight: 2.13,
		ImpactAPRWeight: 0.42,
		ImpactConstant:  0.41,

		MultiKill2KWeight:  0.1,
		MultiKill3KWeight:  0.2,
		MultiKill4KWeight:  0.35,
		MultiKillAceWeight: 0.5,

		OpeningWinWeight:  0.15,
		OpeningLossWeight: 0.10,

		RatingKASTCoeff:   0.0073,
		RatingKPRCoeff:    0.3591,
		RatingDPRCoeff:    0.5329,
		RatingImpactCoeff: 0.2372,
		RatingADRCoeff:    0.0032,
		RatingConstant:    0.1587,

		RatingPercentileSteps: []RatingStep{
			{Min: 1.40, Percentile: 99},
			{Min: 1.30, Percentile: 95},
			{Min: 1.20, Percentile: 90},
			{Min: 1.15, Percentile: 85},
			{Min: 1.10, Percentile: 80},
			{Min: 1.05, Percentile: 70},
			{Min: 1.00, Percentile: 60},
			{Min: 0.95, Percentile: 50},
			{Min: 0.90, Percentile: 35},
			{Min: 0.85, Percentile: 20},
			{Min: 0.80, Percentile: 10},
		},
		RatingLabelSteps: []LabelStep{
			{Min: 1.30, Label: "elite"},
			{Min: 1.15, Label: "excellent"},
			{Min: 1.05, Label: "very_good"},
			{Min: 0.95, Label: "good"},
			{Min: 0.85, Label: "average"},
			{Min: 0.75, Label: "below_average"},
		},

		ClutchExpectedRates: [5]float64{50, 25, 10, 5, 2},

		FullBuyEquipValue:  4000,
		ForceBuyEquipValue: 2000,
		SemiEcoEquipValue:  1000,
	}
}

// ratingPercentile resolves the percentile step table. Ratings below the
// lowest step get the floor percentile.
func (c Config) ratingPercentile(rating float64) int {
	for _, step := range c.RatingPercentileSteps {
		if rating >= step.Min {
			return step.Percentile
		}
	}
	return 5
}

func (c Config) ratingLabel(rating float64) string {
	for _, step := range c.RatingLabelSteps {
		if rating >= step.Min {
			return step.Label
		}
	}
	return "poor"
}
