package aggregation

// Config carries the aggregation thresholds. One immutable value is injected
// into both aggregators at construction.
type Config struct {
	// Consistency = max(0, 100*(1 - ConsistencyCVMultiplier*CV)).
	ConsistencyCVMultiplier float64
	FloorPercentile         float64
	CeilingPercentile       float64

	// Trend label requires this much explained variance, else "stable".
	TrendMinRSquared float64

	// RecentWindow is the match count behind RecentAvg; ShortWindow is the
	// tighter slice gating the extreme form labels.
	RecentWindow int
	ShortWindow  int

	// Form label thresholds on recent/overall rating ratio, descending.
	OnFireRatio  float64
	HotRatio     float64
	WarmRatio    float64
	AverageRatio float64
	ColdRatio    float64
	// Extra short-window gates for the extreme labels.
	OnFireShortRatio  float64
	IceColdShortRatio float64

	// Pair synergy: min(SynergyCap, tradeFreq*SynergyTradeWeight +
	// flashRate*SynergyFlashWeight), pairs below MinSharedMatches excluded.
	MinSharedMatches   int
	SynergyTradeWeight float64
	SynergyFlashWeight float64
	SynergyCap         float64

	RatingBuckets int

	// Side split approximation when round-level side data is missing.
	ApproxSideShare float64
}

func DefaultConfig() Config {
	return Config{
		ConsistencyCVMultiplier: 2,
		FloorPercentile:         10,
		CeilingPercentile:       90,

		TrendMinRSquared: 0.1,

		RecentWindow: 5,
		ShortWindow:  3,

		OnFireRatio:  1.15,
		HotRatio:     1.08,
		WarmRatio:    1.03,
		AverageRatio: 0.95,
		ColdRatio:    0.88,

		OnFireShortRatio:  1.10,
		IceColdShortRatio: 0.90,

		MinSharedMatches:   3,
		SynergyTradeWeight: 20,
		SynergyFlashWeight: 30,
		SynergyCap:         100,

		RatingBuckets: 8,

		ApproxSideShare: 0.5,
	}
}
