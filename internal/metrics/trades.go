package metrics

import (
	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/stats"
)

// TradeCalculator reports trade involvement from the preprocessor's traded
// round set.
//
// TODO(trades-given): TradesGiven needs the kill timelines of the whole
// roster (did THIS player avenge a teammate), which a single-player
// calculation does not see. It stays 0 until the aggregation service feeds
// roster-wide correlation; TradeOpportunities mirrors that limitation.
type TradeCalculator struct {
	cfg Config
}

func NewTradeCalculator(cfg Config) *TradeCalculator {
	return &TradeCalculator{cfg: cfg}
}

func (c *TradeCalculator) Calculate(d *ProcessedMatchData) models.TradeMetrics {
	received := len(d.TradedRounds)
	return models.TradeMetrics{
		TradesReceived:     received,
		TradesGiven:        0,
		TradeOpportunities: 0,
		TradedDeathRate:    stats.SafeDiv(float64(received), float64(d.Deaths)) * 100,
	}
}
