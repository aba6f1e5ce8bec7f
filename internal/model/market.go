package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketData is the provider-agnostic market record. Both market-data
// adapters emit this exact shape so downstream code never branches on the
// source. Close equals Price at creation time; Change24h is a percentage,
// not a fraction.
type MarketData struct {
	Symbol            string
	Timestamp         time.Time
	Price             decimal.Decimal
	Volume24h         decimal.Decimal
	MarketCap         decimal.Decimal
	Open              decimal.Decimal
	High              decimal.Decimal
	Low               decimal.Decimal
	Close             decimal.Decimal
	Change24h         float64
	Change7d          *float64
	CirculatingSupply *decimal.Decimal
	TotalSupply       *decimal.Decimal
	Source            string
	Quality           DataQuality
}

// PriceSignal derives the ordinal from 24h price movement.
func (m *MarketData) PriceSignal() SignalStrength {
	switch {
	case m.Change24h > 10:
		return StrongBuy
	case m.Change24h > 3:
		return Buy
	case m.Change24h < -10:
		return StrongSell
	case m.Change24h < -3:
		return Sell
	default:
		return Neutral
	}
}

// MarketSentiment carries market-wide mood indicators. FearGreedIndex is
// always within [0, 100].
type MarketSentiment struct {
	Timestamp       time.Time
	FearGreedIndex  int
	FearGreedLabel  string
	SocialVolume    *int
	SocialSentiment *float64
	GoogleTrends    *int
	Source          string
	Quality         DataQuality
}

// ClampIndex forces the index into its documented range.
func (s *MarketSentiment) ClampIndex() {
	if s.FearGreedIndex < 0 {
		s.FearGreedIndex = 0
	}
	if s.FearGreedIndex > 100 {
		s.FearGreedIndex = 100
	}
}

// ContrarianSignal maps extreme crowd sentiment to the opposite trade
// direction: panic is a buying opportunity, euphoria a sell signal.
func (s *MarketSentiment) ContrarianSignal() SignalStrength {
	switch {
	case s.FearGreedIndex < 20:
		return StrongBuy
	case s.FearGreedIndex > 80:
		return StrongSell
	case s.FearGreedIndex < 35:
		return Buy
	case s.FearGreedIndex > 65:
		return Sell
	default:
		return Neutral
	}
}

// Mood renders the index as a human-readable market mood.
func (s *MarketSentiment) Mood() string {
	switch {
	case s.FearGreedIndex < 20:
		return "Extreme panic - potential buying opportunity"
	case s.FearGreedIndex < 40:
		return "Fear dominant - market cautious"
	case s.FearGreedIndex < 60:
		return "Neutral sentiment - market balanced"
	case s.FearGreedIndex < 80:
		return "Greed increasing - potential overheating"
	default:
		return "Extreme greed - high risk of correction"
	}
}
