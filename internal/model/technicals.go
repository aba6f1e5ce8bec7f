package model

import "time"

// TechnicalIndicators holds computed indicators for a symbol. Every field
// is optional: insufficient history leaves it nil, and a nil field degrades
// the derived signal to Neutral rather than erroring.
type TechnicalIndicators struct {
	Symbol          string
	Timestamp       time.Time
	RSI14           *float64
	MACD            *float64
	MACDSignal      *float64
	BollingerUpper  *float64
	BollingerMiddle *float64
	BollingerLower  *float64
	SMA50           *float64
	SMA200          *float64
	EMA12           *float64
	EMA26           *float64
	SupportLevel    *float64
	ResistanceLevel *float64
}

// RSISignal derives the ordinal from the 14-period RSI.
func (t *TechnicalIndicators) RSISignal() SignalStrength {
	if t.RSI14 == nil {
		return Neutral
	}
	switch {
	case *t.RSI14 < 30:
		return StrongBuy // oversold
	case *t.RSI14 < 40:
		return Buy
	case *t.RSI14 > 70:
		return StrongSell // overbought
	case *t.RSI14 > 60:
		return Sell
	default:
		return Neutral
	}
}

// MASignal derives the ordinal from the moving-average cross relative to
// the current price (golden cross / death cross).
func (t *TechnicalIndicators) MASignal(currentPrice float64) SignalStrength {
	if t.SMA50 == nil || t.SMA200 == nil {
		return Neutral
	}
	switch {
	case *t.SMA50 > *t.SMA200 && currentPrice > *t.SMA50:
		return StrongBuy
	case *t.SMA50 < *t.SMA200 && currentPrice < *t.SMA50:
		return StrongSell
	case currentPrice > *t.SMA50:
		return Buy
	case currentPrice < *t.SMA50:
		return Sell
	default:
		return Neutral
	}
}
