package model

// SignalStrength is the ordinal judgment shared by every data source.
// Values are ordered so they can be averaged numerically.
type SignalStrength int

const (
	StrongSell SignalStrength = 1
	Sell       SignalStrength = 2
	Neutral    SignalStrength = 3
	Buy        SignalStrength = 4
	StrongBuy  SignalStrength = 5
)

// String returns the canonical name used in persistence and alerts.
func (s SignalStrength) String() string {
	switch s {
	case StrongSell:
		return "STRONG_SELL"
	case Sell:
		return "SELL"
	case Neutral:
		return "NEUTRAL"
	case Buy:
		return "BUY"
	case StrongBuy:
		return "STRONG_BUY"
	default:
		return "UNKNOWN"
	}
}

// SignalFromValue clamps an averaged ordinal back into the enum range.
func SignalFromValue(v int) SignalStrength {
	if v < int(StrongSell) {
		return StrongSell
	}
	if v > int(StrongBuy) {
		return StrongBuy
	}
	return SignalStrength(v)
}

// Bullish reports whether the signal leans to the buy side.
func (s SignalStrength) Bullish() bool { return s >= Buy }

// Bearish reports whether the signal leans to the sell side.
func (s SignalStrength) Bearish() bool { return s <= Sell }

// DataQuality rates how trustworthy a fetched record is.
type DataQuality string

const (
	QualityVerified   DataQuality = "verified"
	QualityReliable   DataQuality = "reliable"
	QualityUncertain  DataQuality = "uncertain"
	QualityUnreliable DataQuality = "unreliable"
)

// ImpactLevel classifies how much a news item can move the market.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// RiskLevel is the coarse reliability bucket derived from confidence.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)
