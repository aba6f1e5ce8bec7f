package fusion

import (
	"fmt"
	"math"

	"crypto-signal-watch/internal/model"
)

// Weights assign each present component its share of the consensus. The
// weighted mean divides by the sum of the weights actually present; weights
// are deliberately not renormalized when components are missing.
type Weights struct {
	Price     float64 `mapstructure:"price"`
	News      float64 `mapstructure:"news"`
	Sentiment float64 `mapstructure:"sentiment"`
	Technical float64 `mapstructure:"technical"`
}

// DefaultWeights mirror the calibrated production shares.
func DefaultWeights() Weights {
	return Weights{Price: 0.25, News: 0.30, Sentiment: 0.20, Technical: 0.25}
}

// RiskThresholds map confidence onto the risk bucket. Confidence below
// Extreme is extreme risk, below High is high, below Medium is medium,
// anything else is low.
type RiskThresholds struct {
	Extreme float64 `mapstructure:"extreme"`
	High    float64 `mapstructure:"high"`
	Medium  float64 `mapstructure:"medium"`
}

// DefaultRiskThresholds returns the documented 0.3 / 0.5 / 0.7 breakpoints.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{Extreme: 0.3, High: 0.5, Medium: 0.7}
}

// maxNewsItems bounds the news average to the most recent articles.
const maxNewsItems = 5

// Engine fuses per-source signals into one consensus. Fuse is a pure,
// single-pass function of the bundle contents; engines are safe for
// concurrent use.
type Engine struct {
	weights    Weights
	thresholds RiskThresholds
}

// NewEngine constructs a fusion engine. Zero-valued weights or thresholds
// fall back to the defaults.
func NewEngine(w Weights, t RiskThresholds) *Engine {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	if t == (RiskThresholds{}) {
		t = DefaultRiskThresholds()
	}
	return &Engine{weights: w, thresholds: t}
}

// Fuse finalizes the combined signal in place: component ordinals, the
// overall consensus, the agreement-based confidence, the risk bucket, and
// the advisory annotations. It must be called exactly once per bundle.
func (e *Engine) Fuse(sig *model.CombinedSignal) {
	sig.PriceSignal = model.Neutral
	sig.NewsSignal = model.Neutral
	sig.SentimentSignal = model.Neutral
	sig.TechnicalSignal = model.Neutral

	var contributions []float64
	var weights []float64

	if sig.MarketData != nil {
		sig.PriceSignal = sig.MarketData.PriceSignal()
		contributions = append(contributions, float64(sig.PriceSignal))
		weights = append(weights, e.weights.Price)

		if math.Abs(sig.MarketData.Change24h) > 10 {
			sig.Warnings = append(sig.Warnings,
				fmt.Sprintf("High volatility: %.1f%% 24h change", sig.MarketData.Change24h))
		}
	}

	if len(sig.NewsItems) > 0 {
		items := sig.NewsItems
		if len(items) > maxNewsItems {
			items = items[:maxNewsItems]
		}
		var sum float64
		for i := range items {
			sum += float64(items[i].SentimentSignal())
		}
		avg := sum / float64(len(items))
		sig.NewsSignal = model.SignalFromValue(int(math.RoundToEven(avg)))
		contributions = append(contributions, avg)
		weights = append(weights, e.weights.News)

		for i := range sig.NewsItems {
			if sig.NewsItems[i].Impact == model.ImpactCritical {
				sig.Warnings = append(sig.Warnings,
					fmt.Sprintf("Critical news: %s...", truncate(sig.NewsItems[i].Headline, 50)))
				break
			}
		}
	}

	if sig.Sentiment != nil {
		sig.SentimentSignal = sig.Sentiment.ContrarianSignal()
		contributions = append(contributions, float64(sig.SentimentSignal))
		weights = append(weights, e.weights.Sentiment)

		if sig.Sentiment.FearGreedIndex < 20 || sig.Sentiment.FearGreedIndex > 80 {
			sig.Opportunities = append(sig.Opportunities,
				fmt.Sprintf("Extreme sentiment: %s", sig.Sentiment.FearGreedLabel))
		}
	}

	if sig.Technicals != nil {
		var techVals []float64
		if sig.Technicals.RSI14 != nil {
			techVals = append(techVals, float64(sig.Technicals.RSISignal()))
		}
		if sig.MarketData != nil && sig.Technicals.SMA50 != nil {
			price := sig.MarketData.Price.InexactFloat64()
			techVals = append(techVals, float64(sig.Technicals.MASignal(price)))
		}
		if len(techVals) > 0 {
			var sum float64
			for _, v := range techVals {
				sum += v
			}
			avg := sum / float64(len(techVals))
			sig.TechnicalSignal = model.SignalFromValue(int(math.RoundToEven(avg)))
			contributions = append(contributions, avg)
			weights = append(weights, e.weights.Technical)
		}
	}

	if len(contributions) == 0 {
		// Nothing succeeded this cycle: neutral consensus, zero confidence.
		sig.OverallSignal = model.Neutral
		sig.Confidence = 0
		sig.Risk = model.RiskExtreme
		e.reason(sig)
		return
	}

	var weightedSum, totalWeight float64
	for i := range contributions {
		weightedSum += contributions[i] * weights[i]
		totalWeight += weights[i]
	}
	mean := weightedSum / totalWeight
	// Ordinals round half-to-even, so a 2.5 mean settles on SELL rather
	// than drifting toward NEUTRAL.
	sig.OverallSignal = model.SignalFromValue(int(math.RoundToEven(mean)))

	// Confidence measures agreement: population variance of the raw
	// contributions around the weighted mean, normalized by the maximum
	// possible spread.
	var variance float64
	for _, c := range contributions {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(contributions))
	sig.Confidence = clamp01(1 - variance/4)

	switch {
	case sig.Confidence < e.thresholds.Extreme:
		sig.Risk = model.RiskExtreme
	case sig.Confidence < e.thresholds.High:
		sig.Risk = model.RiskHigh
	case sig.Confidence < e.thresholds.Medium:
		sig.Risk = model.RiskMedium
	default:
		sig.Risk = model.RiskLow
	}

	e.reason(sig)
}

// reason fills the ordered human-readable reasoning list.
func (e *Engine) reason(sig *model.CombinedSignal) {
	sig.Reasoning = sig.Reasoning[:0]

	switch {
	case sig.OverallSignal.Bullish():
		sig.Reasoning = append(sig.Reasoning,
			fmt.Sprintf("Bullish signal with %.1f%% confidence", sig.Confidence*100))
	case sig.OverallSignal.Bearish():
		sig.Reasoning = append(sig.Reasoning,
			fmt.Sprintf("Bearish signal with %.1f%% confidence", sig.Confidence*100))
	default:
		sig.Reasoning = append(sig.Reasoning, "Neutral market conditions")
	}

	if sig.MarketData != nil {
		sig.Reasoning = append(sig.Reasoning,
			fmt.Sprintf("Price action: %+.1f%% in 24h", sig.MarketData.Change24h))
	}
	if sig.Sentiment != nil {
		sig.Reasoning = append(sig.Reasoning,
			fmt.Sprintf("Market sentiment: %s", sig.Sentiment.FearGreedLabel))
	}
	if len(sig.NewsItems) > 0 {
		sig.Reasoning = append(sig.Reasoning,
			fmt.Sprintf("News sentiment: %d articles analyzed", len(sig.NewsItems)))
	}
	if sig.Technicals != nil && sig.Technicals.RSI14 != nil {
		sig.Reasoning = append(sig.Reasoning, fmt.Sprintf("RSI: %.1f", *sig.Technicals.RSI14))
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
