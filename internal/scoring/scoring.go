package scoring

import (
	"strings"

	"crypto-signal-watch/internal/model"
)

// Keyword scorer for headlines. The fusion core only depends on the scored
// outputs; the word lists are a stand-in for a proper NLP model.

var positiveWords = []string{
	"bullish", "surge", "rally", "gain", "rise", "up", "high",
	"positive", "growth", "increase", "soar", "moon", "breakthrough",
}

var negativeWords = []string{
	"bearish", "crash", "fall", "drop", "down", "low", "negative",
	"decline", "decrease", "plunge", "dump", "correction", "fear",
}

var highImpactWords = []string{
	"regulation", "sec", "government", "ban", "legal", "hack",
	"bankruptcy", "collapse", "etf", "institutional", "billion",
}

var mediumImpactWords = []string{"million", "partnership", "upgrade"}

// Sentiment scores a headline into [-1, 1] from keyword balance.
func Sentiment(text string) float64 {
	lower := strings.ToLower(text)
	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// Impact classifies the expected market impact of a headline.
func Impact(headline string) model.ImpactLevel {
	lower := strings.ToLower(headline)
	for _, w := range highImpactWords {
		if strings.Contains(lower, w) {
			return model.ImpactHigh
		}
	}
	for _, w := range mediumImpactWords {
		if strings.Contains(lower, w) {
			return model.ImpactMedium
		}
	}
	return model.ImpactLow
}

// Relevance scores how relevant a headline is to a symbol.
func Relevance(headline, symbol string) float64 {
	if strings.Contains(strings.ToUpper(headline), strings.ToUpper(symbol)) {
		return 0.8
	}
	return 0.5
}
