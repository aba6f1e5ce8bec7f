package model

import "time"

// NewsItem is a scored news article. Items are immutable once scored:
// SentimentScore stays within [-1, 1] and RelevanceScore within [0, 1].
type NewsItem struct {
	Headline         string
	Source           string
	PublishedAt      time.Time
	URL              string
	Content          string
	SentimentScore   float64
	RelevanceScore   float64
	MentionedSymbols []string
	Categories       []string
	Impact           ImpactLevel
	Quality          DataQuality
}

// SentimentSignal converts the article's sentiment into a trade ordinal.
// High-impact articles amplify the move to the strong variants.
func (n *NewsItem) SentimentSignal() SignalStrength {
	highImpact := n.Impact == ImpactHigh || n.Impact == ImpactCritical
	switch {
	case n.SentimentScore > 0.5 && highImpact:
		return StrongBuy
	case n.SentimentScore > 0.2:
		return Buy
	case n.SentimentScore < -0.5 && highImpact:
		return StrongSell
	case n.SentimentScore < -0.2:
		return Sell
	default:
		return Neutral
	}
}
