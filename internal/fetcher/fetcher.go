package fetcher

import (
	"context"
	"errors"

	"crypto-signal-watch/internal/model"
)

// ErrUnavailable marks an ordinary provider failure: network error, non-200
// response, malformed payload, or an empty result set. Callers treat it as
// "this component is absent for the cycle", never as a fatal fault.
var ErrUnavailable = errors.New("provider unavailable")

// MarketDataFetcher retrieves one market snapshot per call. Adapters issue
// exactly one upstream request per invocation; retries belong to the
// orchestrator.
type MarketDataFetcher interface {
	FetchMarketData(ctx context.Context, symbol string) (*model.MarketData, error)
	Name() string
}

// NewsFetcher retrieves scored news items for a symbol.
type NewsFetcher interface {
	FetchNews(ctx context.Context, symbol string) ([]model.NewsItem, error)
	Name() string
}

// SentimentFetcher retrieves the market-wide sentiment snapshot.
type SentimentFetcher interface {
	FetchSentiment(ctx context.Context) (*model.MarketSentiment, error)
	Name() string
}

// HistoryFetcher retrieves a daily close series for technical analysis,
// oldest first.
type HistoryFetcher interface {
	FetchDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)
	Name() string
}
