package collector

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-watch/internal/cache"
	"crypto-signal-watch/internal/fetcher"
	"crypto-signal-watch/internal/model"
	"crypto-signal-watch/internal/ratelimit"
	"crypto-signal-watch/internal/technicals"
)

// Options wire the collector's dependencies. MarketChain is the ordered
// fallback chain for market data; the cache is the final fallback for every
// cached category.
type Options struct {
	MarketChain []fetcher.MarketDataFetcher
	News        fetcher.NewsFetcher
	Sentiment   fetcher.SentimentFetcher
	History     fetcher.HistoryFetcher
	HistoryDays int
}

// Collector assembles the per-symbol data bundle. The four category
// acquisitions run concurrently and fail independently: a failed category
// is simply absent from the bundle.
type Collector struct {
	opts    Options
	limiter *ratelimit.Limiter
	cache   *cache.Store
	logger  zerolog.Logger
}

// New constructs a Collector.
func New(opts Options, limiter *ratelimit.Limiter, store *cache.Store, logger zerolog.Logger) *Collector {
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = 200
	}
	return &Collector{
		opts:    opts,
		limiter: limiter,
		cache:   store,
		logger:  logger.With().Str("component", "collector").Logger(),
	}
}

// Collect gathers all four categories for one symbol and returns the
// un-fused bundle. It never fails: zero successful categories still yield a
// bundle, which fuses to a neutral default downstream.
func (c *Collector) Collect(ctx context.Context, symbol string) *model.CombinedSignal {
	symbol = strings.ToUpper(symbol)
	sig := &model.CombinedSignal{Symbol: symbol, Timestamp: time.Now().UTC()}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		sig.MarketData = c.collectMarketData(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		sig.NewsItems = c.collectNews(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		sig.Sentiment = c.collectSentiment(ctx)
	}()
	go func() {
		defer wg.Done()
		sig.Technicals = c.collectTechnicals(ctx, symbol)
	}()

	wg.Wait()
	return sig
}

// collectMarketData walks the provider fallback chain, then the cache.
func (c *Collector) collectMarketData(ctx context.Context, symbol string) *model.MarketData {
	for _, f := range c.opts.MarketChain {
		if !c.limiter.TryAcquire(f.Name()) {
			c.logger.Debug().Str("provider", f.Name()).Str("symbol", symbol).Msg("rate limited, trying next provider")
			continue
		}
		data, err := f.FetchMarketData(ctx, symbol)
		if err != nil {
			c.logger.Warn().Err(err).Str("provider", f.Name()).Str("symbol", symbol).Msg("market data fetch failed")
			continue
		}
		c.cache.Put(cache.CategoryMarket, marketKey(symbol), data)
		return data
	}

	if v, ok := c.cache.Get(cache.CategoryMarket, marketKey(symbol)); ok {
		c.logger.Info().Str("symbol", symbol).Msg("serving cached market data")
		return v.(*model.MarketData)
	}

	c.logger.Warn().Str("symbol", symbol).Msg("no market data available")
	return nil
}

func (c *Collector) collectNews(ctx context.Context, symbol string) []model.NewsItem {
	if c.opts.News == nil {
		return nil
	}
	if c.limiter.TryAcquire(c.opts.News.Name()) {
		items, err := c.opts.News.FetchNews(ctx, symbol)
		if err == nil {
			c.cache.Put(cache.CategoryNews, newsKey(symbol), items)
			return items
		}
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("news fetch failed")
	} else {
		c.logger.Debug().Str("provider", c.opts.News.Name()).Msg("news provider rate limited")
	}

	if v, ok := c.cache.Get(cache.CategoryNews, newsKey(symbol)); ok {
		c.logger.Info().Str("symbol", symbol).Msg("serving cached news")
		return v.([]model.NewsItem)
	}
	return nil
}

func (c *Collector) collectSentiment(ctx context.Context) *model.MarketSentiment {
	if c.opts.Sentiment == nil {
		return nil
	}
	if c.limiter.TryAcquire(c.opts.Sentiment.Name()) {
		sentiment, err := c.opts.Sentiment.FetchSentiment(ctx)
		if err == nil {
			c.cache.Put(cache.CategorySentiment, sentimentKey, sentiment)
			return sentiment
		}
		c.logger.Warn().Err(err).Msg("sentiment fetch failed")
	} else {
		c.logger.Debug().Str("provider", c.opts.Sentiment.Name()).Msg("sentiment provider rate limited")
	}

	if v, ok := c.cache.Get(cache.CategorySentiment, sentimentKey); ok {
		c.logger.Info().Msg("serving cached sentiment")
		return v.(*model.MarketSentiment)
	}
	return nil
}

// collectTechnicals fetches close history and computes indicators. The
// history source shares its provider's rate budget; technicals are never
// cached.
func (c *Collector) collectTechnicals(ctx context.Context, symbol string) *model.TechnicalIndicators {
	if c.opts.History == nil {
		return nil
	}
	if !c.limiter.TryAcquire(c.opts.History.Name()) {
		c.logger.Debug().Str("provider", c.opts.History.Name()).Str("symbol", symbol).Msg("history provider rate limited")
		return nil
	}
	closes, err := c.opts.History.FetchDailyCloses(ctx, symbol, c.opts.HistoryDays)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("close history fetch failed")
		return nil
	}
	return technicals.Compute(symbol, closes, time.Now().UTC())
}

const sentimentKey = "sentiment_global"

func marketKey(symbol string) string { return "market_" + symbol }
func newsKey(symbol string) string   { return "news_" + symbol }
