package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-watch/internal/cache"
	"crypto-signal-watch/internal/collector"
	"crypto-signal-watch/internal/fetcher"
	"crypto-signal-watch/internal/fusion"
	"crypto-signal-watch/internal/model"
	"crypto-signal-watch/internal/ratelimit"
)

// probeSymbol is the instrument used for lightweight provider probes.
const probeSymbol = "BTC"

// SourceStatus is the outcome of one provider probe.
type SourceStatus string

const (
	StatusHealthy   SourceStatus = "healthy"
	StatusUnhealthy SourceStatus = "unhealthy"
	StatusError     SourceStatus = "error"
)

// Health aggregates the per-provider probe outcomes with cache and
// rate-limit usage.
type Health struct {
	Timestamp  time.Time
	Sources    map[string]SourceStatus
	CacheSizes map[cache.Category]int
	RateLimits map[string]ratelimit.Usage
}

// Pipeline drives collection and fusion across a symbol list.
type Pipeline struct {
	collector *collector.Collector
	engine    *fusion.Engine

	market    []fetcher.MarketDataFetcher
	news      fetcher.NewsFetcher
	sentiment fetcher.SentimentFetcher

	limiter *ratelimit.Limiter
	cache   *cache.Store
	logger  zerolog.Logger
}

// New constructs the pipeline orchestrator. The fetchers given here are the
// same instances the collector fans out over; health probes reuse them.
func New(col *collector.Collector, engine *fusion.Engine, market []fetcher.MarketDataFetcher, news fetcher.NewsFetcher, sentiment fetcher.SentimentFetcher, limiter *ratelimit.Limiter, store *cache.Store, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		collector: col,
		engine:    engine,
		market:    market,
		news:      news,
		sentiment: sentiment,
		limiter:   limiter,
		cache:     store,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// CollectAll processes symbols one at a time and returns the fused signal
// per symbol. A fault while processing one symbol is logged and that symbol
// omitted; it never aborts the batch.
func (p *Pipeline) CollectAll(ctx context.Context, symbols []string) map[string]*model.CombinedSignal {
	out := make(map[string]*model.CombinedSignal, len(symbols))

	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return out
		default:
		}

		sig, err := p.collectOne(ctx, symbol)
		if err != nil {
			p.logger.Error().Err(err).Str("symbol", symbol).Msg("symbol collection failed")
			continue
		}
		out[sig.Symbol] = sig

		p.logger.Info().
			Str("symbol", sig.Symbol).
			Str("signal", sig.OverallSignal.String()).
			Float64("confidence", sig.Confidence).
			Str("risk", string(sig.Risk)).
			Msg("signal computed")
	}

	return out
}

// collectOne isolates one symbol's collection so an unexpected fault cannot
// take down the rest of the batch.
func (p *Pipeline) collectOne(ctx context.Context, symbol string) (sig *model.CombinedSignal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			err = fmt.Errorf("panic processing %s: %v", symbol, r)
		}
	}()

	sig = p.collector.Collect(ctx, symbol)
	p.engine.Fuse(sig)
	return sig, nil
}

// HealthCheck performs one lightweight probe per provider. Probes bypass the
// rate limiter deliberately: an operator asking for health wants a live
// answer.
func (p *Pipeline) HealthCheck(ctx context.Context) Health {
	h := Health{
		Timestamp:  time.Now().UTC(),
		Sources:    make(map[string]SourceStatus),
		CacheSizes: p.cache.Len(),
		RateLimits: p.limiter.Snapshot(),
	}

	for _, f := range p.market {
		h.Sources[f.Name()] = p.probe(func() error {
			_, err := f.FetchMarketData(ctx, probeSymbol)
			return err
		})
	}
	if p.news != nil {
		h.Sources[p.news.Name()] = p.probe(func() error {
			_, err := p.news.FetchNews(ctx, probeSymbol)
			return err
		})
	}
	if p.sentiment != nil {
		h.Sources[p.sentiment.Name()] = p.probe(func() error {
			_, err := p.sentiment.FetchSentiment(ctx)
			return err
		})
	}

	return h
}

func (p *Pipeline) probe(fn func() error) SourceStatus {
	err := fn()
	switch {
	case err == nil:
		return StatusHealthy
	case errorsIsUnavailable(err):
		return StatusUnhealthy
	default:
		return StatusError
	}
}

func errorsIsUnavailable(err error) bool {
	return errors.Is(err, fetcher.ErrUnavailable)
}
