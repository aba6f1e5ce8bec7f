package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"crypto-signal-watch/internal/cache"
	"crypto-signal-watch/internal/collector"
	"crypto-signal-watch/internal/fetcher"
	"crypto-signal-watch/internal/fusion"
	"crypto-signal-watch/internal/model"
	"crypto-signal-watch/internal/pipeline"
	"crypto-signal-watch/internal/ratelimit"
	"crypto-signal-watch/internal/service"
)

// SimulateAlert 使用给定的行情与情绪数据模拟一次告警流程。
func (a *App) SimulateAlert(ctx context.Context, symbol string, price decimal.Decimal, change24h float64, fearGreed int) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return errors.New("symbol 不能为空")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	market := &staticMarketFetcher{symbol: symbol, price: price, change24h: change24h}
	sentiment := &staticSentimentFetcher{index: fearGreed}

	limiter := ratelimit.New(nil)
	store := cache.New(a.Config.Cache)

	col := collector.New(collector.Options{
		MarketChain: []fetcher.MarketDataFetcher{market},
		Sentiment:   sentiment,
	}, limiter, store, a.Logger)

	engine := fusion.NewEngine(a.Config.Fusion.Weights, a.Config.Fusion.Risk)
	pipe := pipeline.New(col, engine, []fetcher.MarketDataFetcher{market}, nil, sentiment, limiter, store, a.Logger)

	cfg := *a.Config
	cfg.Symbols = []string{symbol}
	cfg.Alerting.Cooldown = 0

	svc := service.New(&cfg, nil, pipe, limiter, nil, nil, notifier, a.Logger)

	cycle := time.Now().UTC().Truncate(a.Config.Scheduler.Interval)
	return svc.ProcessCycle(ctx, cycle)
}

type staticMarketFetcher struct {
	symbol    string
	price     decimal.Decimal
	change24h float64
}

func (s *staticMarketFetcher) Name() string { return "simulated" }

func (s *staticMarketFetcher) FetchMarketData(ctx context.Context, symbol string) (*model.MarketData, error) {
	return &model.MarketData{
		Symbol:    s.symbol,
		Timestamp: time.Now().UTC(),
		Price:     s.price,
		Open:      s.price,
		Close:     s.price,
		High:      s.price,
		Low:       s.price,
		Change24h: s.change24h,
		Source:    "simulated",
		Quality:   model.QualityVerified,
	}, nil
}

type staticSentimentFetcher struct {
	index int
}

func (s *staticSentimentFetcher) Name() string { return "simulated_sentiment" }

func (s *staticSentimentFetcher) FetchSentiment(ctx context.Context) (*model.MarketSentiment, error) {
	sentiment := &model.MarketSentiment{
		Timestamp:      time.Now().UTC(),
		FearGreedIndex: s.index,
		FearGreedLabel: "Simulated",
		Source:         "simulated",
		Quality:        model.QualityVerified,
	}
	sentiment.ClampIndex()
	return sentiment, nil
}

var _ fetcher.MarketDataFetcher = (*staticMarketFetcher)(nil)
var _ fetcher.SentimentFetcher = (*staticSentimentFetcher)(nil)
