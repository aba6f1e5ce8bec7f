package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-watch/internal/alerting"
	"crypto-signal-watch/internal/cache"
	"crypto-signal-watch/internal/collector"
	"crypto-signal-watch/internal/config"
	"crypto-signal-watch/internal/fetcher"
	"crypto-signal-watch/internal/fusion"
	"crypto-signal-watch/internal/pipeline"
	"crypto-signal-watch/internal/ratelimit"
	"crypto-signal-watch/internal/scheduler"
	"crypto-signal-watch/internal/service"
	"crypto-signal-watch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// fetcherSet groups the provider adapters one pipeline build needs.
type fetcherSet struct {
	market    []fetcher.MarketDataFetcher
	news      fetcher.NewsFetcher
	sentiment fetcher.SentimentFetcher
	history   fetcher.HistoryFetcher
}

func (a *App) newFetchers() fetcherSet {
	providers := a.Config.Providers

	polygon := fetcher.NewPolygon(fetcher.PolygonOptions{
		APIKey:    providers.Polygon.APIKey,
		BaseURL:   providers.Polygon.BaseURL,
		Timeout:   providers.Polygon.RequestTimeout,
		UserAgent: providers.Polygon.UserAgent,
	}, a.Logger)

	coingecko := fetcher.NewCoinGecko(fetcher.CoinGeckoOptions{
		BaseURL:   providers.CoinGecko.BaseURL,
		Timeout:   providers.CoinGecko.RequestTimeout,
		UserAgent: providers.CoinGecko.UserAgent,
	}, a.Logger)

	news := fetcher.NewCryptoCompare(fetcher.CryptoCompareOptions{
		BaseURL:   providers.CryptoCompare.BaseURL,
		Timeout:   providers.CryptoCompare.RequestTimeout,
		UserAgent: providers.CryptoCompare.UserAgent,
		MaxItems:  providers.NewsMaxItems,
	}, a.Logger)

	sentiment := fetcher.NewAlternative(fetcher.AlternativeOptions{
		BaseURL:   providers.Alternative.BaseURL,
		Timeout:   providers.Alternative.RequestTimeout,
		UserAgent: providers.Alternative.UserAgent,
	}, a.Logger)

	// Polygon first; CoinGecko is the fallback and the history source.
	return fetcherSet{
		market:    []fetcher.MarketDataFetcher{polygon, coingecko},
		news:      news,
		sentiment: sentiment,
		history:   coingecko,
	}
}

// newPipeline wires fetchers, limiter, cache, collector, and fusion engine
// into one pipeline instance shared by the service and the one-shot commands.
func (a *App) newPipeline() (*pipeline.Pipeline, *ratelimit.Limiter) {
	fetchers := a.newFetchers()
	limiter := ratelimit.New(a.Config.RateLimit.Quotas())
	store := cache.New(a.Config.Cache)

	col := collector.New(collector.Options{
		MarketChain: fetchers.market,
		News:        fetchers.news,
		Sentiment:   fetchers.sentiment,
		History:     fetchers.history,
		HistoryDays: a.Config.Providers.HistoryDays,
	}, limiter, store, a.Logger)

	engine := fusion.NewEngine(a.Config.Fusion.Weights, a.Config.Fusion.Risk)

	pipe := pipeline.New(col, engine, fetchers.market, fetchers.news, fetchers.sentiment, limiter, store, a.Logger)
	return pipe, limiter
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running collection service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToCycle,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	pipe, limiter := a.newPipeline()
	notifier := a.newNotifier()

	var sampleStore storage.SignalSampleStore
	var alertStore storage.AlertStore
	if store != nil {
		sampleStore = store
		alertStore = store
	}

	svc := service.New(a.Config, sched, pipe, limiter, sampleStore, alertStore, notifier, a.Logger)

	a.Logger.Info().Strs("symbols", a.Config.Symbols).Msg("starting signal collection service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("signal collection service stopped")
	return nil
}

// CollectOptions configure a one-shot collection.
type CollectOptions struct {
	Symbols []string
	AsJSON  bool
}

// ExportOptions hold parameters for exporting one symbol's signal history.
type ExportOptions struct {
	Symbol    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
