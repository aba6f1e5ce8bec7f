package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-signal-watch/internal/alerting"
	"crypto-signal-watch/internal/config"
	"crypto-signal-watch/internal/model"
	"crypto-signal-watch/internal/pipeline"
	"crypto-signal-watch/internal/ratelimit"
	"crypto-signal-watch/internal/scheduler"
	"crypto-signal-watch/internal/storage"
)

// Service orchestrates collection cycles, persistence, and alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	pipeline  *pipeline.Pipeline
	limiter   *ratelimit.Limiter

	store      storage.SignalSampleStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	symbols       []string
	minConfidence float64
	cooldown      time.Duration
	channels      []string
	alertsOn      bool
	locker        storage.AdvisoryLocker
	lockKey       int64

	mu        sync.Mutex
	lastAlert map[string]time.Time
}

// New constructs the collection service.
func New(cfg *config.Config, sched *scheduler.Scheduler, pipe *pipeline.Pipeline, limiter *ratelimit.Limiter, store storage.SignalSampleStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:     sched,
		pipeline:      pipe,
		limiter:       limiter,
		store:         store,
		alertStore:    alertStore,
		notifier:      notifier,
		logger:        logger.With().Str("component", "service").Logger(),
		symbols:       config.NormalizeSymbols(cfg.Symbols),
		minConfidence: cfg.Alerting.MinConfidence,
		cooldown:      cfg.Alerting.Cooldown,
		channels:      cfg.Alerting.Channels,
		alertsOn:      cfg.Alerting.Enabled,
		locker:        locker,
		lockKey:       cfg.Scheduler.AdvisoryLockKey,
		lastAlert:     make(map[string]time.Time),
	}
}

// Run begins the collection loop and the per-provider limiter reset loops.
// It blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}

	var wg sync.WaitGroup
	if s.limiter != nil {
		for provider, window := range s.limiter.Windows() {
			wg.Add(1)
			go func(provider string, window time.Duration) {
				defer wg.Done()
				s.resetLoop(ctx, provider, window)
			}(provider, window)
		}
	}

	err := s.scheduler.Run(ctx, s.ProcessCycle)
	wg.Wait()
	return err
}

// resetLoop clears one provider's call counter each time its window elapses.
func (s *Service) resetLoop(ctx context.Context, provider string, window time.Duration) {
	if window <= 0 {
		return
	}
	ticker := time.NewTicker(window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Reset(provider)
			s.logger.Debug().Str("provider", provider).Msg("rate window reset")
		}
	}
}

// ProcessCycle 执行单个采集周期。
func (s *Service) ProcessCycle(ctx context.Context, cycle time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("cycle", cycle).Msg("skip cycle because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeCycle(ctx, cycle)
}

func (s *Service) executeCycle(ctx context.Context, cycle time.Time) error {
	results := s.pipeline.CollectAll(ctx, s.symbols)

	for _, symbol := range s.symbols {
		sig, ok := results[symbol]
		if !ok {
			s.recordFailure(ctx, symbol, cycle)
			continue
		}

		if s.store != nil {
			sample, err := buildSample(sig, cycle)
			if err != nil {
				s.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to build sample")
			} else if err := s.store.UpsertSignalSample(ctx, sample); err != nil {
				s.logger.Error().Err(err).Str("symbol", symbol).Time("cycle", cycle).Msg("failed to upsert sample")
			}
		}

		s.maybeAlert(ctx, sig, cycle)
	}

	return nil
}

func (s *Service) recordFailure(ctx context.Context, symbol string, cycle time.Time) {
	s.logger.Warn().Str("symbol", symbol).Time("cycle", cycle).Msg("symbol produced no signal this cycle")
	if s.store == nil {
		return
	}
	msg := "collection failed"
	sample := storage.SignalSample{
		Symbol:     symbol,
		CycleTS:    cycle,
		Overall:    model.Neutral.String(),
		Confidence: decimal.Zero,
		Risk:       string(model.RiskExtreme),
		Status:     "errored",
		Error:      &msg,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.UpsertSignalSample(ctx, sample); err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to record errored sample")
	}
}

func buildSample(sig *model.CombinedSignal, cycle time.Time) (storage.SignalSample, error) {
	payload, err := sig.JSON()
	if err != nil {
		return storage.SignalSample{}, err
	}

	sample := storage.SignalSample{
		Symbol:     sig.Symbol,
		CycleTS:    cycle,
		Overall:    sig.OverallSignal.String(),
		Confidence: decimal.NewFromFloat(sig.Confidence),
		Risk:       string(sig.Risk),
		Payload:    payload,
		Status:     "complete",
		CreatedAt:  time.Now().UTC(),
	}

	if sig.MarketData != nil {
		price := sig.MarketData.Price
		change := sig.MarketData.Change24h
		sample.Price = &price
		sample.Change24h = &change
	}
	if sig.Sentiment != nil {
		fg := sig.Sentiment.FearGreedIndex
		sample.FearGreed = &fg
	}

	return sample, nil
}

// maybeAlert dispatches a notification when a non-neutral signal clears the
// confidence floor and the per-symbol cooldown has elapsed.
func (s *Service) maybeAlert(ctx context.Context, sig *model.CombinedSignal, cycle time.Time) {
	if !s.alertsOn || s.notifier == nil {
		return
	}
	if sig.OverallSignal == model.Neutral {
		return
	}
	if sig.Confidence < s.minConfidence {
		return
	}
	if !s.clearCooldown(sig.Symbol, cycle) {
		s.logger.Debug().Str("symbol", sig.Symbol).Msg("alert suppressed by cooldown")
		return
	}

	note := alerting.Notification{
		Symbol:     sig.Symbol,
		CycleTS:    cycle,
		Signal:     sig.OverallSignal.String(),
		Confidence: decimal.NewFromFloat(sig.Confidence),
		Risk:       string(sig.Risk),
		Reasoning:  sig.Reasoning,
		Warnings:   sig.Warnings,
		Channels:   s.channels,
	}

	if s.alertStore != nil {
		record := storage.AlertRecord{
			Symbol:     sig.Symbol,
			CycleTS:    cycle,
			Signal:     sig.OverallSignal.String(),
			Confidence: decimal.NewFromFloat(sig.Confidence),
			Risk:       string(sig.Risk),
			Channels:   s.channels,
		}
		if _, err := s.alertStore.InsertAlert(ctx, record); err != nil {
			s.logger.Error().Err(err).Str("symbol", sig.Symbol).Msg("failed to persist alert record")
		}
	}

	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("symbol", sig.Symbol).Msg("failed to dispatch alert")
		return
	}
}

// clearCooldown reports whether the symbol may alert now, and records the
// alert time when it may.
func (s *Service) clearCooldown(symbol string, now time.Time) bool {
	if s.cooldown <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastAlert[symbol]; ok && now.Sub(last) < s.cooldown {
		return false
	}
	s.lastAlert[symbol] = now
	return true
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
