package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-signal-watch/internal/alerting"
	"crypto-signal-watch/internal/cache"
	"crypto-signal-watch/internal/collector"
	"crypto-signal-watch/internal/config"
	"crypto-signal-watch/internal/fetcher"
	"crypto-signal-watch/internal/fusion"
	"crypto-signal-watch/internal/model"
	"crypto-signal-watch/internal/pipeline"
	"crypto-signal-watch/internal/ratelimit"
	"crypto-signal-watch/internal/storage"
)

type staticMarket struct {
	change float64
}

func (s *staticMarket) Name() string { return "static" }

func (s *staticMarket) FetchMarketData(ctx context.Context, symbol string) (*model.MarketData, error) {
	return &model.MarketData{
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Price:     decimal.NewFromInt(50000),
		Change24h: s.change,
		Source:    "static",
	}, nil
}

type recordingNotifier struct {
	notes []alerting.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	r.notes = append(r.notes, note)
	return nil
}

type recordingStore struct {
	samples []storage.SignalSample
	alerts  []storage.AlertRecord
}

func (r *recordingStore) UpsertSignalSample(ctx context.Context, sample storage.SignalSample) error {
	r.samples = append(r.samples, sample)
	return nil
}

func (r *recordingStore) ListSamplesBetween(ctx context.Context, symbol string, from, to time.Time) ([]storage.SignalSample, error) {
	return nil, nil
}

func (r *recordingStore) ListRecentSamples(ctx context.Context, limit int) ([]storage.SignalSample, error) {
	return r.samples, nil
}

func (r *recordingStore) MarkSampleErrored(ctx context.Context, symbol string, cycle time.Time, errMsg string) error {
	return nil
}

func (r *recordingStore) CountSamples(ctx context.Context) (int64, error) {
	return int64(len(r.samples)), nil
}

func (r *recordingStore) InsertAlert(ctx context.Context, alert storage.AlertRecord) (storage.AlertRecord, error) {
	r.alerts = append(r.alerts, alert)
	return alert, nil
}

func (r *recordingStore) ListRecentAlerts(ctx context.Context, limit int) ([]storage.AlertRecord, error) {
	return r.alerts, nil
}

func (r *recordingStore) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	return nil
}

func newTestService(change float64, cooldown time.Duration) (*Service, *recordingNotifier, *recordingStore) {
	return newTestServiceWithSymbols([]string{"BTC"}, change, cooldown)
}

func newTestServiceWithSymbols(symbols []string, change float64, cooldown time.Duration) (*Service, *recordingNotifier, *recordingStore) {
	limiter := ratelimit.New(nil)
	store := cache.New(cache.Windows{})
	market := &staticMarket{change: change}
	chain := []fetcher.MarketDataFetcher{market}

	col := collector.New(collector.Options{MarketChain: chain}, limiter, store, zerolog.Nop())
	engine := fusion.NewEngine(fusion.DefaultWeights(), fusion.DefaultRiskThresholds())
	pipe := pipeline.New(col, engine, chain, nil, nil, limiter, store, zerolog.Nop())

	cfg := &config.Config{
		Symbols: symbols,
		Alerting: config.AlertingConfig{
			Enabled:       true,
			MinConfidence: 0.6,
			Cooldown:      cooldown,
			Channels:      []string{"telegram"},
		},
	}

	notifier := &recordingNotifier{}
	db := &recordingStore{}
	svc := New(cfg, nil, pipe, limiter, db, db, notifier, zerolog.Nop())
	return svc, notifier, db
}

func TestProcessCycleAlertsOnStrongSignal(t *testing.T) {
	svc, notifier, db := newTestService(12, time.Hour)

	cycle := time.Now().UTC().Truncate(time.Minute)
	if err := svc.ProcessCycle(context.Background(), cycle); err != nil {
		t.Fatalf("ProcessCycle 不应失败: %v", err)
	}

	if len(db.samples) != 1 {
		t.Fatalf("应持久化 1 条样本, 实际 %d", len(db.samples))
	}
	sample := db.samples[0]
	if sample.Overall != "STRONG_BUY" || sample.Status != "complete" {
		t.Fatalf("样本内容不符: %+v", sample)
	}
	if sample.Price == nil || sample.Price.String() != "50000" {
		t.Fatalf("样本应携带价格: %+v", sample.Price)
	}

	if len(notifier.notes) != 1 {
		t.Fatalf("强信号应触发 1 次告警, 实际 %d", len(notifier.notes))
	}
	if notifier.notes[0].Signal != "STRONG_BUY" {
		t.Fatalf("告警信号不符: %s", notifier.notes[0].Signal)
	}
	if len(db.alerts) != 1 {
		t.Fatalf("告警应入库, 实际 %d", len(db.alerts))
	}
}

func TestProcessCycleLowercaseSymbolStillRecorded(t *testing.T) {
	svc, notifier, db := newTestServiceWithSymbols([]string{"btc"}, 12, time.Hour)

	cycle := time.Now().UTC().Truncate(time.Minute)
	if err := svc.ProcessCycle(context.Background(), cycle); err != nil {
		t.Fatalf("ProcessCycle 不应失败: %v", err)
	}

	if len(db.samples) != 1 {
		t.Fatalf("应持久化 1 条样本, 实际 %d", len(db.samples))
	}
	sample := db.samples[0]
	if sample.Symbol != "BTC" {
		t.Fatalf("样本应以规范化符号入库, 实际 %q", sample.Symbol)
	}
	if sample.Status != "complete" {
		t.Fatalf("小写配置不应被记成失败样本: %+v", sample)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("小写配置不应拦下告警, 实际 %d 次", len(notifier.notes))
	}
}

func TestProcessCycleCooldownSuppressesRepeat(t *testing.T) {
	svc, notifier, _ := newTestService(12, time.Hour)

	cycle := time.Now().UTC()
	_ = svc.ProcessCycle(context.Background(), cycle)
	_ = svc.ProcessCycle(context.Background(), cycle.Add(time.Minute))

	if len(notifier.notes) != 1 {
		t.Fatalf("冷却期内不应重复告警, 实际 %d", len(notifier.notes))
	}
}

func TestProcessCycleCooldownExpires(t *testing.T) {
	svc, notifier, _ := newTestService(12, 30*time.Minute)

	cycle := time.Now().UTC()
	_ = svc.ProcessCycle(context.Background(), cycle)
	_ = svc.ProcessCycle(context.Background(), cycle.Add(time.Hour))

	if len(notifier.notes) != 2 {
		t.Fatalf("冷却期过后应再次告警, 实际 %d", len(notifier.notes))
	}
}

func TestProcessCycleNeutralNoAlert(t *testing.T) {
	svc, notifier, db := newTestService(0, time.Hour)

	if err := svc.ProcessCycle(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("ProcessCycle 不应失败: %v", err)
	}

	if len(notifier.notes) != 0 {
		t.Fatal("中性信号不应告警")
	}
	if len(db.samples) != 1 {
		t.Fatal("中性信号仍应持久化样本")
	}
	if db.samples[0].Overall != "NEUTRAL" {
		t.Fatalf("样本信号应为 NEUTRAL, 实际 %s", db.samples[0].Overall)
	}
}

func TestRunRequiresScheduler(t *testing.T) {
	svc, _, _ := newTestService(0, 0)
	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("缺少 scheduler 时 Run 应报错")
	}
}
