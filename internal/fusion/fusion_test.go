package fusion

import (
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"crypto-signal-watch/internal/model"
)

func marketWithChange(change float64) *model.MarketData {
	return &model.MarketData{
		Symbol:    "BTC",
		Timestamp: time.Now().UTC(),
		Price:     decimal.NewFromInt(50000),
		Change24h: change,
		Source:    "test",
		Quality:   model.QualityVerified,
	}
}

func TestFuseEmptyBundle(t *testing.T) {
	engine := NewEngine(Weights{}, RiskThresholds{})
	sig := &model.CombinedSignal{Symbol: "BTC", Timestamp: time.Now().UTC()}

	engine.Fuse(sig)

	if sig.OverallSignal != model.Neutral {
		t.Fatalf("空数据应得到 NEUTRAL, 实际 %s", sig.OverallSignal)
	}
	if sig.Confidence != 0 {
		t.Fatalf("空数据置信度应为 0, 实际 %f", sig.Confidence)
	}
	if sig.Risk != model.RiskExtreme {
		t.Fatalf("空数据风险应为 extreme, 实际 %s", sig.Risk)
	}
	if len(sig.Reasoning) == 0 || sig.Reasoning[0] != "Neutral market conditions" {
		t.Fatalf("缺少中性推理说明: %#v", sig.Reasoning)
	}
}

func TestFusePriceOnlyStrongBuy(t *testing.T) {
	engine := NewEngine(DefaultWeights(), DefaultRiskThresholds())
	sig := &model.CombinedSignal{
		Symbol:     "BTC",
		Timestamp:  time.Now().UTC(),
		MarketData: marketWithChange(12),
	}

	engine.Fuse(sig)

	if sig.OverallSignal != model.StrongBuy {
		t.Fatalf("单一强烈看涨分量应给出 STRONG_BUY, 实际 %s", sig.OverallSignal)
	}
	if sig.Confidence != 1 {
		t.Fatalf("单分量方差为零, 置信度应为 1, 实际 %f", sig.Confidence)
	}
	if sig.Risk != model.RiskLow {
		t.Fatalf("置信度 1 风险应为 low, 实际 %s", sig.Risk)
	}

	found := false
	for _, w := range sig.Warnings {
		if strings.HasPrefix(w, "High volatility:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("24h 涨跌超过 10%% 应产生波动性警告: %#v", sig.Warnings)
	}
}

func TestFuseConflictCollapsesToNeutral(t *testing.T) {
	engine := NewEngine(DefaultWeights(), DefaultRiskThresholds())
	sig := &model.CombinedSignal{
		Symbol:     "BTC",
		Timestamp:  time.Now().UTC(),
		MarketData: marketWithChange(12),
		Sentiment: &model.MarketSentiment{
			Timestamp:      time.Now().UTC(),
			FearGreedIndex: 90,
			FearGreedLabel: "Extreme Greed",
			Source:         "test",
		},
	}

	engine.Fuse(sig)

	// price contributes 5, contrarian sentiment contributes 1
	if sig.PriceSignal != model.StrongBuy {
		t.Fatalf("价格分量应为 STRONG_BUY, 实际 %s", sig.PriceSignal)
	}
	if sig.SentimentSignal != model.StrongSell {
		t.Fatalf("贪婪指数 90 的逆向分量应为 STRONG_SELL, 实际 %s", sig.SentimentSignal)
	}
	if sig.OverallSignal != model.Neutral {
		t.Fatalf("强烈冲突应坍缩为 NEUTRAL, 实际 %s", sig.OverallSignal)
	}
	if sig.Confidence != 0 {
		t.Fatalf("强烈冲突置信度应被截断为 0, 实际 %f", sig.Confidence)
	}
	if sig.Risk != model.RiskExtreme {
		t.Fatalf("冲突信号风险应为 extreme, 实际 %s", sig.Risk)
	}

	found := false
	for _, o := range sig.Opportunities {
		if strings.HasPrefix(o, "Extreme sentiment:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("极端情绪应产生机会提示: %#v", sig.Opportunities)
	}
}

func TestFuseNewsAveragingCap(t *testing.T) {
	engine := NewEngine(DefaultWeights(), DefaultRiskThresholds())

	// 5 strongly positive high-impact items followed by noise that must be
	// ignored by the cap.
	items := make([]model.NewsItem, 0, 8)
	for i := 0; i < 5; i++ {
		items = append(items, model.NewsItem{
			Headline:       "ETF approval imminent",
			SentimentScore: 0.8,
			Impact:         model.ImpactHigh,
		})
	}
	for i := 0; i < 3; i++ {
		items = append(items, model.NewsItem{
			Headline:       "Exchange hacked",
			SentimentScore: -0.9,
			Impact:         model.ImpactCritical,
		})
	}

	sig := &model.CombinedSignal{
		Symbol:    "BTC",
		Timestamp: time.Now().UTC(),
		NewsItems: items,
	}

	engine.Fuse(sig)

	if sig.NewsSignal != model.StrongBuy {
		t.Fatalf("前 5 条强正面新闻应给出 STRONG_BUY, 实际 %s", sig.NewsSignal)
	}

	// critical item outside the averaging window still yields a warning
	found := false
	for _, w := range sig.Warnings {
		if strings.HasPrefix(w, "Critical news:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("critical 新闻应产生警告: %#v", sig.Warnings)
	}
}

func TestFuseTechnicalAveragesComputableSignals(t *testing.T) {
	engine := NewEngine(DefaultWeights(), DefaultRiskThresholds())

	rsi := 25.0
	sma50 := 51000.0
	sma200 := 48000.0
	sig := &model.CombinedSignal{
		Symbol:     "BTC",
		Timestamp:  time.Now().UTC(),
		MarketData: marketWithChange(0),
		Technicals: &model.TechnicalIndicators{
			Symbol:    "BTC",
			Timestamp: time.Now().UTC(),
			RSI14:     &rsi,
			SMA50:     &sma50,
			SMA200:    &sma200,
		},
	}

	engine.Fuse(sig)

	// RSI 25 -> 5, price below SMA50 -> 2; the 3.5 average rounds
	// half-to-even onto BUY.
	if sig.TechnicalSignal == model.Neutral {
		t.Fatalf("可计算的技术指标不应保持 NEUTRAL")
	}
	if sig.TechnicalSignal < model.Neutral {
		t.Fatalf("超卖 RSI 加金叉不应看跌, 实际 %s", sig.TechnicalSignal)
	}
}

func TestFuseUnrenormalizedWeighting(t *testing.T) {
	engine := NewEngine(DefaultWeights(), DefaultRiskThresholds())

	// price 5 (weight .25) + sentiment 3 (weight .20):
	// mean = (5*.25 + 3*.20) / .45 = 4.111 -> rounds to 4 (BUY)
	sig := &model.CombinedSignal{
		Symbol:     "BTC",
		Timestamp:  time.Now().UTC(),
		MarketData: marketWithChange(12),
		Sentiment: &model.MarketSentiment{
			Timestamp:      time.Now().UTC(),
			FearGreedIndex: 50,
			FearGreedLabel: "Neutral",
			Source:         "test",
		},
	}

	engine.Fuse(sig)

	if sig.OverallSignal != model.Buy {
		t.Fatalf("加权均值 4.11 应四舍五入到 BUY, 实际 %s", sig.OverallSignal)
	}

	mean := (5*0.25 + 3*0.20) / 0.45
	variance := ((5-mean)*(5-mean) + (3-mean)*(3-mean)) / 2
	want := 1 - variance/4
	if math.Abs(sig.Confidence-want) > 1e-9 {
		t.Fatalf("置信度计算不符: 期望 %f, 实际 %f", want, sig.Confidence)
	}
}

func TestFuseHalfwayMeanRoundsToEven(t *testing.T) {
	engine := NewEngine(DefaultWeights(), DefaultRiskThresholds())

	// price 1 (weight .25) + technical 4 (weight .25):
	// mean = (1*.25 + 4*.25) / .50 = 2.5, half-to-even -> 2 (SELL)
	rsi := 35.0
	sig := &model.CombinedSignal{
		Symbol:     "BTC",
		Timestamp:  time.Now().UTC(),
		MarketData: marketWithChange(-12),
		Technicals: &model.TechnicalIndicators{
			Symbol:    "BTC",
			Timestamp: time.Now().UTC(),
			RSI14:     &rsi,
		},
	}

	engine.Fuse(sig)

	if sig.PriceSignal != model.StrongSell {
		t.Fatalf("-12%% 应给出 STRONG_SELL, 实际 %s", sig.PriceSignal)
	}
	if sig.TechnicalSignal != model.Buy {
		t.Fatalf("RSI 35 应给出 BUY, 实际 %s", sig.TechnicalSignal)
	}
	if sig.OverallSignal != model.Sell {
		t.Fatalf("均值 2.5 应取偶数档 SELL, 实际 %s", sig.OverallSignal)
	}
}

func TestTruncatePreservesRunes(t *testing.T) {
	headline := strings.Repeat("比", 60)
	got := truncate(headline, 50)
	if got != strings.Repeat("比", 50) {
		t.Fatalf("应按 rune 截断到 50 个字符, 实际 %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("截断结果不是合法 UTF-8: %q", got)
	}
	short := "BTC ETF"
	if truncate(short, 50) != short {
		t.Fatalf("短标题不应被截断")
	}
}

func TestNewEngineZeroValueFallsBack(t *testing.T) {
	engine := NewEngine(Weights{}, RiskThresholds{})
	if engine.weights != DefaultWeights() {
		t.Fatalf("零值权重应回落到默认值")
	}
	if engine.thresholds != DefaultRiskThresholds() {
		t.Fatalf("零值阈值应回落到默认值")
	}
}
