package model

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSignalStrengthString(t *testing.T) {
	cases := map[SignalStrength]string{
		StrongSell: "STRONG_SELL",
		Sell:       "SELL",
		Neutral:    "NEUTRAL",
		Buy:        "BUY",
		StrongBuy:  "STRONG_BUY",
	}
	for v, want := range cases {
		if v.String() != want {
			t.Fatalf("%d 应输出 %s, 实际 %s", int(v), want, v.String())
		}
	}
}

func TestSignalFromValueClamps(t *testing.T) {
	if SignalFromValue(0) != StrongSell {
		t.Fatal("下溢应钳制到 STRONG_SELL")
	}
	if SignalFromValue(9) != StrongBuy {
		t.Fatal("上溢应钳制到 STRONG_BUY")
	}
	if SignalFromValue(3) != Neutral {
		t.Fatal("范围内的值应原样映射")
	}
}

func TestPriceSignalThresholds(t *testing.T) {
	cases := []struct {
		change float64
		want   SignalStrength
	}{
		{12, StrongBuy},
		{5, Buy},
		{3, Neutral},
		{0, Neutral},
		{-3, Neutral},
		{-5, Sell},
		{-12, StrongSell},
	}
	for _, tc := range cases {
		m := &MarketData{Change24h: tc.change}
		if got := m.PriceSignal(); got != tc.want {
			t.Fatalf("Change24h=%f 应得 %s, 实际 %s", tc.change, tc.want, got)
		}
	}
}

func TestContrarianSignal(t *testing.T) {
	cases := []struct {
		index int
		want  SignalStrength
	}{
		{10, StrongBuy},
		{25, Buy},
		{50, Neutral},
		{70, Sell},
		{90, StrongSell},
	}
	for _, tc := range cases {
		s := &MarketSentiment{FearGreedIndex: tc.index}
		if got := s.ContrarianSignal(); got != tc.want {
			t.Fatalf("指数 %d 应得 %s, 实际 %s", tc.index, tc.want, got)
		}
	}
}

func TestClampIndex(t *testing.T) {
	s := &MarketSentiment{FearGreedIndex: -5}
	s.ClampIndex()
	if s.FearGreedIndex != 0 {
		t.Fatalf("负值应钳制到 0, 实际 %d", s.FearGreedIndex)
	}

	s.FearGreedIndex = 150
	s.ClampIndex()
	if s.FearGreedIndex != 100 {
		t.Fatalf("超上限应钳制到 100, 实际 %d", s.FearGreedIndex)
	}
}

func TestNewsSentimentSignalAmplification(t *testing.T) {
	highImpact := &NewsItem{SentimentScore: 0.6, Impact: ImpactCritical}
	if highImpact.SentimentSignal() != StrongBuy {
		t.Fatal("高影响正面新闻应放大为 STRONG_BUY")
	}

	lowImpact := &NewsItem{SentimentScore: 0.6, Impact: ImpactLow}
	if lowImpact.SentimentSignal() != Buy {
		t.Fatal("低影响正面新闻应保持 BUY")
	}

	bearish := &NewsItem{SentimentScore: -0.7, Impact: ImpactHigh}
	if bearish.SentimentSignal() != StrongSell {
		t.Fatal("高影响负面新闻应放大为 STRONG_SELL")
	}
}

func TestRSISignalNilDegradesToNeutral(t *testing.T) {
	ind := &TechnicalIndicators{}
	if ind.RSISignal() != Neutral {
		t.Fatal("缺少 RSI 应退化为 NEUTRAL")
	}
	if ind.MASignal(100) != Neutral {
		t.Fatal("缺少均线应退化为 NEUTRAL")
	}
}

func TestMASignalCross(t *testing.T) {
	sma50 := 100.0
	sma200 := 90.0
	ind := &TechnicalIndicators{SMA50: &sma50, SMA200: &sma200}

	if ind.MASignal(110) != StrongBuy {
		t.Fatal("金叉且价格在 SMA50 上方应为 STRONG_BUY")
	}

	sma50b := 90.0
	sma200b := 100.0
	ind = &TechnicalIndicators{SMA50: &sma50b, SMA200: &sma200b}
	if ind.MASignal(80) != StrongSell {
		t.Fatal("死叉且价格在 SMA50 下方应为 STRONG_SELL")
	}
}

func TestCombinedSignalUIDStable(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &CombinedSignal{Symbol: "BTC", Timestamp: ts}
	b := &CombinedSignal{Symbol: "BTC", Timestamp: ts}
	c := &CombinedSignal{Symbol: "ETH", Timestamp: ts}

	if a.UID() != b.UID() {
		t.Fatal("相同 (symbol, timestamp) 的 UID 应一致")
	}
	if a.UID() == c.UID() {
		t.Fatal("不同符号的 UID 应不同")
	}
	if len(a.UID()) != 16 {
		t.Fatalf("UID 长度应为 16, 实际 %d", len(a.UID()))
	}
}

func TestCombinedSignalJSON(t *testing.T) {
	sig := &CombinedSignal{
		Symbol:        "BTC",
		Timestamp:     time.Now().UTC(),
		OverallSignal: Buy,
		Confidence:    0.74,
		Risk:          RiskMedium,
		Reasoning:     []string{"Bullish signal with 74.0% confidence"},
		MarketData:    &MarketData{Price: decimal.NewFromInt(50000)},
	}

	b, err := sig.JSON()
	if err != nil {
		t.Fatalf("序列化不应失败: %v", err)
	}
	body := string(b)
	if !strings.Contains(body, `"overall_signal": "BUY"`) {
		t.Fatalf("JSON 应包含信号标签: %s", body)
	}
	if !strings.Contains(body, `"risk_level": "medium"`) {
		t.Fatalf("JSON 应包含风险级别: %s", body)
	}
}

func TestMoodLabels(t *testing.T) {
	cases := []struct {
		index int
		sub   string
	}{
		{10, "panic"},
		{50, "Neutral"},
		{90, "greed"},
	}
	for _, tc := range cases {
		s := &MarketSentiment{FearGreedIndex: tc.index}
		if !strings.Contains(strings.ToLower(s.Mood()), strings.ToLower(tc.sub)) {
			t.Fatalf("指数 %d 的描述应包含 %q, 实际 %q", tc.index, tc.sub, s.Mood())
		}
	}
}
