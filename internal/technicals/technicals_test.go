package technicals

import (
	"math"
	"testing"
	"time"
)

func constantSeries(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputeEmptyHistory(t *testing.T) {
	ind := Compute("BTC", nil, time.Now().UTC())
	if ind.Symbol != "BTC" {
		t.Fatalf("符号应透传, 实际 %q", ind.Symbol)
	}
	if ind.RSI14 != nil || ind.SMA50 != nil || ind.MACD != nil {
		t.Fatal("无历史数据时指标应为 nil")
	}
}

func TestComputeShortHistoryLeavesLongIndicatorsNil(t *testing.T) {
	closes := constantSeries(100, 30)
	ind := Compute("BTC", closes, time.Now().UTC())

	if ind.RSI14 == nil {
		t.Fatal("30 根K线足够计算 RSI14")
	}
	if ind.SMA50 != nil || ind.SMA200 != nil {
		t.Fatal("历史不足 50/200 时 SMA 应为 nil")
	}
	if ind.BollingerMiddle == nil {
		t.Fatal("30 根K线足够计算布林带")
	}
	if ind.SupportLevel == nil || ind.ResistanceLevel == nil {
		t.Fatal("30 根K线足够计算支撑阻力")
	}
}

func TestSMAConstantSeries(t *testing.T) {
	v, ok := sma(constantSeries(42, 60), 50)
	if !ok {
		t.Fatal("60 根K线应能计算 SMA50")
	}
	if math.Abs(v-42) > 1e-9 {
		t.Fatalf("常数序列 SMA 应等于常数, 实际 %f", v)
	}
}

func TestRSIAllGainsSaturates(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	v, ok := rsi(closes, 14)
	if !ok {
		t.Fatal("30 根K线应能计算 RSI")
	}
	if v != 100 {
		t.Fatalf("全部上涨时 RSI 应饱和到 100, 实际 %f", v)
	}
}

func TestRSIConstantSeriesNeutral(t *testing.T) {
	// no movement means zero average loss, which saturates by convention
	v, ok := rsi(constantSeries(100, 30), 14)
	if !ok {
		t.Fatal("常数序列应能计算 RSI")
	}
	if v != 100 {
		t.Fatalf("零跌幅约定返回 100, 实际 %f", v)
	}
}

func TestBollingerConstantSeriesCollapses(t *testing.T) {
	mid, upper, lower, ok := bollinger(constantSeries(50, 25), 20, 2.0)
	if !ok {
		t.Fatal("25 根K线应能计算布林带")
	}
	if mid != 50 || upper != 50 || lower != 50 {
		t.Fatalf("零方差时三条带应重合: mid=%f upper=%f lower=%f", mid, upper, lower)
	}
}

func TestRangeLevels(t *testing.T) {
	closes := append(constantSeries(100, 20), 90, 110, 95, 105, 100, 100, 100, 100, 100, 100)
	lo, hi, ok := rangeLevels(closes, 30)
	if !ok {
		t.Fatal("30 根K线应能计算区间")
	}
	if lo != 90 || hi != 110 {
		t.Fatalf("区间应为 [90, 110], 实际 [%f, %f]", lo, hi)
	}
}

func TestMACDTrendingSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 2*float64(i)
	}
	ind := Compute("BTC", closes, time.Now().UTC())

	if ind.MACD == nil || ind.MACDSignal == nil {
		t.Fatal("60 根K线应能计算 MACD")
	}
	// steady uptrend keeps the fast EMA above the slow EMA
	if *ind.MACD <= 0 {
		t.Fatalf("持续上涨趋势 MACD 应为正, 实际 %f", *ind.MACD)
	}
}

func TestEMAConvergesTowardRecentCloses(t *testing.T) {
	closes := append(constantSeries(100, 30), constantSeries(200, 30)...)
	v, ok := ema(closes, 12)
	if !ok {
		t.Fatal("60 根K线应能计算 EMA12")
	}
	if v < 190 {
		t.Fatalf("EMA 应收敛到近期价格附近, 实际 %f", v)
	}
}
