package technicals

import (
	"math"
	"time"

	"crypto-signal-watch/internal/model"
)

const (
	rsiPeriod       = 14
	bollingerPeriod = 20
	bollingerWidth  = 2.0
	rangePeriod     = 30
)

// Compute derives technical indicators from a daily close series, oldest
// first. Indicators whose lookback exceeds the available history are left
// nil; the caller degrades them to a neutral signal contribution.
func Compute(symbol string, closes []float64, now time.Time) *model.TechnicalIndicators {
	t := &model.TechnicalIndicators{Symbol: symbol, Timestamp: now}
	if len(closes) == 0 {
		return t
	}

	if rsi, ok := rsi(closes, rsiPeriod); ok {
		t.RSI14 = &rsi
	}
	if v, ok := sma(closes, 50); ok {
		t.SMA50 = &v
	}
	if v, ok := sma(closes, 200); ok {
		t.SMA200 = &v
	}
	if v, ok := ema(closes, 12); ok {
		t.EMA12 = &v
	}
	if v, ok := ema(closes, 26); ok {
		t.EMA26 = &v
	}
	if t.EMA12 != nil && t.EMA26 != nil {
		macdLine, signalLine, ok := macd(closes)
		if ok {
			t.MACD = &macdLine
			t.MACDSignal = &signalLine
		}
	}
	if mid, upper, lower, ok := bollinger(closes, bollingerPeriod, bollingerWidth); ok {
		t.BollingerMiddle = &mid
		t.BollingerUpper = &upper
		t.BollingerLower = &lower
	}
	if lo, hi, ok := rangeLevels(closes, rangePeriod); ok {
		t.SupportLevel = &lo
		t.ResistanceLevel = &hi
	}
	return t
}

func sma(closes []float64, period int) (float64, bool) {
	if len(closes) < period {
		return 0, false
	}
	var sum float64
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period), true
}

func ema(closes []float64, period int) (float64, bool) {
	series, ok := emaSeries(closes, period)
	if !ok {
		return 0, false
	}
	return series[len(series)-1], true
}

// emaSeries seeds with the SMA of the first period and smooths forward.
func emaSeries(closes []float64, period int) ([]float64, bool) {
	if len(closes) < period {
		return nil, false
	}
	k := 2.0 / (float64(period) + 1)
	var seed float64
	for _, c := range closes[:period] {
		seed += c
	}
	seed /= float64(period)

	out := make([]float64, 0, len(closes)-period+1)
	out = append(out, seed)
	prev := seed
	for _, c := range closes[period:] {
		prev = c*k + prev*(1-k)
		out = append(out, prev)
	}
	return out, true
}

// rsi uses Wilder smoothing over the close-to-close changes.
func rsi(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}
	var gain, loss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		var g, l float64
		if delta > 0 {
			g = delta
		} else {
			l = -delta
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// macd returns the MACD line (EMA12-EMA26) and its 9-period signal line.
func macd(closes []float64) (line, signal float64, ok bool) {
	fast, okFast := emaSeries(closes, 12)
	slow, okSlow := emaSeries(closes, 26)
	if !okFast || !okSlow {
		return 0, 0, false
	}
	// Align the two series on their common tail.
	n := len(slow)
	if len(fast) < n {
		n = len(fast)
	}
	diff := make([]float64, n)
	for i := 0; i < n; i++ {
		diff[i] = fast[len(fast)-n+i] - slow[len(slow)-n+i]
	}
	sigSeries, okSig := emaSeries(diff, 9)
	if !okSig {
		return 0, 0, false
	}
	return diff[len(diff)-1], sigSeries[len(sigSeries)-1], true
}

func bollinger(closes []float64, period int, width float64) (mid, upper, lower float64, ok bool) {
	m, okSMA := sma(closes, period)
	if !okSMA {
		return 0, 0, 0, false
	}
	var variance float64
	for _, c := range closes[len(closes)-period:] {
		variance += (c - m) * (c - m)
	}
	sd := math.Sqrt(variance / float64(period))
	return m, m + width*sd, m - width*sd, true
}

func rangeLevels(closes []float64, period int) (lo, hi float64, ok bool) {
	if len(closes) < period {
		return 0, 0, false
	}
	window := closes[len(closes)-period:]
	lo, hi = window[0], window[0]
	for _, c := range window[1:] {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	return lo, hi, true
}
