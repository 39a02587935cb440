// Package indicators computes technical indicators over close series.
// Every function returns nil when the input is shorter than it needs;
// outputs are aligned to the tail of the input.
package indicators

import (
	"math"

	"DayTrader/internal/domain/models"
)

// Standard parameters.
const (
	MACDFast     = 12
	MACDSlow     = 26
	MACDSignal   = 9
	BollingerLen = 20
	BollingerK   = 2.0
	ATRPeriod    = 14
	RSIPeriod    = 14
	RealizedVolN = 20
	rsiNeutral   = 50.0
	hoursPerYear = 365 * 24
)

// SMA is the simple moving average. len(out) = len(values)-period+1.
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA is the exponential moving average seeded with the SMA of the first period values.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out = append(out, prev)
	for _, v := range values[period:] {
		prev = v*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}

// MACD returns points where the signal line is defined.
// Needs slow+signal-1 values.
func MACD(values []float64, fast, slow, signal int) []models.MACDValue {
	if fast <= 0 || slow <= fast || signal <= 0 || len(values) < slow+signal-1 {
		return nil
	}
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	offset := slow - fast

	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+offset] - slowEMA[i]
	}
	sig := EMA(line, signal)
	if sig == nil {
		return nil
	}
	line = line[len(line)-len(sig):]

	out := make([]models.MACDValue, len(sig))
	for i := range sig {
		out[i] = models.MACDValue{MACD: line[i], Signal: sig[i], Histogram: line[i] - sig[i]}
	}
	return out
}

// Bollinger uses the population standard deviation over period values.
func Bollinger(values []float64, period int, k float64) []models.BollingerValue {
	mid := SMA(values, period)
	if mid == nil {
		return nil
	}
	out := make([]models.BollingerValue, len(mid))
	for i, m := range mid {
		win := values[i : i+period]
		ss := 0.0
		for _, v := range win {
			d := v - m
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period))
		out[i] = models.BollingerValue{Upper: m + k*sd, Middle: m, Lower: m - k*sd}
	}
	return out
}

// TrueRange of each bar. The first bar has no previous close and uses high-low.
func TrueRange(high, low, closes []float64) []float64 {
	n := len(closes)
	if len(high) != n || len(low) != n || n == 0 {
		return nil
	}
	out := make([]float64, n)
	out[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		prev := closes[i-1]
		out[i] = math.Max(high[i]-low[i], math.Max(math.Abs(high[i]-prev), math.Abs(low[i]-prev)))
	}
	return out
}

// ATR is the Wilder-smoothed average true range. Needs period bars.
func ATR(high, low, closes []float64, period int) []float64 {
	tr := TrueRange(high, low, closes)
	if period <= 0 || len(tr) < period {
		return nil
	}
	return wilder(tr, period)
}

// RSI uses Wilder smoothing of gains and losses. Needs period+1 values.
// A flat window reads as 50.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period+1 {
		return nil
	}
	gains := make([]float64, len(values)-1)
	losses := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}
	avgGain := wilder(gains, period)
	avgLoss := wilder(losses, period)

	out := make([]float64, len(avgGain))
	for i := range avgGain {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case g == 0 && l == 0:
			out[i] = rsiNeutral
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}

// wilder seeds with the mean of the first period values, then
// avg = (prev*(period-1) + v) / period.
func wilder(values []float64, period int) []float64 {
	out := make([]float64, 0, len(values)-period+1)
	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}
	prev := sum / float64(period)
	out = append(out, prev)
	for _, v := range values[period:] {
		prev = (prev*float64(period-1) + v) / float64(period)
		out = append(out, prev)
	}
	return out
}
