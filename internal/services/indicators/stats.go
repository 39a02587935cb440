package indicators

import (
	"math"
	"time"

	"DayTrader/internal/domain/models"
)

// LogReturns computes r_t = ln(C_t / C_{t-1}). Non-positive prices yield 0.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility is the annualized sample standard deviation of the last
// window log returns.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) (float64, bool) {
	if window <= 1 || len(logReturns) < window || barsPerYear <= 0 {
		return 0, false
	}
	sum, sum2 := 0.0, 0.0
	for _, r := range logReturns[len(logReturns)-window:] {
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear), true
}

// BarsPerYear assumes round-the-clock trading.
func BarsPerYear(iv models.Interval) float64 {
	d := iv.Duration()
	if d <= 0 {
		return 0
	}
	return float64(hoursPerYear*time.Hour) / float64(d)
}
