package indicators

import "DayTrader/internal/domain/models"

// Snapshot takes the latest value of each indicator. ATR is computed from
// closes alone, so true range reduces to |C_t - C_{t-1}|.
func Snapshot(closes []float64) models.IndicatorSnapshot {
	var snap models.IndicatorSnapshot
	if m := MACD(closes, MACDFast, MACDSlow, MACDSignal); len(m) > 0 {
		v := m[len(m)-1]
		snap.MACD = &v
	}
	if b := Bollinger(closes, BollingerLen, BollingerK); len(b) > 0 {
		v := b[len(b)-1]
		snap.Bollinger = &v
	}
	if a := ATR(closes, closes, closes, ATRPeriod); len(a) > 0 {
		v := a[len(a)-1]
		snap.ATR = &v
	}
	if r := RSI(closes, RSIPeriod); len(r) > 0 {
		v := r[len(r)-1]
		snap.RSI = &v
	}
	return snap
}

// SnapshotWindow is Snapshot plus realized volatility for the window interval.
func SnapshotWindow(w models.Window) models.IndicatorSnapshot {
	snap := Snapshot(w.Closes)
	if v, ok := RealizedVolatility(LogReturns(w.Closes), RealizedVolN, BarsPerYear(w.Interval)); ok {
		snap.RealizedVol = &v
	}
	return snap
}

// ChartInput builds the plotted series for a window.
func ChartInput(w models.Window) models.ChartInput {
	in := models.ChartInput{
		Symbol:     w.Symbol,
		Interval:   w.Interval,
		Timestamps: w.Timestamps,
		Closes:     w.Closes,
		RSI:        RSI(w.Closes, RSIPeriod),
	}
	for _, b := range Bollinger(w.Closes, BollingerLen, BollingerK) {
		in.UpperBand = append(in.UpperBand, b.Upper)
		in.LowerBand = append(in.LowerBand, b.Lower)
	}
	for _, m := range MACD(w.Closes, MACDFast, MACDSlow, MACDSignal) {
		in.MACDSignal = append(in.MACDSignal, m.Signal)
	}
	return in
}
