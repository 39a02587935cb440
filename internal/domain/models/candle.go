package models

import "time"

// Candle is one OHLCV observation. Immutable once fetched.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BuyVolume is the candle volume when the bar closed at or above its open.
func (c Candle) BuyVolume() float64 {
	if c.Close >= c.Open {
		return c.Volume
	}
	return 0
}

// SellVolume is the candle volume when the bar closed below its open.
func (c Candle) SellVolume() float64 {
	if c.Close < c.Open {
		return c.Volume
	}
	return 0
}

// Window is the bounded history for one (symbol, interval) key.
// Candles, Closes and Timestamps always have equal length.
type Window struct {
	Symbol     string      `json:"symbol"`
	Interval   Interval    `json:"interval"`
	Candles    []Candle    `json:"candles"`
	Closes     []float64   `json:"closes"`
	Timestamps []time.Time `json:"timestamps"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Len is the number of observations held.
func (w Window) Len() int { return len(w.Closes) }

// Last returns the most recent close, or false on an empty window.
func (w Window) Last() (float64, bool) {
	if len(w.Closes) == 0 {
		return 0, false
	}
	return w.Closes[len(w.Closes)-1], true
}
