package models

import "time"

// SignalKind names the rule that fired.
type SignalKind string

const (
	SignalMACDBullish    SignalKind = "macd_bullish"
	SignalMACDBearish    SignalKind = "macd_bearish"
	SignalBollingerHigh  SignalKind = "bollinger_breakout_high"
	SignalBollingerLow   SignalKind = "bollinger_breakout_low"
	SignalRSIOverbought  SignalKind = "rsi_overbought"
	SignalRSIOversold    SignalKind = "rsi_oversold"
	SignalHighVolatility SignalKind = "atr_high_volatility"
)

// Direction of a suggested trade.
type Direction string

const (
	DirectionBuy     Direction = "buy"
	DirectionSell    Direction = "sell"
	DirectionNeutral Direction = "neutral"
)

// Signal is one firing of a rule. Price levels are nil for neutral signals.
type Signal struct {
	Kind       SignalKind `json:"kind"`
	Direction  Direction  `json:"direction"`
	Price      float64    `json:"price"`
	EntryPrice *float64   `json:"entryPrice,omitempty"`
	Target     *float64   `json:"targetPrice,omitempty"`
	StopLoss   *float64   `json:"stopLoss,omitempty"`
}

// Directional reports whether the signal carries entry/target/stop levels.
func (s Signal) Directional() bool {
	return s.EntryPrice != nil && s.Target != nil && s.StopLoss != nil
}

// SignalRecord is one journaled signal, flattened for storage and listing.
type SignalRecord struct {
	ReportID   string     `json:"reportId"`
	At         time.Time  `json:"at"`
	Symbol     string     `json:"symbol"`
	Interval   Interval   `json:"interval"`
	Class      AssetClass `json:"class"`
	Kind       SignalKind `json:"kind"`
	Direction  Direction  `json:"direction"`
	Price      float64    `json:"price"`
	EntryPrice *float64   `json:"entryPrice,omitempty"`
	Target     *float64   `json:"targetPrice,omitempty"`
	StopLoss   *float64   `json:"stopLoss,omitempty"`
	ATR        *float64   `json:"atr,omitempty"`
	RSI        *float64   `json:"rsi,omitempty"`
}
