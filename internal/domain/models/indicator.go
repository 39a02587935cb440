package models

// MACDValue is one point of the MACD series.
type MACDValue struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerValue is one point of the Bollinger Bands series.
type BollingerValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSnapshot holds the latest value of each indicator.
// A nil field means the window was too short for that indicator.
type IndicatorSnapshot struct {
	MACD      *MACDValue      `json:"macd,omitempty"`
	Bollinger *BollingerValue `json:"bollinger,omitempty"`
	ATR       *float64        `json:"atr,omitempty"`
	RSI       *float64        `json:"rsi,omitempty"`
	// RealizedVol is annualized close-to-close volatility; informational only.
	RealizedVol *float64 `json:"realizedVol,omitempty"`
}
