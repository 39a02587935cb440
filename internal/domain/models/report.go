package models

import "time"

// Report is the notification payload for one (symbol, interval) cycle.
type Report struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Interval    Interval          `json:"interval"`
	Class       AssetClass        `json:"class"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Price       float64           `json:"price"`
	StartPrice  float64           `json:"startPrice"`
	ChangePct   float64           `json:"changePct"`
	MaxPrice    float64           `json:"maxPrice"`
	MinPrice    float64           `json:"minPrice"`
	AvgPrice    float64           `json:"avgPrice"`
	BuyVolume   float64           `json:"buyVolume"`
	SellVolume  float64           `json:"sellVolume"`
	Indicators  IndicatorSnapshot `json:"indicators"`
	Signals     []Signal          `json:"signals"`
	Text        string            `json:"text"`
	ChartPath   string            `json:"chartPath,omitempty"`
}

// ChartInput carries what the renderer plots for one window.
type ChartInput struct {
	Symbol     string
	Interval   Interval
	Timestamps []time.Time
	Closes     []float64
	// Overlays are aligned to the tail of Timestamps; shorter series start later.
	UpperBand  []float64
	LowerBand  []float64
	MACDSignal []float64
	RSI        []float64
}

// DispatchResult records per-channel delivery outcomes. Nil errors mean delivered.
type DispatchResult struct {
	ReportID string           `json:"reportId"`
	Errors   map[string]error `json:"-"`
	Sent     []string         `json:"sent"`
}

// Failed reports whether any channel failed.
func (d DispatchResult) Failed() bool { return len(d.Errors) > 0 }
