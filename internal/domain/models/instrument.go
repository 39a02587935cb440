package models

import (
	"fmt"
	"strings"
)

// AssetClass tags an instrument with the market it trades in.
type AssetClass string

const (
	ClassCrypto    AssetClass = "crypto"
	ClassForex     AssetClass = "forex"
	ClassCommodity AssetClass = "commodity"
	ClassIndex     AssetClass = "index"
)

// ParseAssetClass accepts the canonical names plus the "currency" alias used by older configs.
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crypto":
		return ClassCrypto, nil
	case "forex", "currency":
		return ClassForex, nil
	case "commodity":
		return ClassCommodity, nil
	case "index":
		return ClassIndex, nil
	default:
		return "", fmt.Errorf("unknown asset class %q", s)
	}
}

// InstrumentConfig holds thresholds and tracked intervals for one symbol.
// Intervals are fixed at construction; only the limits can change at runtime.
type InstrumentConfig struct {
	Symbol     string     `json:"symbol" validate:"required"`
	Class      AssetClass `json:"class" validate:"required,oneof=crypto forex commodity index"`
	UpperLimit float64    `json:"upperLimit" validate:"gtfield=LowerLimit"`
	LowerLimit float64    `json:"lowerLimit"`
	Intervals  []Interval `json:"intervals" validate:"required,min=1,dive,required"`
}

// Range is the width of the configured limit band.
func (c InstrumentConfig) Range() float64 {
	return c.UpperLimit - c.LowerLimit
}

// Clone returns a copy that does not share the intervals slice.
func (c InstrumentConfig) Clone() InstrumentConfig {
	out := c
	out.Intervals = append([]Interval(nil), c.Intervals...)
	return out
}
