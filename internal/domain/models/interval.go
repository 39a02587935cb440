package models

import (
	"sort"
	"time"
)

// Interval is a candle granularity token such as "15m", "4h" or "1d".
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval4h:  4 * time.Hour,
	Interval1d:  24 * time.Hour,
	Interval1w:  7 * 24 * time.Hour,
}

// IsValidInterval returns true if iv is a supported granularity.
func IsValidInterval(iv Interval) bool {
	_, ok := intervalDurations[iv]
	return ok
}

// Duration returns the bucket size, or zero for unknown tokens.
func (iv Interval) Duration() time.Duration {
	return intervalDurations[iv]
}

// SortIntervals orders intervals from finest to coarsest.
func SortIntervals(ivs []Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		di, dj := ivs[i].Duration(), ivs[j].Duration()
		if di == dj {
			return ivs[i] < ivs[j]
		}
		return di < dj
	})
}
