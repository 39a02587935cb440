package middleware

import (
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Sink receives ticks that passed the filter.
type Sink interface {
	OnPrice(symbol string, price float64, at time.Time)
}

// PriceFilter sits between the websocket stream and the price service.
// It drops malformed ticks, ticks older than the last accepted one and
// ticks above the per-symbol rate.
type PriceFilter struct {
	sink   Sink
	maxRPS int

	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted tick time

	accepted  atomic.Int64
	invalid   atomic.Int64
	stale     atomic.Int64
	throttled atomic.Int64
}

type FilterOption func(*PriceFilter)

// WithMaxRPS sets the max ticks per second per symbol. Zero disables throttling.
func WithMaxRPS(n int) FilterOption {
	return func(f *PriceFilter) {
		if n >= 0 {
			f.maxRPS = n
		}
	}
}

func NewPriceFilter(sink Sink, opts ...FilterOption) *PriceFilter {
	f := &PriceFilter{
		sink:     sink,
		maxRPS:   5,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// OnPrice validates, throttles and forwards one tick.
func (f *PriceFilter) OnPrice(symbol string, price float64, at time.Time) {
	if !validTick(symbol, price, at) {
		f.invalid.Add(1)
		return
	}
	symbol = strings.ToUpper(symbol)

	f.mu.Lock()
	last, seen := f.lastSeen[symbol]
	switch {
	case seen && at.Before(last):
		f.mu.Unlock()
		f.stale.Add(1)
		return
	case seen && f.maxRPS > 0 && at.Sub(last) < time.Second/time.Duration(f.maxRPS):
		f.mu.Unlock()
		f.throttled.Add(1)
		return
	}
	f.lastSeen[symbol] = at
	f.mu.Unlock()

	f.accepted.Add(1)
	f.sink.OnPrice(symbol, price, at)
}

// FilterStats counts what the filter did since construction.
type FilterStats struct {
	Accepted  int64 `json:"accepted"`
	Invalid   int64 `json:"invalid"`
	Stale     int64 `json:"stale"`
	Throttled int64 `json:"throttled"`
}

func (f *PriceFilter) Stats() FilterStats {
	return FilterStats{
		Accepted:  f.accepted.Load(),
		Invalid:   f.invalid.Load(),
		Stale:     f.stale.Load(),
		Throttled: f.throttled.Load(),
	}
}

func validTick(symbol string, price float64, at time.Time) bool {
	if symbol == "" || at.IsZero() {
		return false
	}
	return price > 0 && !math.IsInf(price, 0) && !math.IsNaN(price)
}
