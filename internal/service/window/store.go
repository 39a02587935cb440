// Package window keeps the bounded candle history per (symbol, interval).
package window

import (
	"sort"
	"sync"
	"time"

	"DayTrader/internal/domain/models"
)

// Key identifies one rolling window.
type Key struct {
	Symbol   string          `json:"symbol"`
	Interval models.Interval `json:"interval"`
}

type entry struct {
	cycle sync.Mutex // serializes a whole monitor cycle for this key

	mu  sync.RWMutex
	win models.Window
	set bool
}

// Store is safe for concurrent use. Different keys never contend on entry locks.
type Store struct {
	size int
	now  func() time.Time

	mu      sync.RWMutex
	entries map[Key]*entry
}

// New returns a store capped at size candles per key.
func New(size int) *Store {
	if size < 1 {
		size = 50
	}
	return &Store{size: size, now: time.Now, entries: make(map[Key]*entry)}
}

// Size is the per-key capacity.
func (s *Store) Size() int { return s.size }

func (s *Store) entry(k Key) *entry {
	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()
	if ok {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[k]; !ok {
		e = &entry{}
		s.entries[k] = e
	}
	return e
}

// Lock takes the key-scoped lock and returns its release func.
func (s *Store) Lock(symbol string, interval models.Interval) (unlock func()) {
	e := s.entry(Key{Symbol: symbol, Interval: interval})
	e.cycle.Lock()
	return e.cycle.Unlock
}

// EnsureAndAppend replaces the window with the last N candles of batch,
// ordered by time with duplicate timestamps collapsed to the later entry.
// An empty batch keeps what is stored.
func (s *Store) EnsureAndAppend(symbol string, interval models.Interval, batch []models.Candle) models.Window {
	e := s.entry(Key{Symbol: symbol, Interval: interval})

	if len(batch) == 0 {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.set {
			e.win = models.Window{Symbol: symbol, Interval: interval}
			e.set = true
		}
		return copyWindow(e.win)
	}

	candles := normalize(batch)
	if len(candles) > s.size {
		candles = candles[len(candles)-s.size:]
	}
	w := models.Window{
		Symbol:     symbol,
		Interval:   interval,
		Candles:    candles,
		Closes:     make([]float64, len(candles)),
		Timestamps: make([]time.Time, len(candles)),
		UpdatedAt:  s.now(),
	}
	for i, c := range candles {
		w.Closes[i] = c.Close
		w.Timestamps[i] = c.Time
	}
	e.mu.Lock()
	e.win = w
	e.set = true
	e.mu.Unlock()
	return copyWindow(w)
}

// Get returns a copy of the stored window.
func (s *Store) Get(symbol string, interval models.Interval) (models.Window, bool) {
	s.mu.RLock()
	e, ok := s.entries[Key{Symbol: symbol, Interval: interval}]
	s.mu.RUnlock()
	if !ok {
		return models.Window{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.set {
		return models.Window{}, false
	}
	return copyWindow(e.win), true
}

// Keys lists stored keys sorted by symbol then interval.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Key, 0, len(s.entries))
	for k, e := range s.entries {
		e.mu.RLock()
		if e.set {
			out = append(out, k)
		}
		e.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Interval.Duration() < out[j].Interval.Duration()
	})
	return out
}

func normalize(batch []models.Candle) []models.Candle {
	sorted := make([]models.Candle, len(batch))
	copy(sorted, batch)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := sorted[:0]
	for _, c := range sorted {
		if n := len(out); n > 0 && out[n-1].Time.Equal(c.Time) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

func copyWindow(w models.Window) models.Window {
	w.Candles = append([]models.Candle(nil), w.Candles...)
	w.Closes = append([]float64(nil), w.Closes...)
	w.Timestamps = append([]time.Time(nil), w.Timestamps...)
	return w
}
