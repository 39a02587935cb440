// Package registry holds the monitored instruments and their alert limits.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"DayTrader/internal/domain/models"

	"github.com/go-playground/validator/v10"
)

// Job groups scheduled independently.
const (
	GroupCrypto = "crypto"
	GroupForex  = "forex"
)

// GroupClasses maps a scheduler group to the asset classes it polls.
func GroupClasses(group string) ([]models.AssetClass, error) {
	switch group {
	case GroupCrypto:
		return []models.AssetClass{models.ClassCrypto}, nil
	case GroupForex:
		return []models.AssetClass{models.ClassForex, models.ClassCommodity, models.ClassIndex}, nil
	default:
		return nil, models.NewValidationError("group", "unknown group %q", group)
	}
}

// Registry is safe for concurrent use. Limits are the only mutable fields.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*models.InstrumentConfig
	order []string
}

var validate = validator.New()

// New validates every config and rejects duplicate symbols.
func New(cfgs []models.InstrumentConfig) (*Registry, error) {
	r := &Registry{items: make(map[string]*models.InstrumentConfig, len(cfgs))}
	for i := range cfgs {
		c := cfgs[i].Clone()
		if err := validateConfig(c); err != nil {
			return nil, fmt.Errorf("instrument %d (%s): %w", i, c.Symbol, err)
		}
		if _, dup := r.items[c.Symbol]; dup {
			return nil, models.NewValidationError("symbol", "duplicate symbol %s", c.Symbol)
		}
		r.items[c.Symbol] = &c
		r.order = append(r.order, c.Symbol)
	}
	return r, nil
}

func validateConfig(c models.InstrumentConfig) error {
	if c.UpperLimit <= c.LowerLimit {
		return models.NewValidationError("upperLimit", "upper limit %v must be greater than lower limit %v", c.UpperLimit, c.LowerLimit)
	}
	for _, iv := range c.Intervals {
		if !models.IsValidInterval(iv) {
			return models.NewValidationError("intervals", "unknown interval %q", iv)
		}
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return models.NewValidationError(verrs[0].Field(), "failed %s validation", verrs[0].Tag())
		}
		return err
	}
	return nil
}

// Get returns a copy of the config for symbol.
func (r *Registry) Get(symbol string) (models.InstrumentConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[symbol]
	if !ok {
		return models.InstrumentConfig{}, fmt.Errorf("instrument %s: %w", symbol, models.ErrNotFound)
	}
	return c.Clone(), nil
}

// SetLimits replaces both limits atomically. Readers never see a half update.
func (r *Registry) SetLimits(symbol string, upper, lower float64) error {
	if upper <= lower {
		return models.NewValidationError("upperLimit", "upper limit %v must be greater than lower limit %v", upper, lower)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[symbol]
	if !ok {
		return fmt.Errorf("instrument %s: %w", symbol, models.ErrNotFound)
	}
	c.UpperLimit = upper
	c.LowerLimit = lower
	return nil
}

// List returns copies in configuration order. No classes means all.
func (r *Registry) List(classes ...models.AssetClass) []models.InstrumentConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.InstrumentConfig, 0, len(r.order))
	for _, sym := range r.order {
		c := r.items[sym]
		if matches(c.Class, classes) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// IntervalsFor is the union of intervals tracked by the given classes, finest first.
func (r *Registry) IntervalsFor(classes ...models.AssetClass) []models.Interval {
	groups := r.SymbolsByInterval(classes...)
	out := make([]models.Interval, 0, len(groups))
	for iv := range groups {
		out = append(out, iv)
	}
	models.SortIntervals(out)
	return out
}

// SymbolsByInterval groups symbols by tracked interval. Symbol order is sorted.
func (r *Registry) SymbolsByInterval(classes ...models.AssetClass) map[models.Interval][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[models.Interval][]string)
	for _, sym := range r.order {
		c := r.items[sym]
		if !matches(c.Class, classes) {
			continue
		}
		for _, iv := range c.Intervals {
			out[iv] = append(out[iv], sym)
		}
	}
	for iv := range out {
		sort.Strings(out[iv])
	}
	return out
}

// Symbols lists every symbol of the given classes in configuration order.
func (r *Registry) Symbols(classes ...models.AssetClass) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, sym := range r.order {
		if matches(r.items[sym].Class, classes) {
			out = append(out, sym)
		}
	}
	return out
}

func matches(c models.AssetClass, classes []models.AssetClass) bool {
	if len(classes) == 0 {
		return true
	}
	for _, want := range classes {
		if c == want {
			return true
		}
	}
	return false
}
