package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	"DayTrader/internal/service/registry"
	"DayTrader/pkg/logger"
)

// FetchResult is the outcome for one (symbol, interval) key.
// Err is a *models.ProviderError when the provider call failed.
type FetchResult struct {
	Symbol   string
	Interval models.Interval
	Class    models.AssetClass
	Candles  []models.Candle
	Err      error
}

// FetchCoordinator pulls candle history for a set of asset classes.
// One goroutine per interval, one per symbol inside it, bounded by a shared semaphore.
type FetchCoordinator struct {
	registry  *registry.Registry
	providers map[models.AssetClass]domrepo.MarketProvider
	limit     int
	timeout   time.Duration
	sem       chan struct{}
	metrics   domrepo.Metrics
	log       *logger.Logger
}

type FetchCoordinatorConfig struct {
	Limit         int
	Timeout       time.Duration
	MaxConcurrent int
}

func NewFetchCoordinator(reg *registry.Registry, providers map[models.AssetClass]domrepo.MarketProvider, cfg FetchCoordinatorConfig, metrics domrepo.Metrics, log *logger.Logger) *FetchCoordinator {
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FetchCoordinator{
		registry:  reg,
		providers: providers,
		limit:     cfg.Limit,
		timeout:   cfg.Timeout,
		sem:       make(chan struct{}, cfg.MaxConcurrent),
		metrics:   metrics,
		log:       log,
	}
}

// Fetch returns one result per key, sorted by interval then symbol.
func (fc *FetchCoordinator) Fetch(ctx context.Context, classes ...models.AssetClass) []FetchResult {
	groups := fc.registry.SymbolsByInterval(classes...)

	var (
		mu  sync.Mutex
		out []FetchResult
		wg  sync.WaitGroup
	)
	for iv, symbols := range groups {
		wg.Add(1)
		go func(iv models.Interval, symbols []string) {
			defer wg.Done()
			res := fc.fetchInterval(ctx, iv, symbols)
			mu.Lock()
			out = append(out, res...)
			mu.Unlock()
		}(iv, symbols)
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Interval.Duration(), out[j].Interval.Duration()
		if di != dj {
			return di < dj
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func (fc *FetchCoordinator) fetchInterval(ctx context.Context, iv models.Interval, symbols []string) []FetchResult {
	out := make([]FetchResult, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			out[i] = fc.fetchOne(ctx, sym, iv)
		}(i, sym)
	}
	wg.Wait()
	return out
}

func (fc *FetchCoordinator) fetchOne(ctx context.Context, symbol string, iv models.Interval) FetchResult {
	res := FetchResult{Symbol: symbol, Interval: iv}

	cfg, err := fc.registry.Get(symbol)
	if err != nil {
		res.Err = &models.ProviderError{Provider: "registry", Symbol: symbol, Interval: iv, Err: err}
		return res
	}
	res.Class = cfg.Class

	p, ok := fc.providers[cfg.Class]
	if !ok {
		res.Err = &models.ProviderError{Provider: "none", Symbol: symbol, Interval: iv, Err: fmt.Errorf("no provider for class %s", cfg.Class)}
		return res
	}

	select {
	case fc.sem <- struct{}{}:
		defer func() { <-fc.sem }()
	case <-ctx.Done():
		res.Err = &models.ProviderError{Provider: p.Name(), Symbol: symbol, Interval: iv, Err: ctx.Err()}
		return res
	}

	callCtx, cancel := context.WithTimeout(ctx, fc.timeout)
	defer cancel()

	start := time.Now()
	res.Candles, res.Err = p.FetchCandles(callCtx, symbol, iv, fc.limit)
	if fc.metrics != nil {
		fc.metrics.RecordLatency("fetch_"+p.Name(), time.Since(start).Seconds())
	}
	if res.Err != nil {
		if fc.metrics != nil {
			fc.metrics.RecordFetchError(p.Name())
		}
		fc.log.Warn("fetch failed",
			logger.String("provider", p.Name()),
			logger.String("symbol", symbol),
			logger.String("interval", string(iv)),
			logger.Error(res.Err))
		return res
	}
	if len(res.Candles) < fc.limit {
		fc.log.Debug("thin history",
			logger.String("symbol", symbol),
			logger.String("interval", string(iv)),
			logger.Int("candles", len(res.Candles)))
	}
	return res
}

// Provider returns the market provider for a class.
func (fc *FetchCoordinator) Provider(class models.AssetClass) (domrepo.MarketProvider, bool) {
	p, ok := fc.providers[class]
	return p, ok
}
