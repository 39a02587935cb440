package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	"DayTrader/internal/service/registry"
	"DayTrader/pkg/cache"
	"DayTrader/pkg/logger"
)

// Quote is a spot price with where it came from.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// PriceService answers spot price lookups: cache, then the live stream, then REST.
type PriceService struct {
	cache     cache.Service
	ttl       time.Duration
	registry  *registry.Registry
	providers map[models.AssetClass]domrepo.MarketProvider
	metrics   domrepo.Metrics
	log       *logger.Logger
	now       func() time.Time

	mu       sync.RWMutex
	streamed map[string]Quote
}

func NewPriceService(c cache.Service, ttl time.Duration, reg *registry.Registry, providers map[models.AssetClass]domrepo.MarketProvider, metrics domrepo.Metrics, log *logger.Logger) *PriceService {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PriceService{
		cache:     c,
		ttl:       ttl,
		registry:  reg,
		providers: providers,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
		streamed:  make(map[string]Quote),
	}
}

func priceKey(symbol string) string { return cache.GenerateKey("price", symbol) }

// OnPrice is the stream callback.
func (s *PriceService) OnPrice(symbol string, price float64, at time.Time) {
	symbol = strings.ToUpper(symbol)
	q := Quote{Symbol: symbol, Price: price, Source: "stream", At: at}
	s.mu.Lock()
	s.streamed[symbol] = q
	s.mu.Unlock()

	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.cache.Set(ctx, priceKey(symbol), q, s.ttl); err != nil {
			s.log.Debug("cache stream price", logger.String("symbol", symbol), logger.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordLastPrice(symbol, price)
	}
}

// Spot returns the current price for a registered symbol.
func (s *PriceService) Spot(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.TrimSpace(symbol)
	cfg, err := s.registry.Get(symbol)
	if err != nil {
		return Quote{}, err
	}

	if s.cache != nil {
		var q Quote
		err := s.cache.Get(ctx, priceKey(symbol), &q)
		if err == nil {
			q.Source = "cache"
			return q, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("price cache read", logger.String("symbol", symbol), logger.Error(err))
		}
	}

	s.mu.RLock()
	q, ok := s.streamed[symbol]
	s.mu.RUnlock()
	if ok && s.now().Sub(q.At) <= s.ttl {
		return q, nil
	}

	p, ok := s.providers[cfg.Class]
	if !ok {
		return Quote{}, &models.ProviderError{Provider: "none", Symbol: symbol, Err: fmt.Errorf("no provider for class %s", cfg.Class)}
	}
	price, err := p.FetchSpotPrice(ctx, symbol)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordFetchError(p.Name())
		}
		return Quote{}, err
	}
	q = Quote{Symbol: symbol, Price: price, Source: p.Name(), At: s.now().UTC()}
	if s.cache != nil {
		if err := s.cache.Set(ctx, priceKey(symbol), q, s.ttl); err != nil {
			s.log.Warn("price cache write", logger.String("symbol", symbol), logger.Error(err))
		}
	}
	return q, nil
}
