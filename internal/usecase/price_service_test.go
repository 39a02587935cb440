package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	"DayTrader/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPriceFixture(t *testing.T, c cache.Service) (*PriceService, *fakeProvider) {
	t.Helper()
	p := &fakeProvider{name: "binance", spot: map[string]float64{"AAA": 7.5}}
	svc := NewPriceService(c, time.Minute, testRegistry(t),
		map[models.AssetClass]domrepo.MarketProvider{models.ClassCrypto: p}, newFakeMetrics(), nil)
	return svc, p
}

func TestSpotFallsBackToRESTThenCaches(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	svc, p := newPriceFixture(t, mc)

	q, err := svc.Spot(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, 7.5, q.Price)
	assert.Equal(t, "binance", q.Source)

	q, err = svc.Spot(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, "cache", q.Source)
	assert.Equal(t, []string{"spot:AAA"}, p.Calls())
}

func TestSpotUsesStreamedPrice(t *testing.T) {
	svc, p := newPriceFixture(t, nil)

	svc.OnPrice("aaa", 8.25, time.Now())
	q, err := svc.Spot(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, 8.25, q.Price)
	assert.Equal(t, "stream", q.Source)
	assert.Empty(t, p.Calls())
}

func TestSpotIgnoresStaleStream(t *testing.T) {
	svc, _ := newPriceFixture(t, nil)

	svc.OnPrice("AAA", 1, time.Now().Add(-time.Hour))
	q, err := svc.Spot(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, 7.5, q.Price)
}

func TestSpotErrors(t *testing.T) {
	svc, _ := newPriceFixture(t, nil)

	_, err := svc.Spot(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// registered but the provider has no quote
	_, err = svc.Spot(context.Background(), "BBB")
	var perr *models.ProviderError
	assert.True(t, errors.As(err, &perr))

	// forex has no provider wired in this fixture
	_, err = svc.Spot(context.Background(), "EURUSD=X")
	assert.True(t, errors.As(err, &perr))
}
