package registry

import (
	"errors"
	"sync"
	"testing"

	"DayTrader/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []models.InstrumentConfig {
	return []models.InstrumentConfig{
		{Symbol: "BTCUSDT", Class: models.ClassCrypto, UpperLimit: 79600, LowerLimit: 77000, Intervals: []models.Interval{"1d", "4h"}},
		{Symbol: "ETHUSDT", Class: models.ClassCrypto, UpperLimit: 3500, LowerLimit: 3400, Intervals: []models.Interval{"1d", "1h"}},
		{Symbol: "EURUSD=X", Class: models.ClassForex, UpperLimit: 1.2, LowerLimit: 1.1, Intervals: []models.Interval{"1d", "15m"}},
		{Symbol: "CL=F", Class: models.ClassCommodity, UpperLimit: 80, LowerLimit: 70, Intervals: []models.Interval{"1d", "15m"}},
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	cases := map[string]models.InstrumentConfig{
		"inverted":    {Symbol: "A", Class: models.ClassCrypto, UpperLimit: 1, LowerLimit: 2, Intervals: []models.Interval{"1d"}},
		"equal":       {Symbol: "A", Class: models.ClassCrypto, UpperLimit: 2, LowerLimit: 2, Intervals: []models.Interval{"1d"}},
		"no interval": {Symbol: "A", Class: models.ClassCrypto, UpperLimit: 2, LowerLimit: 1},
		"bad token":   {Symbol: "A", Class: models.ClassCrypto, UpperLimit: 2, LowerLimit: 1, Intervals: []models.Interval{"7m"}},
		"bad class":   {Symbol: "A", Class: "stock", UpperLimit: 2, LowerLimit: 1, Intervals: []models.Interval{"1d"}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New([]models.InstrumentConfig{c})
			var verr *models.ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}

	_, err := New(append(fixture(), fixture()[0]))
	assert.Error(t, err)
}

func TestGetAndSetLimits(t *testing.T) {
	r, err := New(fixture())
	require.NoError(t, err)

	_, err = r.Get("DOGEUSDT")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, r.SetLimits("BTCUSDT", 80000, 78000))
	c, err := r.Get("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 80000.0, c.UpperLimit)
	assert.Equal(t, 78000.0, c.LowerLimit)
	assert.Equal(t, []models.Interval{"1d", "4h"}, c.Intervals)

	err = r.SetLimits("BTCUSDT", 100, 200)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	c, _ = r.Get("BTCUSDT")
	assert.Equal(t, 80000.0, c.UpperLimit, "rejected update must not mutate")

	assert.ErrorIs(t, r.SetLimits("NOPE", 2, 1), models.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	r, err := New(fixture())
	require.NoError(t, err)
	c, _ := r.Get("BTCUSDT")
	c.Intervals[0] = "1m"
	c.UpperLimit = 1
	again, _ := r.Get("BTCUSDT")
	assert.Equal(t, models.Interval("1d"), again.Intervals[0])
	assert.Equal(t, 79600.0, again.UpperLimit)
}

func TestGrouping(t *testing.T) {
	r, err := New(fixture())
	require.NoError(t, err)

	assert.Equal(t, []models.Interval{"1h", "4h", "1d"}, r.IntervalsFor(models.ClassCrypto))

	classes, err := GroupClasses(GroupForex)
	require.NoError(t, err)
	groups := r.SymbolsByInterval(classes...)
	assert.Equal(t, []string{"CL=F", "EURUSD=X"}, groups["15m"])
	assert.Equal(t, []string{"CL=F", "EURUSD=X"}, groups["1d"])
	assert.Len(t, groups, 2)

	assert.Len(t, r.List(), 4)
	assert.Len(t, r.List(models.ClassForex), 1)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, r.Symbols(models.ClassCrypto))

	_, err = GroupClasses("stocks")
	assert.Error(t, err)
}

func TestConcurrentSetLimitsNeverTears(t *testing.T) {
	r, err := New(fixture())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			base := float64(i * 10)
			_ = r.SetLimits("ETHUSDT", base+5, base)
		}(i)
		go func() {
			defer wg.Done()
			c, err := r.Get("ETHUSDT")
			if assert.NoError(t, err) {
				assert.Greater(t, c.UpperLimit, c.LowerLimit)
			}
		}()
	}
	wg.Wait()
}
