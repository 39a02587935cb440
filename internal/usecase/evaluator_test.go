package usecase

import (
	"testing"

	"DayTrader/internal/domain/models"
	"DayTrader/internal/service/registry"
	"DayTrader/internal/services/indicators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func btcConfig() models.InstrumentConfig {
	return models.InstrumentConfig{
		Symbol: "BTCUSDT", Class: models.ClassCrypto,
		UpperLimit: 79600, LowerLimit: 77000,
		Intervals: []models.Interval{"1d", "4h"},
	}
}

func kinds(sigs []models.Signal) []models.SignalKind {
	out := make([]models.SignalKind, len(sigs))
	for i, s := range sigs {
		out[i] = s.Kind
	}
	return out
}

func TestEvaluateNothingWithoutATR(t *testing.T) {
	e := NewEvaluator()
	snap := models.IndicatorSnapshot{
		MACD: &models.MACDValue{Histogram: 5},
		RSI:  f(90),
	}
	assert.Empty(t, e.Evaluate(snap, 100, btcConfig()))
}

func TestEvaluateMACDLevels(t *testing.T) {
	e := NewEvaluator()
	snap := models.IndicatorSnapshot{MACD: &models.MACDValue{Histogram: 1}, ATR: f(100)}

	sigs := e.Evaluate(snap, 78000, btcConfig())
	require.Len(t, sigs, 1)
	s := sigs[0]
	assert.Equal(t, models.SignalMACDBullish, s.Kind)
	assert.Equal(t, models.DirectionBuy, s.Direction)
	assert.Equal(t, 78050.0, *s.EntryPrice)
	assert.Equal(t, 78250.0, *s.Target)
	assert.Equal(t, 77850.0, *s.StopLoss)

	snap.MACD.Histogram = -1
	s = e.Evaluate(snap, 78000, btcConfig())[0]
	assert.Equal(t, models.SignalMACDBearish, s.Kind)
	assert.Equal(t, models.DirectionSell, s.Direction)
	assert.Equal(t, 77950.0, *s.EntryPrice)
	assert.Equal(t, 77750.0, *s.Target)
	assert.Equal(t, 78150.0, *s.StopLoss)

	snap.MACD.Histogram = 0
	assert.Empty(t, e.Evaluate(snap, 78000, btcConfig()))
}

func TestEvaluateBollingerBreakoutFromCloses(t *testing.T) {
	closes := make([]float64, 21)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	snap := indicators.Snapshot(closes)
	require.NotNil(t, snap.Bollinger)
	require.NotNil(t, snap.ATR)
	atr := *snap.ATR
	width := snap.Bollinger.Upper - snap.Bollinger.Lower

	cfg := models.InstrumentConfig{Symbol: "X", Class: models.ClassIndex, UpperLimit: 200, LowerLimit: 100, Intervals: []models.Interval{"1d"}}
	snap.RSI = nil
	sigs := NewEvaluator().Evaluate(snap, 123, cfg)
	require.Equal(t, []models.SignalKind{models.SignalBollingerHigh}, kinds(sigs))

	s := sigs[0]
	assert.Equal(t, models.DirectionSell, s.Direction)
	assert.InDelta(t, 123+0.2*atr, *s.EntryPrice, 1e-9)
	assert.InDelta(t, *s.EntryPrice+width, *s.Target, 1e-9)
	assert.InDelta(t, *s.EntryPrice-width/2, *s.StopLoss, 1e-9)

	low := NewEvaluator().Evaluate(snap, 95, cfg)
	require.Equal(t, []models.SignalKind{models.SignalBollingerLow}, kinds(low))
	assert.Equal(t, models.DirectionBuy, low[0].Direction)
	assert.InDelta(t, 95-0.2*atr, *low[0].EntryPrice, 1e-9)
	assert.InDelta(t, *low[0].EntryPrice-width, *low[0].Target, 1e-9)
	assert.InDelta(t, *low[0].EntryPrice+width/2, *low[0].StopLoss, 1e-9)
}

func TestEvaluateRSI(t *testing.T) {
	e := NewEvaluator()
	snap := models.IndicatorSnapshot{RSI: f(75), ATR: f(10)}

	sigs := e.Evaluate(snap, 1000, btcConfig())
	require.Len(t, sigs, 1)
	assert.Equal(t, models.SignalRSIOverbought, sigs[0].Kind)
	assert.Equal(t, models.DirectionSell, sigs[0].Direction)
	assert.Equal(t, 995.0, *sigs[0].EntryPrice)
	assert.Equal(t, 975.0, *sigs[0].Target)
	assert.Equal(t, 1015.0, *sigs[0].StopLoss)

	snap.RSI = f(50)
	assert.Empty(t, e.Evaluate(snap, 1000, btcConfig()))

	snap.RSI = f(20)
	sigs = e.Evaluate(snap, 1000, btcConfig())
	require.Len(t, sigs, 1)
	assert.Equal(t, models.SignalRSIOversold, sigs[0].Kind)
	assert.Equal(t, 1005.0, *sigs[0].EntryPrice)
	assert.Equal(t, 1025.0, *sigs[0].Target)
	assert.Equal(t, 985.0, *sigs[0].StopLoss)
}

func TestEvaluateVolatilityUsesCurrentLimits(t *testing.T) {
	reg, err := registry.New([]models.InstrumentConfig{btcConfig()})
	require.NoError(t, err)
	require.NoError(t, reg.SetLimits("BTCUSDT", 80000, 78000))

	cfg, err := reg.Get("BTCUSDT")
	require.NoError(t, err)

	snap := models.IndicatorSnapshot{ATR: f(2100)}
	sigs := NewEvaluator().Evaluate(snap, 79000, cfg)
	require.Len(t, sigs, 1)
	assert.Equal(t, models.SignalHighVolatility, sigs[0].Kind)
	assert.Equal(t, models.DirectionNeutral, sigs[0].Direction)
	assert.False(t, sigs[0].Directional())

	snap.ATR = f(1999)
	assert.Empty(t, NewEvaluator().Evaluate(snap, 79000, cfg))
}

func TestEvaluateOrderIsStable(t *testing.T) {
	snap := models.IndicatorSnapshot{
		MACD:      &models.MACDValue{Histogram: 2},
		Bollinger: &models.BollingerValue{Upper: 110, Middle: 100, Lower: 90},
		RSI:       f(80),
		ATR:       f(5),
	}
	cfg := models.InstrumentConfig{Symbol: "X", UpperLimit: 3, LowerLimit: 1}
	assert.Equal(t, []models.SignalKind{
		models.SignalMACDBullish,
		models.SignalBollingerHigh,
		models.SignalRSIOverbought,
		models.SignalHighVolatility,
	}, kinds(NewEvaluator().Evaluate(snap, 120, cfg)))
}
