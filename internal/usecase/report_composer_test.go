package usecase

import (
	"context"
	"errors"
	"testing"

	"DayTrader/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeStatsAndText(t *testing.T) {
	rend := &fakeRenderer{path: "/tmp/charts/BTCUSDT_4h.png"}
	rc := NewReportComposer(rend, nil)

	w := makeWindow("BTCUSDT", "4h", 100, 101, 102, 103, 104)
	snap := models.IndicatorSnapshot{RSI: f(75), ATR: f(2)}
	sig := NewEvaluator().Evaluate(snap, 104, btcConfig())
	require.Len(t, sig, 1)

	r, err := rc.Compose(context.Background(), btcConfig(), w, snap, sig)
	require.NoError(t, err)

	_, err = uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ClassCrypto, r.Class)
	assert.Equal(t, 104.0, r.Price)
	assert.Equal(t, 100.0, r.StartPrice)
	assert.Equal(t, 104.0, r.MaxPrice)
	assert.Equal(t, 100.0, r.MinPrice)
	assert.InDelta(t, 102.0, r.AvgPrice, 1e-9)
	assert.InDelta(t, 4.0, r.ChangePct, 1e-9)
	// candles 0, 2, 4 close above open
	assert.Equal(t, 30.0, r.BuyVolume)
	assert.Equal(t, 20.0, r.SellVolume)
	assert.Equal(t, "/tmp/charts/BTCUSDT_4h.png", r.ChartPath)

	assert.Contains(t, r.Text, "BTCUSDT overbought")
	assert.Contains(t, r.Text, "SELL entry 103.00, target 99.00, stop 107.00")
	assert.Contains(t, r.Text, "- Start price: 100.00")
	assert.Contains(t, r.Text, "- End price: 104.00")
	assert.Contains(t, r.Text, "- Change: 4.00%")
	assert.Contains(t, r.Text, "- RSI: 75.00")
	assert.Contains(t, r.Text, "Chart attached.")

	require.Len(t, rend.got, 1)
	assert.Equal(t, w.Timestamps, rend.got[0].Timestamps)
}

func TestComposeKeepsTextWhenChartFails(t *testing.T) {
	rend := &fakeRenderer{err: &models.RenderError{Symbol: "BTCUSDT", Interval: "4h", Err: errors.New("disk full")}}
	rc := NewReportComposer(rend, nil)

	w := makeWindow("BTCUSDT", "4h", 100, 101)
	sig := []models.Signal{{Kind: models.SignalHighVolatility, Direction: models.DirectionNeutral, Price: 101}}

	r, err := rc.Compose(context.Background(), btcConfig(), w, models.IndicatorSnapshot{ATR: f(3000)}, sig)
	require.NoError(t, err)
	assert.Empty(t, r.ChartPath)
	assert.Contains(t, r.Text, "High volatility on BTCUSDT")
	assert.NotContains(t, r.Text, "Chart attached.")
}

func TestComposeWithoutRenderer(t *testing.T) {
	rc := NewReportComposer(nil, nil)
	r, err := rc.Compose(context.Background(), btcConfig(), makeWindow("BTCUSDT", "1d", 5), models.IndicatorSnapshot{}, nil)
	require.NoError(t, err)
	assert.Empty(t, r.ChartPath)
	assert.Equal(t, 0.0, r.ChangePct)
}

func TestComposeRejectsEmptyWindow(t *testing.T) {
	rc := NewReportComposer(nil, nil)
	_, err := rc.Compose(context.Background(), btcConfig(), models.Window{Symbol: "BTCUSDT", Interval: "1d"}, models.IndicatorSnapshot{}, nil)
	assert.Error(t, err)
}

func TestMoneyPrecision(t *testing.T) {
	assert.Equal(t, "0.5512", money(0.55123))
	assert.Equal(t, "79600.12", money(79600.123))
	assert.Equal(t, "-1.2500", money(-1.25))
}

func TestCaption(t *testing.T) {
	r := &models.Report{Symbol: "ETHUSDT", Interval: "1h"}
	assert.Equal(t, "ETHUSDT (1h)", Caption(r))

	r.Signals = []models.Signal{{Kind: models.SignalMACDBullish, Direction: models.DirectionBuy, Price: 3450}}
	assert.Contains(t, Caption(r), "ETHUSDT bullish (MACD positive)")
}
