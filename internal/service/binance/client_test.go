package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"DayTrader/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const klinesBody = `[
 [1714521600000,"60000.0","61000.0","59000.0","60500.5","12.5",1714525199999,"0",1,"0","0","0"],
 [1714525200000,"60500.5","60600.0","60100.0","60200.0","3.25",1714528799999,"0",1,"0","0","0"]
]`

func TestFetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	candles, err := c.FetchCandles(context.Background(), "BTCUSDT", models.Interval1h, 50)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 60500.5, candles[0].Close)
	assert.Equal(t, 12.5, candles[0].Volume)
	assert.Equal(t, 60200.0, candles[1].Close)
	assert.Equal(t, 60100.0, candles[1].Low)
}

func TestFetchCandlesErrorsAreProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.FetchCandles(context.Background(), "NOPE", models.Interval1d, 50)
	var perr *models.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "binance", perr.Provider)
	assert.Equal(t, "NOPE", perr.Symbol)
	assert.Equal(t, models.Interval1d, perr.Interval)

	_, err = c.FetchCandles(context.Background(), "BTCUSDT", "7m", 50)
	assert.True(t, errors.As(err, &perr))
}

func TestFetchCandlesBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1714521600000,"abc","1","1","1","1"]]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).FetchCandles(context.Background(), "BTCUSDT", "1d", 50)
	var perr *models.ProviderError
	assert.True(t, errors.As(err, &perr))
}

func TestFetchSpotPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"78123.45000000"}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, time.Second, nil).FetchSpotPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 78123.45, p)
}
