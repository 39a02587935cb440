// Package binance implements market data for crypto pairs from the Binance spot API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"DayTrader/internal/domain/models"
	"DayTrader/internal/service/ratelimit"
	pkghttp "DayTrader/pkg/http"
	"DayTrader/pkg/util"
)

const providerName = "binance"

// Client implements repository.MarketProvider over the REST API.
type Client struct {
	baseURL string
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
	host    string
}

// NewClient builds a client for baseURL (e.g. https://api.binance.com).
// limiter may be nil.
func NewClient(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter) *Client {
	u, _ := url.Parse(baseURL)
	host := baseURL
	if u != nil && u.Host != "" {
		host = u.Host
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		limiter: limiter,
		host:    host,
	}
}

func (c *Client) Name() string { return providerName }

// Host is the rate-limit key for this client.
func (c *Client) Host() string { return c.host }

// FetchCandles returns up to limit klines, oldest first.
func (c *Client) FetchCandles(ctx context.Context, symbol string, interval models.Interval, limit int) ([]models.Candle, error) {
	wrap := func(err error) error {
		return &models.ProviderError{Provider: providerName, Symbol: symbol, Interval: interval, Err: err}
	}
	if !models.IsValidInterval(interval) {
		return nil, wrap(fmt.Errorf("unsupported interval %q", interval))
	}
	if err := c.wait(ctx); err != nil {
		return nil, wrap(err)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(interval))
	q.Set("limit", strconv.Itoa(limit))

	var rows [][]json.RawMessage
	if err := c.http.GetJSON(ctx, c.baseURL+"/api/v3/klines", q, &rows); err != nil {
		return nil, wrap(err)
	}
	candles, err := parseKlines(rows)
	if err != nil {
		return nil, wrap(err)
	}
	return candles, nil
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// FetchSpotPrice returns the last traded price.
func (c *Client) FetchSpotPrice(ctx context.Context, symbol string) (float64, error) {
	wrap := func(err error) error {
		return &models.ProviderError{Provider: providerName, Symbol: symbol, Err: err}
	}
	if err := c.wait(ctx); err != nil {
		return 0, wrap(err)
	}
	var tp tickerPrice
	if err := c.http.GetJSON(ctx, c.baseURL+"/api/v3/ticker/price", url.Values{"symbol": {symbol}}, &tp); err != nil {
		return 0, wrap(err)
	}
	p, err := util.ParseFloat(tp.Price)
	if err != nil {
		return 0, wrap(fmt.Errorf("price %q: %w", tp.Price, err))
	}
	return p, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx, c.host)
}

// parseKlines decodes [openTime, open, high, low, close, volume, ...] rows.
// Prices arrive as JSON strings.
func parseKlines(rows [][]json.RawMessage) ([]models.Candle, error) {
	out := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline %d: expected at least 6 fields, got %d", i, len(row))
		}
		var openMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			return nil, fmt.Errorf("kline %d open time: %w", i, err)
		}
		var vals [5]float64
		for j := 1; j <= 5; j++ {
			var s string
			if err := json.Unmarshal(row[j], &s); err != nil {
				return nil, fmt.Errorf("kline %d field %d: %w", i, j, err)
			}
			f, err := util.ParseFloat(s)
			if err != nil {
				return nil, fmt.Errorf("kline %d field %d: %w", i, j, err)
			}
			vals[j-1] = f
		}
		out = append(out, models.Candle{
			Time:   util.FromUnix(openMs),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return out, nil
}
