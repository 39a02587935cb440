// Package yahoo implements market data for forex, commodities and indices
// from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"DayTrader/internal/domain/models"
	"DayTrader/internal/service/ratelimit"
	pkghttp "DayTrader/pkg/http"
	"DayTrader/pkg/util"
)

const (
	providerName = "yahoo"
	// the chart API rejects requests without a browser-like agent
	userAgent = "Mozilla/5.0 (compatible; DayTrader/1.0)"
)

// native interval and lookback range per requested interval
var chartParams = map[models.Interval]struct {
	interval string
	rng      string
}{
	models.Interval1m:  {"1m", "1d"},
	models.Interval5m:  {"5m", "5d"},
	models.Interval15m: {"15m", "5d"},
	models.Interval30m: {"30m", "1mo"},
	models.Interval1h:  {"1h", "1mo"},
	models.Interval4h:  {"1h", "3mo"},
	models.Interval1d:  {"1d", "6mo"},
	models.Interval1w:  {"1wk", "2y"},
}

// Client implements repository.MarketProvider over the chart API.
type Client struct {
	baseURL string
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
	host    string
}

func NewClient(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter) *Client {
	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout), pkghttp.WithUserAgent(userAgent)),
		limiter: limiter,
		host:    host,
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) Host() string { return c.host }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchCandles returns up to limit candles, oldest first. 4h is resampled from 1h.
func (c *Client) FetchCandles(ctx context.Context, symbol string, interval models.Interval, limit int) ([]models.Candle, error) {
	wrap := func(err error) error {
		return &models.ProviderError{Provider: providerName, Symbol: symbol, Interval: interval, Err: err}
	}
	p, ok := chartParams[interval]
	if !ok {
		return nil, wrap(fmt.Errorf("unsupported interval %q", interval))
	}

	res, err := c.chart(ctx, symbol, p.interval, p.rng)
	if err != nil {
		return nil, wrap(err)
	}
	candles := toCandles(res)
	if interval == models.Interval4h {
		candles = Resample(candles, interval.Duration())
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// FetchSpotPrice returns the regular market price.
func (c *Client) FetchSpotPrice(ctx context.Context, symbol string) (float64, error) {
	res, err := c.chart(ctx, symbol, "1m", "1d")
	if err != nil {
		return 0, &models.ProviderError{Provider: providerName, Symbol: symbol, Err: err}
	}
	if res.Meta.RegularMarketPrice > 0 {
		return res.Meta.RegularMarketPrice, nil
	}
	candles := toCandles(res)
	if len(candles) == 0 {
		return 0, &models.ProviderError{Provider: providerName, Symbol: symbol, Err: errors.New("no price in response")}
	}
	return candles[len(candles)-1].Close, nil
}

func (c *Client) chart(ctx context.Context, symbol, interval, rng string) (*chartResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.host); err != nil {
			return nil, err
		}
	}
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("range", rng)

	var resp chartResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/v8/finance/chart/"+url.PathEscape(symbol), q, &resp); err != nil {
		return nil, err
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("%s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, errors.New("empty chart result")
	}
	return &resp.Chart.Result[0], nil
}

// toCandles zips the column arrays and drops rows without a close.
func toCandles(res *chartResult) []models.Candle {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]
	at := func(s []*float64, i int, def float64) float64 {
		if i < len(s) && s[i] != nil {
			return *s[i]
		}
		return def
	}

	out := make([]models.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		cl := *q.Close[i]
		out = append(out, models.Candle{
			Time:   util.FromUnix(ts),
			Open:   at(q.Open, i, cl),
			High:   at(q.High, i, cl),
			Low:    at(q.Low, i, cl),
			Close:  cl,
			Volume: at(q.Volume, i, 0),
		})
	}
	return out
}

// Resample aggregates ordered candles into UTC buckets of size d.
func Resample(in []models.Candle, d time.Duration) []models.Candle {
	var out []models.Candle
	for _, c := range in {
		start := util.BucketStart(c.Time, d)
		if n := len(out); n > 0 && out[n-1].Time.Equal(start) {
			b := &out[n-1]
			if c.High > b.High {
				b.High = c.High
			}
			if c.Low < b.Low {
				b.Low = c.Low
			}
			b.Close = c.Close
			b.Volume += c.Volume
			continue
		}
		c.Time = start
		out = append(out, c)
	}
	return out
}
