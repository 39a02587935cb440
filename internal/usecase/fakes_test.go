package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"DayTrader/internal/domain/models"
)

var errBoom = errors.New("boom")

func makeWindow(symbol string, iv models.Interval, closes ...float64) models.Window {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := models.Window{Symbol: symbol, Interval: iv}
	for i, c := range closes {
		ts := base.Add(time.Duration(i) * iv.Duration())
		open := c - 1
		if i%2 == 1 {
			open = c + 1
		}
		w.Candles = append(w.Candles, models.Candle{Time: ts, Open: open, High: c, Low: c, Close: c, Volume: 10})
		w.Closes = append(w.Closes, c)
		w.Timestamps = append(w.Timestamps, ts)
	}
	return w
}

func makeCandles(iv models.Interval, closes ...float64) []models.Candle {
	return makeWindow("", iv, closes...).Candles
}

type fakeRenderer struct {
	path string
	err  error
	got  []models.ChartInput
}

func (r *fakeRenderer) Render(_ context.Context, in models.ChartInput) (string, error) {
	r.got = append(r.got, in)
	return r.path, r.err
}

type sent struct {
	Kind      string
	Recipient string
	Body      string
	Caption   string
	Image     []byte
}

type fakeChannel struct {
	name      string
	recipient string
	failText  bool
	failImage bool
	delay     time.Duration

	mu   sync.Mutex
	sent []sent
}

func (c *fakeChannel) Name() string             { return c.name }
func (c *fakeChannel) DefaultRecipient() string { return c.recipient }

func (c *fakeChannel) SendText(ctx context.Context, recipient, text string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if c.failText {
		return &models.TransportError{Channel: c.name, Recipient: recipient, Err: errBoom}
	}
	c.record(sent{Kind: "text", Recipient: recipient, Body: text})
	return nil
}

func (c *fakeChannel) SendImage(ctx context.Context, recipient, imagePath, caption string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if c.failImage {
		return &models.TransportError{Channel: c.name, Recipient: recipient, Err: errBoom}
	}
	// read now: the file may be temporary
	img, _ := os.ReadFile(imagePath)
	c.record(sent{Kind: "image", Recipient: recipient, Body: imagePath, Caption: caption, Image: img})
	return nil
}

func (c *fakeChannel) wait(ctx context.Context) error {
	if c.delay == 0 {
		return nil
	}
	select {
	case <-time.After(c.delay):
		return nil
	case <-ctx.Done():
		return &models.TransportError{Channel: c.name, Err: ctx.Err()}
	}
}

func (c *fakeChannel) record(s sent) {
	c.mu.Lock()
	c.sent = append(c.sent, s)
	c.mu.Unlock()
}

func (c *fakeChannel) Sent() []sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sent(nil), c.sent...)
}

type fakeProvider struct {
	name    string
	candles map[string][]models.Candle
	fail    map[string]bool
	spot    map[string]float64
	delay   time.Duration

	mu      sync.Mutex
	calls   []string
	active  int
	maxSeen int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) FetchCandles(ctx context.Context, symbol string, iv models.Interval, limit int) ([]models.Candle, error) {
	p.mu.Lock()
	p.calls = append(p.calls, symbol+"/"+string(iv))
	p.active++
	if p.active > p.maxSeen {
		p.maxSeen = p.active
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, &models.ProviderError{Provider: p.name, Symbol: symbol, Interval: iv, Err: ctx.Err()}
		}
	}
	if p.fail[symbol] {
		return nil, &models.ProviderError{Provider: p.name, Symbol: symbol, Interval: iv, Err: errBoom}
	}
	out := p.candles[symbol]
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (p *fakeProvider) FetchSpotPrice(_ context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	p.calls = append(p.calls, "spot:"+symbol)
	p.mu.Unlock()
	if p.fail[symbol] {
		return 0, &models.ProviderError{Provider: p.name, Symbol: symbol, Err: errBoom}
	}
	v, ok := p.spot[symbol]
	if !ok {
		return 0, &models.ProviderError{Provider: p.name, Symbol: symbol, Err: models.ErrNotFound}
	}
	return v, nil
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type fakeJournal struct {
	mu      sync.Mutex
	reports []*models.Report
	err     error
}

func (j *fakeJournal) Record(_ context.Context, r *models.Report) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.reports = append(j.reports, r)
	return j.err
}

func (j *fakeJournal) Close() error { return nil }

func (j *fakeJournal) Reports() []*models.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*models.Report(nil), j.reports...)
}

type fakeMetrics struct {
	mu         sync.Mutex
	cycles     map[string]int
	fetchErrs  map[string]int
	signals    map[string]int
	dispatches map[string]int
	lastPrices map[string]float64
	skips      int
	latencyOps []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		cycles:     map[string]int{},
		fetchErrs:  map[string]int{},
		signals:    map[string]int{},
		dispatches: map[string]int{},
		lastPrices: map[string]float64{},
	}
}

func (m *fakeMetrics) RecordCycle(group, result string) {
	m.mu.Lock()
	m.cycles[group+"/"+result]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordFetchError(provider string) {
	m.mu.Lock()
	m.fetchErrs[provider]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordSignal(kind string) {
	m.mu.Lock()
	m.signals[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordDispatch(channel, kind, result string) {
	m.mu.Lock()
	m.dispatches[channel+"/"+kind+"/"+result]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordSkip(string) {
	m.mu.Lock()
	m.skips++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	m.lastPrices[symbol] = price
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	m.latencyOps = append(m.latencyOps, op)
	m.mu.Unlock()
}

func (m *fakeMetrics) count(table map[string]int, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return table[key]
}
