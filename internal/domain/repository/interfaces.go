package repository

import (
	"context"
	"time"

	"DayTrader/internal/domain/models"
)

// MarketProvider fetches candles and spot prices from a market-data API.
// Implementations return *models.ProviderError on failure.
type MarketProvider interface {
	Name() string
	FetchCandles(ctx context.Context, symbol string, interval models.Interval, limit int) ([]models.Candle, error)
	FetchSpotPrice(ctx context.Context, symbol string) (float64, error)
}

// PriceStream pushes live spot prices for a fixed symbol set.
type PriceStream interface {
	Run(ctx context.Context, onPrice func(symbol string, price float64, at time.Time)) error
	Close() error
}

// Channel is one notification transport. Implementations return *models.TransportError on failure.
type Channel interface {
	Name() string
	DefaultRecipient() string
	SendText(ctx context.Context, recipient, text string) error
	SendImage(ctx context.Context, recipient, imagePath, caption string) error
}

// ChartRenderer writes a chart image for a window and returns its path.
type ChartRenderer interface {
	Render(ctx context.Context, in models.ChartInput) (string, error)
}

// SignalJournal keeps an append-only audit trail of fired signals.
type SignalJournal interface {
	Record(ctx context.Context, r *models.Report) error
	Close() error
}

// SignalHistory reads journaled signals back, newest first. An empty symbol means all.
type SignalHistory interface {
	Recent(ctx context.Context, symbol string, limit int) ([]models.SignalRecord, error)
}

type Metrics interface {
	RecordCycle(group, result string)
	RecordFetchError(provider string)
	RecordSignal(kind string)
	RecordDispatch(channel, kind, result string)
	RecordSkip(job string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
