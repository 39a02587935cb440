package usecase

import (
	"context"
	"sync"
	"time"

	domrepo "DayTrader/internal/domain/repository"
	"DayTrader/pkg/logger"
)

// PriceSink receives streamed ticks. *PriceService is the final sink.
type PriceSink interface {
	OnPrice(symbol string, price float64, at time.Time)
}

// PriceCollector runs the live price stream and feeds a sink.
type PriceCollector struct {
	stream domrepo.PriceStream
	sink   PriceSink
	log    *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

func NewPriceCollector(stream domrepo.PriceStream, sink PriceSink, log *logger.Logger) *PriceCollector {
	if log == nil {
		log = logger.Nop()
	}
	return &PriceCollector{stream: stream, sink: sink, log: log}
}

// Start returns immediately; the stream reconnects on its own until Shutdown.
func (c *PriceCollector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		if err := c.stream.Run(ctx, c.sink.OnPrice); err != nil {
			c.log.Error("price stream stopped", logger.Error(err))
		}
	}()
}

// Shutdown stops the stream and waits for it to exit.
func (c *PriceCollector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	_ = c.stream.Close()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
