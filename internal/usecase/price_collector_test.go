package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	ticks []float64
}

func (s *fakeStream) Run(ctx context.Context, onPrice func(string, float64, time.Time)) error {
	for _, p := range s.ticks {
		onPrice("aaa", p, time.Now())
	}
	<-ctx.Done()
	return nil
}

func (s *fakeStream) Close() error { return nil }

func TestPriceCollectorFeedsPriceService(t *testing.T) {
	svc, _ := newPriceFixture(t, nil)
	c := NewPriceCollector(&fakeStream{ticks: []float64{1, 2, 3}}, svc, nil)

	c.Start(context.Background())
	require.Eventually(t, func() bool {
		q, err := svc.Spot(context.Background(), "AAA")
		return err == nil && q.Source == "stream" && q.Price == 3
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Shutdown(ctx))
}

func TestPriceCollectorShutdownBeforeStart(t *testing.T) {
	c := NewPriceCollector(&fakeStream{}, nil, nil)
	assert.NoError(t, c.Shutdown(context.Background()))
}
