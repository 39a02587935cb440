package window

import (
	"sync"
	"testing"
	"time"

	"DayTrader/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func series(n int, start float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		p := start + float64(i)
		out[i] = models.Candle{Time: t0.Add(time.Duration(i) * time.Minute), Open: p, High: p, Low: p, Close: p, Volume: 1}
	}
	return out
}

func TestEnsureAndAppendCapsAtSize(t *testing.T) {
	s := New(50)
	w := s.EnsureAndAppend("BTCUSDT", "1m", series(60, 100))

	require.Equal(t, 50, w.Len())
	assert.Len(t, w.Candles, 50)
	assert.Len(t, w.Timestamps, 50)
	assert.Equal(t, 110.0, w.Closes[0])
	last, ok := w.Last()
	require.True(t, ok)
	assert.Equal(t, 159.0, last)
}

func TestEnsureAndAppendSortsAndDedups(t *testing.T) {
	s := New(10)
	batch := series(3, 1)
	batch[0], batch[2] = batch[2], batch[0]
	dup := batch[1]
	dup.Close = 99
	batch = append(batch, dup)

	w := s.EnsureAndAppend("ETHUSDT", "1h", batch)
	require.Equal(t, 3, w.Len())
	assert.True(t, w.Timestamps[0].Before(w.Timestamps[1]))
	assert.Equal(t, []float64{1, 99, 3}, w.Closes)
}

func TestEmptyBatchKeepsWindow(t *testing.T) {
	s := New(5)
	s.EnsureAndAppend("X", "1d", series(3, 10))
	w := s.EnsureAndAppend("X", "1d", nil)
	assert.Equal(t, 3, w.Len())

	empty := s.EnsureAndAppend("Y", "1d", nil)
	assert.Equal(t, 0, empty.Len())
	_, ok := empty.Last()
	assert.False(t, ok)
}

func TestReplaceNotMerge(t *testing.T) {
	s := New(50)
	s.EnsureAndAppend("X", "15m", series(40, 0))
	w := s.EnsureAndAppend("X", "15m", series(5, 1000))
	assert.Equal(t, 5, w.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	s := New(5)
	s.EnsureAndAppend("X", "1d", series(3, 10))
	w, ok := s.Get("X", "1d")
	require.True(t, ok)
	w.Closes[0] = -1

	again, _ := s.Get("X", "1d")
	assert.Equal(t, 10.0, again.Closes[0])

	_, ok = s.Get("X", "4h")
	assert.False(t, ok)
}

func TestKeysSorted(t *testing.T) {
	s := New(5)
	s.EnsureAndAppend("B", "1d", series(1, 1))
	s.EnsureAndAppend("A", "1d", series(1, 1))
	s.EnsureAndAppend("A", "15m", series(1, 1))
	_ = s.Lock("C", "1d") // lock alone does not create a visible key

	assert.Equal(t, []Key{{"A", "15m"}, {"A", "1d"}, {"B", "1d"}}, s.Keys())
}

func TestLockIsPerKey(t *testing.T) {
	s := New(5)
	unlockA := s.Lock("A", "1d")

	done := make(chan struct{})
	go func() {
		unlock := s.Lock("B", "1d")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on B blocked by A")
	}

	var mu sync.Mutex
	order := []string{}
	go func() {
		unlock := s.Lock("A", "1d")
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
		unlock()
	}()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	order = append(order, "first")
	mu.Unlock()
	unlockA()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, order)
}
