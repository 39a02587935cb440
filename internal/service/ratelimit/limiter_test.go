package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowRefills(t *testing.T) {
	l := New()
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }
	l.Configure("api.binance.com", 2, 1)

	assert.True(t, l.Allow("api.binance.com"))
	assert.True(t, l.Allow("api.binance.com"))
	assert.False(t, l.Allow("api.binance.com"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("api.binance.com"))
	assert.False(t, l.Allow("api.binance.com"))
}

func TestUnconfiguredKeyIsUnlimited(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("query1.finance.yahoo.com"))
	}
	l.Configure("x", 1, 0)
	assert.True(t, l.Allow("x"))
	assert.True(t, l.Allow("x"))
}

func TestWaitHonoursContext(t *testing.T) {
	l := New()
	l.Configure("slow", 1, 0.001)
	assert.True(t, l.Allow("slow"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx, "slow"), context.DeadlineExceeded)
}

func TestWaitReturnsWhenTokenDue(t *testing.T) {
	l := New()
	l.Configure("fast", 1, 200)
	assert.True(t, l.Allow("fast"))
	assert.NoError(t, l.Wait(context.Background(), "fast"))
}
