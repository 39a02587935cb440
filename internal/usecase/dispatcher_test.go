package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(chart string) *models.Report {
	return &models.Report{
		ID:        "r-1",
		Symbol:    "BTCUSDT",
		Interval:  "4h",
		Text:      "hello",
		ChartPath: chart,
		Signals:   []models.Signal{{Kind: models.SignalMACDBullish, Direction: models.DirectionBuy, Price: 1}},
	}
}

func TestDispatchTextThenImage(t *testing.T) {
	tg := &fakeChannel{name: "telegram", recipient: "chat-1"}
	m := newFakeMetrics()
	d := NewDispatcher([]domrepo.Channel{tg}, time.Second, m, nil)

	res := d.Dispatch(context.Background(), testReport("/tmp/c.png"))
	assert.False(t, res.Failed())
	assert.Equal(t, []string{"telegram"}, res.Sent)

	got := tg.Sent()
	require.Len(t, got, 2)
	assert.Equal(t, "text", got[0].Kind)
	assert.Equal(t, "chat-1", got[0].Recipient)
	assert.Equal(t, "hello", got[0].Body)
	assert.Equal(t, "image", got[1].Kind)
	assert.Equal(t, "/tmp/c.png", got[1].Body)
	assert.Contains(t, got[1].Caption, "BTCUSDT bullish")

	assert.Equal(t, 1, m.count(m.dispatches, "telegram/text/ok"))
	assert.Equal(t, 1, m.count(m.dispatches, "telegram/image/ok"))
}

func TestDispatchSkipsImageWithoutChart(t *testing.T) {
	tg := &fakeChannel{name: "telegram"}
	d := NewDispatcher([]domrepo.Channel{tg}, time.Second, nil, nil)

	d.Dispatch(context.Background(), testReport(""))
	got := tg.Sent()
	require.Len(t, got, 1)
	assert.Equal(t, "text", got[0].Kind)
}

func TestDispatchIsolatesChannelFailures(t *testing.T) {
	bad := &fakeChannel{name: "whatsapp", failText: true}
	good := &fakeChannel{name: "telegram"}
	m := newFakeMetrics()
	d := NewDispatcher([]domrepo.Channel{bad, good}, time.Second, m, nil)

	res := d.Dispatch(context.Background(), testReport("/tmp/c.png"))
	assert.True(t, res.Failed())
	assert.Equal(t, []string{"telegram"}, res.Sent)

	var terr *models.TransportError
	require.True(t, errors.As(res.Errors["whatsapp"], &terr))
	assert.Equal(t, "whatsapp", terr.Channel)

	assert.Len(t, good.Sent(), 2)
	// the image still goes out after a failed text
	require.Len(t, bad.Sent(), 1)
	assert.Equal(t, "image", bad.Sent()[0].Kind)
	assert.Equal(t, 1, m.count(m.dispatches, "whatsapp/text/error"))
}

func TestDispatchSlowChannelTimesOut(t *testing.T) {
	slow := &fakeChannel{name: "slow", delay: time.Second}
	fast := &fakeChannel{name: "fast"}
	d := NewDispatcher([]domrepo.Channel{slow, fast}, 20*time.Millisecond, nil, nil)

	start := time.Now()
	res := d.Dispatch(context.Background(), testReport(""))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Contains(t, res.Errors, "slow")
	assert.Equal(t, []string{"fast"}, res.Sent)
}

func TestSendManual(t *testing.T) {
	tg := &fakeChannel{name: "telegram", recipient: "default-chat"}
	d := NewDispatcher([]domrepo.Channel{tg}, time.Second, nil, nil)

	require.NoError(t, d.SendManual(context.Background(), "telegram", "", "ping"))
	require.NoError(t, d.SendManual(context.Background(), "telegram", "other", "pong"))

	got := tg.Sent()
	require.Len(t, got, 2)
	assert.Equal(t, "default-chat", got[0].Recipient)
	assert.Equal(t, "other", got[1].Recipient)

	err := d.SendManual(context.Background(), "sms", "", "x")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, []string{"telegram"}, d.Channels())
}
