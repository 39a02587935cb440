package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	"DayTrader/internal/service/chart"
	"DayTrader/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu   sync.Mutex
	msgs []Redelivery
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	if msgType != RedeliveryType {
		return errors.New("unexpected type " + msgType)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, payload.(Redelivery))
	return nil
}

func (q *fakeQueue) Messages() []Redelivery {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Redelivery(nil), q.msgs...)
}

func encodeRedelivery(t *testing.T, m Redelivery) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func TestDispatchQueuesFailedSends(t *testing.T) {
	tg := &fakeChannel{name: "telegram", recipient: "chat-1", failText: true}
	wa := &fakeChannel{name: "whatsapp", recipient: "+1"}
	q := &fakeQueue{}
	d := NewDispatcher([]domrepo.Channel{tg, wa}, time.Second, newFakeMetrics(), nil)
	d.SetRedelivery(q)

	res := d.Dispatch(context.Background(), testReport("/tmp/c.png"))
	assert.True(t, res.Failed())

	msgs := q.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, Redelivery{
		ReportID: "r-1", Channel: "telegram", Recipient: "chat-1", Kind: KindText, Text: "hello",
	}, msgs[0])
}

func TestDispatchQueuesFailedImageWithCaption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BTCUSDT_4h.png")
	require.NoError(t, os.WriteFile(path, []byte("chart-bytes"), 0o644))

	tg := &fakeChannel{name: "telegram", recipient: "chat-1", failImage: true}
	q := &fakeQueue{}
	d := NewDispatcher([]domrepo.Channel{tg}, time.Second, nil, nil)
	d.SetRedelivery(q)

	r := testReport(path)
	d.Dispatch(context.Background(), r)

	msgs := q.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, KindImage, msgs[0].Kind)
	assert.Equal(t, path, msgs[0].ImagePath)
	assert.Equal(t, []byte("chart-bytes"), msgs[0].Image)
	assert.Equal(t, Caption(r), msgs[0].Caption)
}

func TestDispatchDoesNotQueueImageWhenChartIsGone(t *testing.T) {
	tg := &fakeChannel{name: "telegram", recipient: "chat-1", failImage: true}
	q := &fakeQueue{}
	d := NewDispatcher([]domrepo.Channel{tg}, time.Second, nil, nil)
	d.SetRedelivery(q)

	res := d.Dispatch(context.Background(), testReport(filepath.Join(t.TempDir(), "missing.png")))
	assert.True(t, res.Failed())
	assert.Empty(t, q.Messages())
}

func TestRedeliverySendsChartOfFailedReport(t *testing.T) {
	r := chart.NewRenderer(t.TempDir(), 400, 300)
	in := func(closes ...float64) models.ChartInput {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		ci := models.ChartInput{Symbol: "AAA", Interval: "1h", Closes: closes}
		for i := range closes {
			ci.Timestamps = append(ci.Timestamps, base.Add(time.Duration(i)*time.Hour))
		}
		return ci
	}

	first, err := r.Render(context.Background(), in(1, 2, 3, 4))
	require.NoError(t, err)
	firstBytes, err := os.ReadFile(first)
	require.NoError(t, err)

	failing := &fakeChannel{name: "telegram", recipient: "chat-1", failImage: true}
	q := &fakeQueue{}
	d := NewDispatcher([]domrepo.Channel{failing}, time.Second, nil, nil)
	d.SetRedelivery(q)
	report := testReport(first)
	d.Dispatch(context.Background(), report)
	msgs := q.Messages()
	require.Len(t, msgs, 1)

	// the next cycle for the same key rewrites the file
	second, err := r.Render(context.Background(), in(9, 3, 7, 1, 8))
	require.NoError(t, err)
	require.Equal(t, first, second)
	secondBytes, err := os.ReadFile(second)
	require.NoError(t, err)
	require.NotEqual(t, firstBytes, secondBytes)

	ok := &fakeChannel{name: "telegram", recipient: "chat-1"}
	job := NewRedeliveryJob(NewDispatcher([]domrepo.Channel{ok}, time.Second, nil, nil))
	require.NoError(t, job.Handle(context.Background(), encodeRedelivery(t, msgs[0])))

	got := ok.Sent()
	require.Len(t, got, 1)
	assert.Equal(t, firstBytes, got[0].Image)
	assert.Equal(t, Caption(report), got[0].Caption)
	assert.NotEqual(t, second, got[0].Body)
}

func TestDispatchEnqueueFailureKeepsSendError(t *testing.T) {
	tg := &fakeChannel{name: "telegram", recipient: "chat-1", failText: true}
	d := NewDispatcher([]domrepo.Channel{tg}, time.Second, nil, nil)
	d.SetRedelivery(&fakeQueue{err: errBoom})

	res := d.Dispatch(context.Background(), testReport(""))
	var terr *models.TransportError
	assert.True(t, errors.As(res.Errors["telegram"], &terr))
}

func TestManualSendIsNotQueued(t *testing.T) {
	tg := &fakeChannel{name: "telegram", recipient: "chat-1", failText: true}
	q := &fakeQueue{}
	d := NewDispatcher([]domrepo.Channel{tg}, time.Second, nil, nil)
	d.SetRedelivery(q)

	require.Error(t, d.SendManual(context.Background(), "telegram", "", "hi"))
	assert.Empty(t, q.Messages())
}

func TestRedeliveryJobReplaysText(t *testing.T) {
	tg := &fakeChannel{name: "telegram", recipient: "chat-1"}
	m := newFakeMetrics()
	d := NewDispatcher([]domrepo.Channel{tg}, time.Second, m, nil)
	job := NewRedeliveryJob(d)
	assert.Equal(t, RedeliveryType, job.Type())

	err := job.Handle(context.Background(), encodeRedelivery(t, Redelivery{
		Channel: "telegram", Recipient: "chat-9", Kind: KindText, Text: "late",
	}))
	require.NoError(t, err)

	got := tg.Sent()
	require.Len(t, got, 1)
	assert.Equal(t, "chat-9", got[0].Recipient)
	assert.Equal(t, "late", got[0].Body)
	assert.Equal(t, 1, m.count(m.dispatches, "telegram/redeliver_text/ok"))
}

func TestRedeliveryJobReplaysImage(t *testing.T) {
	tg := &fakeChannel{name: "telegram", recipient: "chat-1"}
	job := NewRedeliveryJob(NewDispatcher([]domrepo.Channel{tg}, time.Second, nil, nil))

	err := job.Handle(context.Background(), encodeRedelivery(t, Redelivery{
		Channel: "telegram", Recipient: "chat-1", Kind: KindImage,
		ImagePath: "/charts/BTCUSDT_4h.png", Image: []byte("png"), Caption: "cap",
	}))
	require.NoError(t, err)
	got := tg.Sent()
	require.Len(t, got, 1)
	assert.Equal(t, "image", got[0].Kind)
	assert.Equal(t, "cap", got[0].Caption)
	assert.Equal(t, []byte("png"), got[0].Image)
	assert.Equal(t, ".png", filepath.Ext(got[0].Body))

	_, err = os.Stat(got[0].Body)
	assert.True(t, os.IsNotExist(err), "temp chart should be removed")
}

func TestRedeliveryJobTransientFailureIsRetryable(t *testing.T) {
	tg := &fakeChannel{name: "telegram", recipient: "chat-1", failText: true}
	job := NewRedeliveryJob(NewDispatcher([]domrepo.Channel{tg}, time.Second, nil, nil))

	err := job.Handle(context.Background(), encodeRedelivery(t, Redelivery{Channel: "telegram", Kind: KindText, Text: "x", Recipient: "c"}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, queue.ErrPermanent))
}

func TestRedeliveryJobPermanentFailures(t *testing.T) {
	job := NewRedeliveryJob(NewDispatcher([]domrepo.Channel{&fakeChannel{name: "telegram"}}, time.Second, nil, nil))

	err := job.Handle(context.Background(), encodeRedelivery(t, Redelivery{Channel: "fax", Kind: KindText}))
	assert.True(t, errors.Is(err, queue.ErrPermanent))
	assert.True(t, errors.Is(err, models.ErrNotFound))

	err = job.Handle(context.Background(), encodeRedelivery(t, Redelivery{Channel: "telegram", Kind: KindImage, ImagePath: "/charts/x.png"}))
	assert.True(t, errors.Is(err, queue.ErrPermanent))

	err = job.Handle(context.Background(), json.RawMessage(`not json`))
	assert.True(t, errors.Is(err, queue.ErrPermanent))
}
