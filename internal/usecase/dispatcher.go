package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	domsvc "DayTrader/internal/domain/service"
	"DayTrader/pkg/logger"
	"DayTrader/pkg/queue"
)

// Dispatcher fans a report out to every channel. Channels never block each other.
type Dispatcher struct {
	channels []domrepo.Channel
	byName   map[string]domrepo.Channel
	timeout  time.Duration
	metrics  domrepo.Metrics
	log      *logger.Logger
	requeue  queue.Publisher
}

var _ domsvc.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(channels []domrepo.Channel, timeout time.Duration, metrics domrepo.Metrics, log *logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	d := &Dispatcher{
		channels: channels,
		byName:   make(map[string]domrepo.Channel, len(channels)),
		timeout:  timeout,
		metrics:  metrics,
		log:      log,
	}
	for _, ch := range channels {
		d.byName[ch.Name()] = ch
	}
	return d
}

// SetRedelivery makes failed report sends retry through q. Manual sends are never requeued.
func (d *Dispatcher) SetRedelivery(q queue.Publisher) {
	d.requeue = q
}

// Channels lists configured channel names in registration order.
func (d *Dispatcher) Channels() []string {
	out := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		out = append(out, ch.Name())
	}
	return out
}

func (d *Dispatcher) Dispatch(ctx context.Context, r *models.Report) models.DispatchResult {
	res := models.DispatchResult{ReportID: r.ID, Errors: map[string]error{}}

	type item struct {
		name string
		err  error
	}
	ch := make(chan item, len(d.channels))
	var wg sync.WaitGroup
	for _, c := range d.channels {
		wg.Add(1)
		go func(c domrepo.Channel) {
			defer wg.Done()
			ch <- item{c.Name(), d.deliver(ctx, c, r)}
		}(c)
	}
	wg.Wait()
	close(ch)

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err
			continue
		}
		res.Sent = append(res.Sent, it.name)
	}
	return res
}

// deliver sends text then the chart. The image is attempted even if the text failed.
func (d *Dispatcher) deliver(ctx context.Context, c domrepo.Channel, r *models.Report) error {
	to := c.DefaultRecipient()
	textErr := d.attempt(ctx, c, Redelivery{
		ReportID: r.ID, Channel: c.Name(), Recipient: to, Kind: KindText, Text: r.Text,
	})
	if r.ChartPath == "" {
		return textErr
	}
	imgErr := d.attempt(ctx, c, Redelivery{
		ReportID: r.ID, Channel: c.Name(), Recipient: to, Kind: KindImage, ImagePath: r.ChartPath, Caption: Caption(r),
	})
	if textErr != nil {
		return textErr
	}
	return imgErr
}

func (d *Dispatcher) attempt(ctx context.Context, c domrepo.Channel, m Redelivery) error {
	err := d.send(ctx, c, m.Kind, func(ctx context.Context) error { return m.sendTo(ctx, c) })
	if err != nil && d.requeue != nil && !errors.Is(err, context.Canceled) {
		if serr := m.snapshot(); serr != nil {
			d.log.Error("requeue notification", logger.String("channel", m.Channel), logger.Error(serr))
			return err
		}
		qctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if qerr := d.requeue.Enqueue(qctx, RedeliveryType, m); qerr != nil {
			d.log.Error("requeue notification", logger.String("channel", m.Channel), logger.Error(qerr))
		} else {
			d.log.Info("notification queued for redelivery",
				logger.String("channel", m.Channel),
				logger.String("kind", m.Kind),
				logger.String("report", m.ReportID))
		}
	}
	return err
}

func (d *Dispatcher) send(ctx context.Context, c domrepo.Channel, kind string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if d.metrics != nil {
		d.metrics.RecordLatency("notify_"+c.Name(), time.Since(start).Seconds())
	}
	if err != nil {
		d.record(c.Name(), kind, "error")
		d.log.Error("notification failed",
			logger.String("channel", c.Name()),
			logger.String("kind", kind),
			logger.Error(err))
		return err
	}
	d.record(c.Name(), kind, "ok")
	return nil
}

func (d *Dispatcher) record(channel, kind, result string) {
	if d.metrics != nil {
		d.metrics.RecordDispatch(channel, kind, result)
	}
}

// SendManual delivers free text to one platform. An empty recipient uses the channel default.
func (d *Dispatcher) SendManual(ctx context.Context, platform, recipient, text string) error {
	c, ok := d.byName[platform]
	if !ok {
		return fmt.Errorf("channel %q: %w", platform, models.ErrNotFound)
	}
	if recipient == "" {
		recipient = c.DefaultRecipient()
	}
	return d.send(ctx, c, "manual", func(ctx context.Context) error {
		return c.SendText(ctx, recipient, text)
	})
}
