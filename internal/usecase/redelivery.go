package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	"DayTrader/pkg/queue"
)

// RedeliveryType is the queue message type for failed report sends.
const RedeliveryType = "notify.redeliver"

const (
	KindText  = "text"
	KindImage = "image"
)

// Redelivery is one channel send that failed during a cycle.
type Redelivery struct {
	ReportID  string `json:"reportId"`
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Kind      string `json:"kind"`
	Text      string `json:"text,omitempty"`
	ImagePath string `json:"imagePath,omitempty"`
	// Image is the chart as it was when the send failed. The file at
	// ImagePath belongs to the key and is rewritten by later cycles.
	Image   []byte `json:"image,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// snapshot copies the chart bytes into the message.
func (m *Redelivery) snapshot() error {
	if m.Kind != KindImage {
		return nil
	}
	b, err := os.ReadFile(m.ImagePath)
	if err != nil {
		return fmt.Errorf("snapshot chart: %w", err)
	}
	m.Image = b
	return nil
}

func (m Redelivery) sendTo(ctx context.Context, c domrepo.Channel) error {
	if m.Kind == KindImage {
		return c.SendImage(ctx, m.Recipient, m.ImagePath, m.Caption)
	}
	return c.SendText(ctx, m.Recipient, m.Text)
}

// RedeliveryJob replays queued sends through the dispatcher's channels.
type RedeliveryJob struct {
	d *Dispatcher
}

var _ queue.Job = (*RedeliveryJob)(nil)

func NewRedeliveryJob(d *Dispatcher) *RedeliveryJob {
	return &RedeliveryJob{d: d}
}

func (j *RedeliveryJob) Type() string { return RedeliveryType }

// Handle fails permanently when the channel is gone or an image message carries no chart.
// Images are replayed from the queued bytes through a private temp file.
func (j *RedeliveryJob) Handle(ctx context.Context, payload json.RawMessage) error {
	m, err := queue.Decode[Redelivery](payload)
	if err != nil {
		return err
	}
	c, ok := j.d.byName[m.Channel]
	if !ok {
		return fmt.Errorf("channel %q: %w: %w", m.Channel, models.ErrNotFound, queue.ErrPermanent)
	}
	if m.Kind == KindImage {
		if len(m.Image) == 0 {
			return fmt.Errorf("chart for report %s: empty image: %w", m.ReportID, queue.ErrPermanent)
		}
		path, cleanup, err := writeTempChart(m.Image, filepath.Ext(m.ImagePath))
		if err != nil {
			return err
		}
		defer cleanup()
		m.ImagePath = path
	}
	return j.d.send(ctx, c, "redeliver_"+m.Kind, func(ctx context.Context) error {
		return m.sendTo(ctx, c)
	})
}

func writeTempChart(b []byte, ext string) (string, func(), error) {
	if ext == "" {
		ext = ".png"
	}
	f, err := os.CreateTemp("", "daytrader-redeliver-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("temp chart: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp chart: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp chart: %w", err)
	}
	return f.Name(), cleanup, nil
}
