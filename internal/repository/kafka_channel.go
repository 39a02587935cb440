package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	pkgkafka "DayTrader/pkg/kafka"
)

const kafkaName = "kafka"

// EventPublisher is the slice of the Kafka producer the channel needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

var _ EventPublisher = (*pkgkafka.Producer)(nil)

// NotificationEvent is the JSON value written per delivery.
type NotificationEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Recipient string    `json:"recipient,omitempty"`
	Text      string    `json:"text,omitempty"`
	ImagePath string    `json:"imagePath,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	At        time.Time `json:"at"`
}

// KafkaChannel publishes notifications as events for downstream consumers.
// The recipient is informational; the topic is the real destination.
type KafkaChannel struct {
	pub   EventPublisher
	topic string
	now   func() time.Time
}

var _ domrepo.Channel = (*KafkaChannel)(nil)

func NewKafkaChannel(pub EventPublisher, topic string) *KafkaChannel {
	return &KafkaChannel{pub: pub, topic: topic, now: time.Now}
}

func (k *KafkaChannel) Name() string             { return kafkaName }
func (k *KafkaChannel) DefaultRecipient() string { return k.topic }

func (k *KafkaChannel) SendText(ctx context.Context, recipient, text string) error {
	return k.publish(ctx, NotificationEvent{Type: "text", Recipient: recipient, Text: text})
}

func (k *KafkaChannel) SendImage(ctx context.Context, recipient, imagePath, caption string) error {
	return k.publish(ctx, NotificationEvent{Type: "image", Recipient: recipient, ImagePath: imagePath, Caption: caption})
}

func (k *KafkaChannel) publish(ctx context.Context, ev NotificationEvent) error {
	ev.ID = uuid.NewString()
	ev.At = k.now().UTC()
	if err := k.pub.Publish(ctx, k.topic, []byte(ev.ID), ev); err != nil {
		return &models.TransportError{Channel: kafkaName, Recipient: ev.Recipient, Err: err}
	}
	return nil
}
