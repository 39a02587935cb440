package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPermanent marks failures that retrying cannot fix. Such messages go straight to the dead-letter list.
var ErrPermanent = errors.New("queue: permanent failure")

// Publisher enqueues messages for later processing.
type Publisher interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// Config contains the configuration for the queue
type Config struct {
	Workers      int           // number of workers
	RetryLimit   int           // retries after the first attempt
	RetryDelay   time.Duration // base delay, doubled per attempt
	PollInterval time.Duration // how often due retries are moved back to the queue
}

// Message is the envelope stored in Redis.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	LastError  string          `json:"lastError,omitempty"`
}

// Decode unmarshals a payload into T.
func Decode[T any](payload json.RawMessage) (T, error) {
	var out T
	if len(payload) == 0 {
		return out, fmt.Errorf("empty payload: %w", ErrPermanent)
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("decode payload: %v: %w", err, ErrPermanent)
	}
	return out, nil
}

// retryDelay is base * 2^(attempt-1), capped at one hour.
func retryDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt && d < time.Hour; i++ {
		d *= 2
	}
	if d > time.Hour {
		d = time.Hour
	}
	return d
}
