package queue

import (
	"context"
	"encoding/json"
)

// Job handles one message type.
type Job interface {
	// Type is the message type the job consumes.
	Type() string

	// Handle processes a payload. Errors wrapping ErrPermanent skip retries.
	Handle(ctx context.Context, payload json.RawMessage) error
}
