package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for unknown symbols or keys.
var ErrNotFound = errors.New("not found")

// ProviderError wraps a network or parse failure from a market-data provider.
type ProviderError struct {
	Provider string
	Symbol   string
	Interval Interval
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Interval != "" {
		return fmt.Sprintf("provider %s: %s %s: %v", e.Provider, e.Symbol, e.Interval, e.Err)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RenderError is a chart generation failure. Reports are still sent without the image.
type RenderError struct {
	Symbol   string
	Interval Interval
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render chart %s %s: %v", e.Symbol, e.Interval, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// TransportError is a notification delivery failure on one channel.
type TransportError struct {
	Channel   string
	Recipient string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("channel %s -> %s: %v", e.Channel, e.Recipient, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError rejects bad input before any state is mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, a ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, a...)}
}
