package service

import (
	"context"

	"DayTrader/internal/domain/models"
)

// SignalEvaluator turns an indicator snapshot into zero or more signals.
type SignalEvaluator interface {
	Evaluate(snap models.IndicatorSnapshot, price float64, cfg models.InstrumentConfig) []models.Signal
}

// ReportComposer builds the notification payload for fired signals.
type ReportComposer interface {
	Compose(ctx context.Context, cfg models.InstrumentConfig, w models.Window, snap models.IndicatorSnapshot, signals []models.Signal) (*models.Report, error)
}

// Dispatcher delivers a report to every configured channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, r *models.Report) models.DispatchResult
}
