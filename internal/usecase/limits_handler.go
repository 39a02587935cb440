package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"DayTrader/internal/domain/models"
	"DayTrader/internal/service/registry"
	pkgkafka "DayTrader/pkg/kafka"
	"DayTrader/pkg/logger"
)

// LimitsHandler applies limit-update commands from a Kafka topic.
// Payload: {"symbol": "...", "upperLimit": n, "lowerLimit": n}
type LimitsHandler struct {
	topic    string
	registry *registry.Registry
	log      *logger.Logger
}

var _ pkgkafka.MessageHandler = (*LimitsHandler)(nil)

func NewLimitsHandler(topic string, reg *registry.Registry, log *logger.Logger) *LimitsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LimitsHandler{topic: topic, registry: reg, log: log}
}

func (h *LimitsHandler) Topic() string { return h.topic }

// Handle marks bad payloads, rejected limits and unknown symbols as permanent so they go to the DLQ.
func (h *LimitsHandler) Handle(_ context.Context, b []byte) error {
	var req models.UpdateLimitsRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return fmt.Errorf("decode limits command: %v: %w", err, pkgkafka.ErrPermanent)
	}
	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.Symbol == "" {
		return fmt.Errorf("limits command without symbol: %w", pkgkafka.ErrPermanent)
	}
	if req.UpperLimit == nil || req.LowerLimit == nil {
		return fmt.Errorf("limits command for %s needs upperLimit and lowerLimit: %w", req.Symbol, pkgkafka.ErrPermanent)
	}

	upper, lower := req.Bounds()
	if err := h.registry.SetLimits(req.Symbol, upper, lower); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) || errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%v: %w", err, pkgkafka.ErrPermanent)
		}
		return err
	}
	h.log.Info("limits updated",
		logger.String("symbol", req.Symbol),
		logger.Float("upper", upper),
		logger.Float("lower", lower),
		logger.String("source", "kafka"))
	return nil
}
