package models

// Requests for the HTTP surface. Defined in domain for consistency and reuse.

// UpdateLimitsRequest is the body form of a limits update, also used for Kafka commands.
// Limits are pointers so a missing field is told apart from 0.
type UpdateLimitsRequest struct {
	Symbol     string   `json:"symbol" validate:"required,symbol"`
	UpperLimit *float64 `json:"upperLimit" validate:"required"`
	LowerLimit *float64 `json:"lowerLimit" validate:"required"`
}

// Bounds returns the limits. Call it after validation.
func (r *UpdateLimitsRequest) Bounds() (upper, lower float64) {
	return deref(r.UpperLimit), deref(r.LowerLimit)
}

// InstrumentLimitsRequest is the path form. The symbol comes only from the URL.
type InstrumentLimitsRequest struct {
	Symbol     string   `param:"symbol" json:"-" validate:"required,symbol"`
	UpperLimit *float64 `json:"upperLimit" validate:"required"`
	LowerLimit *float64 `json:"lowerLimit" validate:"required"`
}

func (r *InstrumentLimitsRequest) Bounds() (upper, lower float64) {
	return deref(r.UpperLimit), deref(r.LowerLimit)
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

type PriceRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"BTCUSDT" validate:"required,symbol"`
}

type InstrumentsRequest struct {
	Class string `query:"class" json:"class" validate:"omitempty,oneof=crypto forex commodity index"`
}

type SendNotificationRequest struct {
	Platform string `json:"platform" validate:"required,oneof=telegram whatsapp kafka"`
	Target   string `json:"target"`
	Message  string `json:"message" validate:"required,max=4096"`
}

type TriggerCycleRequest struct {
	Group string `param:"group" validate:"required,oneof=crypto forex"`
}
