package usecase

import (
	"DayTrader/internal/domain/models"
	domsvc "DayTrader/internal/domain/service"
)

// Alert thresholds.
const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// Evaluator applies the fixed rule set to an indicator snapshot.
type Evaluator struct{}

func NewEvaluator() *Evaluator { return &Evaluator{} }

var _ domsvc.SignalEvaluator = (*Evaluator)(nil)

// Evaluate is pure. Rules run in order MACD, Bollinger, RSI, volatility.
// Every rule needs ATR; without it nothing fires.
func (e *Evaluator) Evaluate(snap models.IndicatorSnapshot, price float64, cfg models.InstrumentConfig) []models.Signal {
	if snap.ATR == nil {
		return nil
	}
	atr := *snap.ATR
	var out []models.Signal

	if m := snap.MACD; m != nil {
		switch {
		case m.Histogram > 0:
			entry := price + 0.5*atr
			out = append(out, levels(models.SignalMACDBullish, models.DirectionBuy, price, entry, entry+2*atr, price-1.5*atr))
		case m.Histogram < 0:
			entry := price - 0.5*atr
			out = append(out, levels(models.SignalMACDBearish, models.DirectionSell, price, entry, entry-2*atr, price+1.5*atr))
		}
	}

	if b := snap.Bollinger; b != nil {
		width := b.Upper - b.Lower
		switch {
		case price > b.Upper:
			entry := price + 0.2*atr
			out = append(out, levels(models.SignalBollingerHigh, models.DirectionSell, price, entry, entry+width, entry-width/2))
		case price < b.Lower:
			entry := price - 0.2*atr
			out = append(out, levels(models.SignalBollingerLow, models.DirectionBuy, price, entry, entry-width, entry+width/2))
		}
	}

	if r := snap.RSI; r != nil {
		switch {
		case *r > RSIOverbought:
			entry := price - 0.5*atr
			out = append(out, levels(models.SignalRSIOverbought, models.DirectionSell, price, entry, entry-2*atr, price+1.5*atr))
		case *r < RSIOversold:
			entry := price + 0.5*atr
			out = append(out, levels(models.SignalRSIOversold, models.DirectionBuy, price, entry, entry+2*atr, price-1.5*atr))
		}
	}

	if atr > cfg.Range() {
		out = append(out, models.Signal{Kind: models.SignalHighVolatility, Direction: models.DirectionNeutral, Price: price})
	}
	return out
}

func levels(kind models.SignalKind, dir models.Direction, price, entry, target, stop float64) models.Signal {
	return models.Signal{
		Kind:       kind,
		Direction:  dir,
		Price:      price,
		EntryPrice: &entry,
		Target:     &target,
		StopLoss:   &stop,
	}
}
