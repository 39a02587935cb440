package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	domsvc "DayTrader/internal/domain/service"
	"DayTrader/internal/services/indicators"
	"DayTrader/pkg/logger"
)

// ReportComposer turns fired signals into a text report plus an optional chart.
type ReportComposer struct {
	renderer domrepo.ChartRenderer
	log      *logger.Logger
	now      func() time.Time
}

var _ domsvc.ReportComposer = (*ReportComposer)(nil)

// NewReportComposer builds a composer. A nil renderer disables charts.
func NewReportComposer(renderer domrepo.ChartRenderer, log *logger.Logger) *ReportComposer {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportComposer{renderer: renderer, log: log, now: time.Now}
}

func (rc *ReportComposer) Compose(ctx context.Context, cfg models.InstrumentConfig, w models.Window, snap models.IndicatorSnapshot, signals []models.Signal) (*models.Report, error) {
	price, ok := w.Last()
	if !ok {
		return nil, fmt.Errorf("compose %s %s: empty window", w.Symbol, w.Interval)
	}

	r := &models.Report{
		ID:          uuid.NewString(),
		Symbol:      w.Symbol,
		Interval:    w.Interval,
		Class:       cfg.Class,
		GeneratedAt: rc.now().UTC(),
		Price:       price,
		Indicators:  snap,
		Signals:     signals,
	}
	fillStats(r, w)

	if rc.renderer != nil {
		path, err := rc.renderer.Render(ctx, indicators.ChartInput(w))
		if err != nil {
			var rerr *models.RenderError
			if !errors.As(err, &rerr) {
				rerr = &models.RenderError{Symbol: w.Symbol, Interval: w.Interval, Err: err}
			}
			rc.log.Warn("chart unavailable, sending text only",
				logger.String("symbol", w.Symbol),
				logger.String("interval", string(w.Interval)),
				logger.Error(rerr))
		} else {
			r.ChartPath = path
		}
	}

	r.Text = formatReport(r)
	return r, nil
}

func fillStats(r *models.Report, w models.Window) {
	if len(w.Closes) == 0 {
		return
	}
	r.StartPrice = w.Closes[0]
	r.MaxPrice, r.MinPrice = w.Closes[0], w.Closes[0]
	var sum float64
	for _, c := range w.Closes {
		sum += c
		if c > r.MaxPrice {
			r.MaxPrice = c
		}
		if c < r.MinPrice {
			r.MinPrice = c
		}
	}
	r.AvgPrice = sum / float64(len(w.Closes))
	if r.StartPrice != 0 {
		r.ChangePct = (r.Price - r.StartPrice) / r.StartPrice * 100
	}
	for _, c := range w.Candles {
		r.BuyVolume += c.BuyVolume()
		r.SellVolume += c.SellVolume()
	}
}

// Headline is the one-line summary of a signal, also used as the image caption.
func Headline(symbol string, s models.Signal) string {
	var b strings.Builder
	switch s.Kind {
	case models.SignalMACDBullish:
		fmt.Fprintf(&b, "🚨 %s bullish (MACD positive)", symbol)
	case models.SignalMACDBearish:
		fmt.Fprintf(&b, "🚨 %s bearish (MACD negative)", symbol)
	case models.SignalBollingerHigh:
		fmt.Fprintf(&b, "🚨 %s broke above the upper Bollinger band", symbol)
	case models.SignalBollingerLow:
		fmt.Fprintf(&b, "🚨 %s broke below the lower Bollinger band", symbol)
	case models.SignalRSIOverbought:
		fmt.Fprintf(&b, "🚨 %s overbought (RSI above %.0f)", symbol, RSIOverbought)
	case models.SignalRSIOversold:
		fmt.Fprintf(&b, "🚨 %s oversold (RSI below %.0f)", symbol, RSIOversold)
	case models.SignalHighVolatility:
		fmt.Fprintf(&b, "⚠️ High volatility on %s (ATR above limit range)", symbol)
	default:
		fmt.Fprintf(&b, "%s: %s", symbol, s.Kind)
	}
	fmt.Fprintf(&b, ". Current price: %s", money(s.Price))
	if s.Directional() {
		fmt.Fprintf(&b, " | %s entry %s, target %s, stop %s",
			strings.ToUpper(string(s.Direction)), money(*s.EntryPrice), money(*s.Target), money(*s.StopLoss))
	}
	return b.String()
}

// Caption is the chart caption: the first headline, or the symbol when nothing fired.
func Caption(r *models.Report) string {
	if len(r.Signals) == 0 {
		return fmt.Sprintf("%s (%s)", r.Symbol, r.Interval)
	}
	return Headline(r.Symbol, r.Signals[0])
}

func formatReport(r *models.Report) string {
	var b strings.Builder
	for _, s := range r.Signals {
		b.WriteString(Headline(r.Symbol, s))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nReport for %s (%s):\n", r.Symbol, r.Interval)
	fmt.Fprintf(&b, "- Start price: %s\n", money(r.StartPrice))
	fmt.Fprintf(&b, "- End price: %s\n", money(r.Price))
	fmt.Fprintf(&b, "- High: %s\n", money(r.MaxPrice))
	fmt.Fprintf(&b, "- Low: %s\n", money(r.MinPrice))
	fmt.Fprintf(&b, "- Average: %s\n", money(r.AvgPrice))
	fmt.Fprintf(&b, "- Change: %s%%\n", decimal.NewFromFloat(r.ChangePct).StringFixed(2))
	fmt.Fprintf(&b, "- Buy/Sell volume: %s / %s\n", volume(r.BuyVolume), volume(r.SellVolume))

	snap := r.Indicators
	if snap.RSI != nil {
		fmt.Fprintf(&b, "- RSI: %s\n", decimal.NewFromFloat(*snap.RSI).StringFixed(2))
	}
	if m := snap.MACD; m != nil {
		fmt.Fprintf(&b, "- MACD: %s (signal %s, histogram %s)\n", money(m.MACD), money(m.Signal), money(m.Histogram))
	}
	if bb := snap.Bollinger; bb != nil {
		fmt.Fprintf(&b, "- Bollinger Bands: upper %s, middle %s, lower %s\n", money(bb.Upper), money(bb.Middle), money(bb.Lower))
	}
	if snap.ATR != nil {
		fmt.Fprintf(&b, "- ATR: %s\n", money(*snap.ATR))
	}
	if snap.RealizedVol != nil {
		fmt.Fprintf(&b, "- Realized volatility: %s%%\n", decimal.NewFromFloat(*snap.RealizedVol*100).StringFixed(2))
	}
	if r.ChartPath != "" {
		b.WriteString("\nChart attached.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// money keeps more precision for sub-unit prices (XRP, EURUSD).
func money(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.Abs().LessThan(decimal.NewFromInt(10)) {
		return d.StringFixed(4)
	}
	return d.StringFixed(2)
}

func volume(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
