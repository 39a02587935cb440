// Package chart renders price charts with Bollinger and oscillator overlays.
package chart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"DayTrader/internal/domain/models"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Renderer writes PNG charts into dir as {symbol}_{interval}.png.
type Renderer struct {
	dir    string
	width  int
	height int
}

func NewRenderer(dir string, width, height int) *Renderer {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}
	return &Renderer{dir: dir, width: width, height: height}
}

// Path is where the chart for (symbol, interval) is written.
func (r *Renderer) Path(symbol string, interval models.Interval) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(symbol)
	return filepath.Join(r.dir, fmt.Sprintf("%s_%s.png", safe, interval))
}

// Render draws closes and upper/lower bands on the left axis and the MACD
// signal and RSI on the right axis. Failures are *models.RenderError.
func (r *Renderer) Render(ctx context.Context, in models.ChartInput) (string, error) {
	fail := func(err error) (string, error) {
		return "", &models.RenderError{Symbol: in.Symbol, Interval: in.Interval, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if len(in.Closes) < 2 || len(in.Timestamps) != len(in.Closes) {
		return fail(fmt.Errorf("need at least 2 aligned points, got %d closes and %d timestamps", len(in.Closes), len(in.Timestamps)))
	}

	series := []gochart.Series{
		timeSeries(in.Symbol+" Prices", in.Timestamps, in.Closes, drawing.Color{R: 0, G: 0, B: 255, A: 255}, false, gochart.YAxisPrimary),
	}
	overlays := []struct {
		name   string
		values []float64
		color  drawing.Color
		dashed bool
		axis   gochart.YAxisType
	}{
		{"Bollinger Upper Band", in.UpperBand, drawing.Color{R: 0, G: 128, B: 0, A: 255}, true, gochart.YAxisPrimary},
		{"Bollinger Lower Band", in.LowerBand, drawing.Color{R: 255, G: 0, B: 0, A: 255}, true, gochart.YAxisPrimary},
		{"MACD Signal", in.MACDSignal, drawing.Color{R: 128, G: 0, B: 128, A: 255}, false, gochart.YAxisSecondary},
		{"RSI", in.RSI, drawing.Color{R: 255, G: 165, B: 0, A: 255}, false, gochart.YAxisSecondary},
	}
	for _, o := range overlays {
		if len(o.values) < 2 || len(o.values) > len(in.Timestamps) {
			continue
		}
		xs := in.Timestamps[len(in.Timestamps)-len(o.values):]
		series = append(series, timeSeries(o.name, xs, o.values, o.color, o.dashed, o.axis))
	}

	graph := gochart.Chart{
		Title:  fmt.Sprintf("Chart for %s (%s)", in.Symbol, in.Interval),
		Width:  r.width,
		Height: r.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: gochart.XAxis{
			Name:           "Time",
			ValueFormatter: gochart.TimeValueFormatterWithFormat(timeLayout(in.Interval)),
		},
		YAxis:          gochart.YAxis{Name: "Price"},
		YAxisSecondary: gochart.YAxis{Name: "Indicators"},
		Series:         series,
	}
	graph.Elements = []gochart.Renderable{gochart.LegendLeft(&graph)}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(r.dir, ".chart-*.png")
	if err != nil {
		return fail(err)
	}
	defer os.Remove(tmp.Name())

	if err := graph.Render(gochart.PNG, tmp); err != nil {
		_ = tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	path := r.Path(in.Symbol, in.Interval)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail(err)
	}
	return path, nil
}

func timeSeries(name string, xs []time.Time, ys []float64, color drawing.Color, dashed bool, axis gochart.YAxisType) gochart.TimeSeries {
	style := gochart.Style{StrokeColor: color, StrokeWidth: 2}
	if dashed {
		style.StrokeDashArray = []float64{5, 5}
		style.StrokeWidth = 1
	}
	return gochart.TimeSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		YAxis:   axis,
		Style:   style,
	}
}

func timeLayout(iv models.Interval) string {
	if iv.Duration() >= 24*time.Hour {
		return "02/01/06"
	}
	return "02/01 15:04"
}
