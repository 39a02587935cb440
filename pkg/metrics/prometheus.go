package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycles      *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	signals     *prometheus.CounterVec
	dispatches  *prometheus.CounterVec
	skips       *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New registers the recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daytrader_cycles_total",
				Help: "Monitoring cycles by group and result",
			},
			[]string{"group", "result"},
		),
		fetchErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daytrader_fetch_errors_total",
				Help: "Provider fetch failures",
			},
			[]string{"provider"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daytrader_signals_total",
				Help: "Signals fired by rule kind",
			},
			[]string{"kind"},
		),
		dispatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daytrader_dispatch_total",
				Help: "Notification deliveries by channel, payload kind and result",
			},
			[]string{"channel", "kind", "result"},
		),
		skips: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daytrader_scheduler_skips_total",
				Help: "Ticks skipped because the previous run was still in flight",
			},
			[]string{"job"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "daytrader_last_price",
				Help: "Last observed close for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "daytrader_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordCycle(group, result string) {
	r.cycles.WithLabelValues(group, result).Inc()
}

func (r *Recorder) RecordFetchError(provider string) {
	r.fetchErrors.WithLabelValues(provider).Inc()
}

func (r *Recorder) RecordSignal(kind string) {
	r.signals.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordDispatch(channel, kind, result string) {
	r.dispatches.WithLabelValues(channel, kind, result).Inc()
}

func (r *Recorder) RecordSkip(job string) {
	r.skips.WithLabelValues(job).Inc()
}

func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything. Used where metrics are optional.
type Nop struct{}

func (Nop) RecordCycle(string, string)            {}
func (Nop) RecordFetchError(string)               {}
func (Nop) RecordSignal(string)                   {}
func (Nop) RecordDispatch(string, string, string) {}
func (Nop) RecordSkip(string)                     {}
func (Nop) RecordLastPrice(string, float64)       {}
func (Nop) RecordLatency(string, float64)         {}
