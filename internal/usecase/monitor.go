package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	domsvc "DayTrader/internal/domain/service"
	"DayTrader/internal/service/registry"
	"DayTrader/internal/service/window"
	"DayTrader/internal/services/indicators"
	"DayTrader/pkg/logger"
)

// CycleSummary counts what one monitoring cycle did.
type CycleSummary struct {
	Keys           int           `json:"keys"`
	FetchErrors    int           `json:"fetchErrors"`
	Signals        int           `json:"signals"`
	Reports        int           `json:"reports"`
	DispatchErrors int           `json:"dispatchErrors"`
	Duration       time.Duration `json:"duration"`
}

// Monitor runs fetch, store, evaluate, report and dispatch for a group of instruments.
type Monitor struct {
	fetcher    *FetchCoordinator
	store      *window.Store
	registry   *registry.Registry
	evaluator  domsvc.SignalEvaluator
	composer   domsvc.ReportComposer
	dispatcher domsvc.Dispatcher
	journal    domrepo.SignalJournal
	metrics    domrepo.Metrics
	log        *logger.Logger
}

type MonitorDeps struct {
	Fetcher    *FetchCoordinator
	Store      *window.Store
	Registry   *registry.Registry
	Evaluator  domsvc.SignalEvaluator
	Composer   domsvc.ReportComposer
	Dispatcher domsvc.Dispatcher
	// Journal is optional.
	Journal domrepo.SignalJournal
	Metrics domrepo.Metrics
	Log     *logger.Logger
}

func NewMonitor(d MonitorDeps) *Monitor {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Monitor{
		fetcher:    d.Fetcher,
		store:      d.Store,
		registry:   d.Registry,
		evaluator:  d.Evaluator,
		composer:   d.Composer,
		dispatcher: d.Dispatcher,
		journal:    d.Journal,
		metrics:    d.Metrics,
		log:        d.Log,
	}
}

// Job adapts RunCycle for the scheduler. Fetch failures are reported as the run error.
func (m *Monitor) Job(group string) (func(ctx context.Context) error, error) {
	classes, err := registry.GroupClasses(group)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		sum := m.RunCycle(ctx, classes...)
		result := "ok"
		switch {
		case sum.Keys > 0 && sum.FetchErrors == sum.Keys:
			result = "error"
		case sum.FetchErrors > 0 || sum.DispatchErrors > 0:
			result = "partial"
		}
		if m.metrics != nil {
			m.metrics.RecordCycle(group, result)
			m.metrics.RecordLatency("cycle_"+group, sum.Duration.Seconds())
		}
		m.log.Info("cycle finished",
			logger.String("group", group),
			logger.String("result", result),
			logger.Int("keys", sum.Keys),
			logger.Int("signals", sum.Signals),
			logger.Int("reports", sum.Reports),
			logger.Duration("duration", sum.Duration))
		if sum.FetchErrors > 0 {
			return fmt.Errorf("%d of %d keys failed to fetch", sum.FetchErrors, sum.Keys)
		}
		return nil
	}, nil
}

// RunCycle never fails as a whole. Keys run concurrently; each key runs under its store lock.
func (m *Monitor) RunCycle(ctx context.Context, classes ...models.AssetClass) CycleSummary {
	start := time.Now()
	results := m.fetcher.Fetch(ctx, classes...)

	var (
		mu  sync.Mutex
		sum = CycleSummary{Keys: len(results)}
		wg  sync.WaitGroup
	)
	for _, res := range results {
		if res.Err != nil {
			sum.FetchErrors++
			continue
		}
		wg.Add(1)
		go func(res FetchResult) {
			defer wg.Done()
			ks := m.processKey(ctx, res)
			mu.Lock()
			sum.Signals += ks.Signals
			sum.Reports += ks.Reports
			sum.DispatchErrors += ks.DispatchErrors
			mu.Unlock()
		}(res)
	}
	wg.Wait()
	sum.Duration = time.Since(start)
	return sum
}

func (m *Monitor) processKey(ctx context.Context, res FetchResult) CycleSummary {
	var ks CycleSummary
	log := m.log.With(logger.String("symbol", res.Symbol), logger.String("interval", string(res.Interval)))

	unlock := m.store.Lock(res.Symbol, res.Interval)
	defer unlock()

	w := m.store.EnsureAndAppend(res.Symbol, res.Interval, res.Candles)
	price, ok := w.Last()
	if !ok {
		log.Debug("empty window, nothing to evaluate")
		return ks
	}
	if m.metrics != nil {
		m.metrics.RecordLastPrice(res.Symbol, price)
	}

	cfg, err := m.registry.Get(res.Symbol)
	if err != nil {
		log.Warn("instrument vanished from registry", logger.Error(err))
		return ks
	}

	snap := indicators.SnapshotWindow(w)
	signals := m.evaluator.Evaluate(snap, price, cfg)
	if len(signals) == 0 {
		return ks
	}
	ks.Signals = len(signals)
	if m.metrics != nil {
		for _, s := range signals {
			m.metrics.RecordSignal(string(s.Kind))
		}
	}

	report, err := m.composer.Compose(ctx, cfg, w, snap, signals)
	if err != nil {
		log.Error("compose report", logger.Error(err))
		return ks
	}
	ks.Reports = 1

	dr := m.dispatcher.Dispatch(ctx, report)
	ks.DispatchErrors = len(dr.Errors)

	if m.journal != nil {
		if err := m.journal.Record(ctx, report); err != nil {
			log.Warn("journal signals", logger.Error(err))
		}
	}
	log.Info("signals dispatched",
		logger.String("report_id", report.ID),
		logger.Int("signals", len(signals)),
		logger.Strings("sent", dr.Sent))
	return ks
}
