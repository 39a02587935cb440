package di

import (
	"context"
	"fmt"
	"time"

	"DayTrader/internal/domain/models"
	"DayTrader/internal/domain/repository"
	"DayTrader/internal/handler/api"
	"DayTrader/internal/middleware"
	internalrepo "DayTrader/internal/repository"
	"DayTrader/internal/service/binance"
	"DayTrader/internal/service/chart"
	"DayTrader/internal/service/ratelimit"
	"DayTrader/internal/service/registry"
	"DayTrader/internal/service/scheduler"
	"DayTrader/internal/service/window"
	"DayTrader/internal/service/yahoo"
	"DayTrader/internal/usecase"
	"DayTrader/pkg/cache"
	pkgch "DayTrader/pkg/clickhouse"
	"DayTrader/pkg/config"
	xhttp "DayTrader/pkg/http"
	pkgkafka "DayTrader/pkg/kafka"
	"DayTrader/pkg/logger"
	"DayTrader/pkg/metrics"
	"DayTrader/pkg/queue"
	"DayTrader/pkg/server"
)

// MarketProviders routes each asset class to the API that serves it.
type MarketProviders map[models.AssetClass]repository.MarketProvider

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	lc := cfg.Log.Config
	return logger.New(&lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRegistry converts the YAML instrument list and validates it.
func ProvideRegistry(cfg *config.Config) (*registry.Registry, error) {
	cfgs := make([]models.InstrumentConfig, 0, len(cfg.Instruments))
	for i, in := range cfg.Instruments {
		class, err := models.ParseAssetClass(in.Class)
		if err != nil {
			return nil, fmt.Errorf("instruments[%d] %s: %w", i, in.Symbol, err)
		}
		ivs := make([]models.Interval, len(in.Intervals))
		for j, iv := range in.Intervals {
			ivs[j] = models.Interval(iv)
		}
		cfgs = append(cfgs, models.InstrumentConfig{
			Symbol:     in.Symbol,
			Class:      class,
			UpperLimit: in.UpperLimit,
			LowerLimit: in.LowerLimit,
			Intervals:  ivs,
		})
	}
	reg, err := registry.New(cfgs)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return reg, nil
}

func ProvideWindowStore(cfg *config.Config) *window.Store {
	return window.New(cfg.Window.Size)
}

// ProvideRateLimiter returns an empty limiter; provider constructors configure their host bucket.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

func ProvideBinanceClient(cfg *config.Config, lim *ratelimit.Limiter) *binance.Client {
	bc := cfg.Providers.Binance
	c := binance.NewClient(bc.BaseURL, bc.Timeout, lim)
	lim.Configure(c.Host(), bc.Burst, bc.RatePerSec)
	return c
}

func ProvideYahooClient(cfg *config.Config, lim *ratelimit.Limiter) *yahoo.Client {
	yc := cfg.Providers.Yahoo
	c := yahoo.NewClient(yc.BaseURL, yc.Timeout, lim)
	lim.Configure(c.Host(), yc.Burst, yc.RatePerSec)
	return c
}

// ProvideMarketProviders sends crypto to Binance and everything else to Yahoo.
func ProvideMarketProviders(b *binance.Client, y *yahoo.Client) MarketProviders {
	return MarketProviders{
		models.ClassCrypto:    b,
		models.ClassForex:     y,
		models.ClassCommodity: y,
		models.ClassIndex:     y,
	}
}

func ProvideFetchCoordinator(
	cfg *config.Config,
	reg *registry.Registry,
	providers MarketProviders,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.FetchCoordinator {
	timeout := cfg.Providers.Binance.Timeout
	if cfg.Providers.Yahoo.Timeout > timeout {
		timeout = cfg.Providers.Yahoo.Timeout
	}
	return usecase.NewFetchCoordinator(reg, providers, usecase.FetchCoordinatorConfig{
		Limit:         cfg.Window.Size,
		Timeout:       timeout,
		MaxConcurrent: cfg.Scheduler.MaxConcurrentFetches,
	}, m, log)
}

// ProvideRedisCache connects to Redis, or returns nil when Redis is disabled or unreachable.
func ProvideRedisCache(cfg *config.Config, log *logger.Logger) *cache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddress(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		log.Warn("redis unavailable, continuing without it", logger.Error(err))
		return nil
	}
	return rc
}

// ProvideCache returns an in-process cache, layered over Redis when it is available.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	memOpts := []cache.MemoryOption{
		cache.WithMemoryMaxSize(1024),
		cache.WithMemoryCleanup(time.Minute),
	}
	if rc == nil {
		return cache.NewMemoryCache(memOpts...)
	}
	return cache.NewLayeredCache(rc, cfg.Providers.PriceCacheTTL, memOpts...)
}

func ProvidePriceService(
	cfg *config.Config,
	c cache.Service,
	reg *registry.Registry,
	providers MarketProviders,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.PriceService {
	return usecase.NewPriceService(c, cfg.Providers.PriceCacheTTL, reg, providers, m, log)
}

// ProvidePriceCollector returns nil unless Binance streaming is on and crypto symbols exist.
// Ticks pass through a PriceFilter before reaching the price service.
func ProvidePriceCollector(cfg *config.Config, reg *registry.Registry, prices *usecase.PriceService, log *logger.Logger) *usecase.PriceCollector {
	if !cfg.Providers.Binance.StreamPrices {
		return nil
	}
	symbols := reg.Symbols(models.ClassCrypto)
	if len(symbols) == 0 {
		return nil
	}
	stream := binance.NewStream(cfg.Providers.Binance.StreamURL, symbols, log)
	filter := middleware.NewPriceFilter(prices, middleware.WithMaxRPS(cfg.Providers.Binance.StreamMaxRPS))
	return usecase.NewPriceCollector(stream, filter, log)
}

// ProvideChartRenderer returns nil when charts are disabled, which makes reports text only.
func ProvideChartRenderer(cfg *config.Config) repository.ChartRenderer {
	if !cfg.Chart.Enabled {
		return nil
	}
	return chart.NewRenderer(cfg.Chart.Dir, cfg.Chart.Width, cfg.Chart.Height)
}

func ProvideReportComposer(r repository.ChartRenderer, log *logger.Logger) *usecase.ReportComposer {
	return usecase.NewReportComposer(r, log)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when nothing publishes.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Notify.Kafka.Enabled && !cfg.Log.Collector.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideChannels builds every enabled notification channel.
func ProvideChannels(cfg *config.Config, producer *pkgkafka.Producer, log *logger.Logger) ([]repository.Channel, error) {
	n := cfg.Notify
	var out []repository.Channel
	if n.Telegram.Enabled {
		tg, err := internalrepo.NewTelegramChannel(n.Telegram.Token, n.Telegram.ChatID, n.Telegram.APIURL, n.Timeout)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		out = append(out, tg)
	}
	if n.WhatsApp.Enabled {
		wa, err := internalrepo.NewWhatsAppChannel(n.WhatsApp.URL, n.WhatsApp.Token, n.WhatsApp.Phone, n.WhatsApp.Attempts, n.Timeout)
		if err != nil {
			return nil, fmt.Errorf("whatsapp: %w", err)
		}
		out = append(out, wa)
	}
	if n.Kafka.Enabled && producer != nil {
		out = append(out, internalrepo.NewKafkaChannel(producer, n.Kafka.Topic))
	}
	if len(out) == 0 {
		log.Warn("no notification channels enabled, reports will only be logged")
	}
	return out, nil
}

func ProvideDispatcher(cfg *config.Config, channels []repository.Channel, m repository.Metrics, log *logger.Logger) *usecase.Dispatcher {
	return usecase.NewDispatcher(channels, cfg.Notify.Timeout, m, log)
}

// ProvideRedeliveryQueue attaches a Redis retry queue to the dispatcher, or returns nil when disabled.
func ProvideRedeliveryQueue(cfg *config.Config, rc *cache.RedisCache, d *usecase.Dispatcher, log *logger.Logger) *queue.RedisQueue {
	rd := cfg.Notify.Redelivery
	if !rd.Enabled || rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(log, queue.Config{
		Workers:    rd.Workers,
		RetryLimit: rd.RetryLimit,
		RetryDelay: rd.RetryDelay,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Redis.Prefix+":redelivery"))
	q.RegisterJob(usecase.NewRedeliveryJob(d))
	d.SetRedelivery(q)
	return q
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the journal is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideJournal creates the signals table and returns the journal, or nil without ClickHouse.
func ProvideJournal(ch *pkgch.Client, log *logger.Logger) (*internalrepo.ClickHouseJournal, error) {
	if ch == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	j, err := internalrepo.NewClickHouseJournal(ctx, ch, "", log)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse journal: %w", err)
	}
	return j, nil
}

func ProvideMonitor(
	fetcher *usecase.FetchCoordinator,
	store *window.Store,
	reg *registry.Registry,
	composer *usecase.ReportComposer,
	dispatcher *usecase.Dispatcher,
	journal *internalrepo.ClickHouseJournal,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Monitor {
	deps := usecase.MonitorDeps{
		Fetcher:    fetcher,
		Store:      store,
		Registry:   reg,
		Evaluator:  usecase.NewEvaluator(),
		Composer:   composer,
		Dispatcher: dispatcher,
		Metrics:    m,
		Log:        log,
	}
	if journal != nil {
		deps.Journal = journal
	}
	return usecase.NewMonitor(deps)
}

// ProvideScheduler registers one job per group that has instruments.
func ProvideScheduler(cfg *config.Config, reg *registry.Registry, mon *usecase.Monitor, m repository.Metrics, log *logger.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(
		scheduler.WithRunTimeout(cfg.Scheduler.CycleTimeout),
		scheduler.WithSkipHook(m.RecordSkip),
		scheduler.WithLogger(log),
	)
	periods := []struct {
		group  string
		period time.Duration
	}{
		{registry.GroupCrypto, cfg.Scheduler.CryptoPeriod},
		{registry.GroupForex, cfg.Scheduler.ForexPeriod},
	}
	for _, p := range periods {
		classes, err := registry.GroupClasses(p.group)
		if err != nil {
			return nil, err
		}
		if len(reg.List(classes...)) == 0 {
			log.Info("no instruments for group, job not scheduled", logger.String("group", p.group))
			continue
		}
		handler, err := mon.Job(p.group)
		if err != nil {
			return nil, err
		}
		if err := s.Register(&scheduler.Job{
			Name:     p.group,
			Schedule: scheduler.Every(p.period),
			Handler:  handler,
		}); err != nil {
			return nil, fmt.Errorf("register %s job: %w", p.group, err)
		}
	}
	return s, nil
}

// ProvideKafkaConsumer consumes limit updates, or returns nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, reg *registry.Registry, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	cc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cc.GroupID),
		pkgkafka.WithConsumerWorkers(cc.Workers),
		pkgkafka.WithConsumerRetry(cc.RetryMax, cc.BackoffMin, cc.BackoffMax),
		pkgkafka.WithConsumerDLQ(cc.DLQTopic),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewLimitsHandler(cc.LimitsTopic, reg, log))
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	return consumer, nil
}

// ProvideHTTPServer mounts the market, instrument and operations routes.
func ProvideHTTPServer(
	cfg *config.Config,
	reg *registry.Registry,
	prices *usecase.PriceService,
	dispatcher *usecase.Dispatcher,
	sched *scheduler.Scheduler,
	store *window.Store,
	journal *internalrepo.ClickHouseJournal,
	log *logger.Logger,
) *xhttp.Server {
	var history repository.SignalHistory
	if journal != nil {
		history = journal
	}
	handlers := []xhttp.Handler{
		api.NewMarketHandler(prices, log),
		api.NewInstrumentsHandler(reg, log),
		api.NewOperationsHandler(dispatcher, sched, store, history, log),
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
	}
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins...),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(log),
	)
}

// ProvideApp assembles the lifecycle and attaches the log digest collector.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	srv *xhttp.Server,
	sched *scheduler.Scheduler,
	collector *usecase.PriceCollector,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	journal *internalrepo.ClickHouseJournal,
	ch *pkgch.Client,
	c cache.Service,
	q *queue.RedisQueue,
) *server.App {
	if cfg.Log.Collector.Enabled && producer != nil {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.FlushInterval,
			CountThreshold: cfg.Log.Collector.CountThreshold,
			Topic:          cfg.Log.Collector.Topic,
			Publisher:      producer,
		})
	}
	comps := server.Components{
		HTTP:      srv,
		Scheduler: sched,
		Collector: collector,
		Consumer:  consumer,
		Producer:  producer,
		CHClient:  ch,
		Cache:     c,
		Queue:     q,
	}
	if journal != nil {
		comps.Journal = journal
	}
	return server.New(cfg, log, comps)
}
