package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "DayTrader/internal/domain/repository"
	"DayTrader/internal/service/scheduler"
	"DayTrader/internal/usecase"
	"DayTrader/pkg/cache"
	pkgch "DayTrader/pkg/clickhouse"
	"DayTrader/pkg/config"
	xhttp "DayTrader/pkg/http"
	pkgkafka "DayTrader/pkg/kafka"
	applogger "DayTrader/pkg/logger"
	"DayTrader/pkg/queue"
)

// Components groups everything the App starts and stops. Optional parts are nil when disabled.
type Components struct {
	HTTP      *xhttp.Server
	Scheduler *scheduler.Scheduler
	Collector *usecase.PriceCollector
	Consumer  *pkgkafka.Consumer
	Producer  *pkgkafka.Producer
	Journal   domrepo.SignalJournal
	CHClient  *pkgch.Client
	Cache     cache.Service
	Queue     *queue.RedisQueue
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	log *applogger.Logger
	c   Components

	cancel context.CancelFunc
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, c Components) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{cfg: cfg, log: log, c: c}
}

// Start brings up every component without blocking.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	// the queue must accept redeliveries before the first cycle runs
	if a.c.Queue != nil {
		if err := a.c.Queue.Start(); err != nil {
			return fmt.Errorf("redelivery queue: %w", err)
		}
	}

	if a.c.Collector != nil {
		a.c.Collector.Start(ctx)
		a.log.Info("price stream started")
	}

	if a.c.Consumer != nil {
		if err := a.c.Consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.Consumer.LimitsTopic))
	}

	if a.c.Scheduler != nil {
		a.c.Scheduler.Start()
	}

	if a.c.HTTP != nil {
		if err := a.c.HTTP.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	return nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.Start(context.Background()); err != nil {
		a.log.Error("startup failed", applogger.Error(err))
		_ = a.Shutdown(context.Background())
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	return a.Shutdown(context.Background())
}

// Shutdown stops intake first, then in-flight work, then infrastructure clients.
func (a *App) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a.log.Info("shutting down...")

	if a.c.HTTP != nil {
		if err := a.c.HTTP.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	// waits for a running cycle to return
	if a.c.Scheduler != nil {
		a.c.Scheduler.Stop()
	}

	if a.c.Queue != nil {
		if err := a.c.Queue.Stop(ctx); err != nil {
			a.log.Warn("redelivery queue stop error", applogger.Error(err))
		}
	}

	if a.c.Collector != nil {
		if err := a.c.Collector.Shutdown(ctx); err != nil {
			a.log.Warn("price stream stop error", applogger.Error(err))
		}
	}

	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.cancel != nil {
		a.cancel()
	}

	// flush digests before the producer goes away
	a.log.RemoveCollector()

	if a.c.Producer != nil {
		if err := a.c.Producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.c.Journal != nil {
		if err := a.c.Journal.Close(); err != nil {
			a.log.Warn("journal close error", applogger.Error(err))
		}
	}
	if a.c.CHClient != nil {
		if err := a.c.CHClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.c.Cache != nil {
		if err := a.c.Cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
