//go:build wireinject
// +build wireinject

package di

import (
	"DayTrader/pkg/config"
	"DayTrader/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Instruments and market data
		ProvideRegistry,
		ProvideWindowStore,
		ProvideRateLimiter,
		ProvideBinanceClient,
		ProvideYahooClient,
		ProvideMarketProviders,
		ProvideFetchCoordinator,
		ProvideRedisCache,
		ProvideCache,
		ProvidePriceService,
		ProvidePriceCollector,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideJournal,

		// Reports and delivery
		ProvideChartRenderer,
		ProvideReportComposer,
		ProvideChannels,
		ProvideDispatcher,
		ProvideRedeliveryQueue,

		// Use cases
		ProvideMonitor,
		ProvideScheduler,
		ProvideKafkaConsumer,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
