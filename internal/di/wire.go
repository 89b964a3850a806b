//go:build wireinject
// +build wireinject

package di

import (
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideCandleStore,
		ProvideSignalStore,
		ProvideSignalPublisher,

		// Exchange
		ProvideExchangeClient,
		ProvideMarketStream,
		ProvideLivePrices,
		ProvidePriceSource,

		// Use cases
		ProvideTickerCollector,
		ProvideAggregator,
		ProvideScanner,
		ProvideValidator,
		ProvideBackfiller,
		ProvideKafkaCandlesHandler,

		// HTTP API
		ProvideSignalsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
