//go:build wireinject
// +build wireinject

package di

import (
	"Certus/pkg/config"
	"Certus/pkg/server"

	"github.com/google/wire"
)

var baseSet = wire.NewSet(
	// Observability
	ProvideLogger,
	ProvideRegisterer,
	ProvideMetrics,
	ProvidePipelineMetrics,
	ProvideKafkaMetrics,

	// Infrastructure clients
	ProvideStore,
	ProvideKafkaProducer,
	ProvidePublisher,

	// Upstream sources
	ProvideUpstreamOptions,
	ProvideCoinGecko,
	ProvideMarketSource,
	ProvideNewsSource,
	ProvideEventSource,
	ProvideQuoteFeeds,

	// Use cases
	ProvideSnapshotProcessor,
	ProvideSnapshotPipeline,
	ProvideCollector,
	ProvideFeedIngest,
	ProvideAnalyticsStages,
	ProvideTrendsRefresh,
	ProvidePipelineRunner,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		baseSet,

		// Query API
		ProvideCache,
		ProvideQueryUseCase,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Background workers
		ProvideScheduler,
		ProvideKafkaConsumer,
		ProvideSnapshotHandler,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializePipeline wires the one-shot pipeline used by cmd/pipeline.
func InitializePipeline(cfg *config.Config) (*Pipeline, func(), error) {
	wire.Build(
		baseSet,
		ProvideHistoryBackfill,
		wire.Struct(new(Pipeline), "*"),
	)
	return nil, nil, nil
}
