package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"Certus/internal/domain/repository"
	domsvc "Certus/internal/domain/service"
	"Certus/internal/handler/api"
	mid "Certus/internal/middleware"
	internalrepo "Certus/internal/repository"
	"Certus/internal/scheduler"
	"Certus/internal/service/alphavantage"
	icache "Certus/internal/service/cache"
	"Certus/internal/service/coingecko"
	"Certus/internal/service/coinmarketcal"
	"Certus/internal/service/coinmarketcap"
	"Certus/internal/service/cryptopanic"
	"Certus/internal/service/finnhub"
	svcmetrics "Certus/internal/service/metrics"
	"Certus/internal/service/ratelimit"
	"Certus/internal/services/analytics"
	"Certus/internal/usecase"
	pkgch "Certus/pkg/clickhouse"
	"Certus/pkg/config"
	pkghttp "Certus/pkg/http"
	pkgkafka "Certus/pkg/kafka"
	applogger "Certus/pkg/logger"
	"Certus/pkg/metrics"
	"Certus/pkg/server"
	pkgsqlite "Certus/pkg/sqlite"
)

// Pipeline bundles what cmd/pipeline needs.
type Pipeline struct {
	Runner   *usecase.PipelineRunner
	Backfill *usecase.HistoryBackfill
	Store    repository.Store
	Logger   *applogger.Logger
}

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

// ProvideRegisterer returns the registry every recorder registers on.
func ProvideRegisterer() prometheus.Registerer { return prometheus.DefaultRegisterer }

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg prometheus.Registerer) repository.Metrics {
	return metrics.New(reg)
}

func ProvidePipelineMetrics(reg prometheus.Registerer) *svcmetrics.Pipeline {
	return svcmetrics.NewPipeline(reg)
}

func ProvideKafkaMetrics(reg prometheus.Registerer) *pkgkafka.Metrics {
	return pkgkafka.NewMetrics(reg)
}

// ProvideStore opens the configured backend and ensures its schema.
func ProvideStore(cfg *config.Config, l *applogger.Logger) (repository.Store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store repository.Store
	switch repository.NormalizeBackend(cfg.Storage.Backend) {
	case repository.BackendClickHouse:
		client, err := pkgch.NewClient(ctx,
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		chStore := internalrepo.NewClickHouseStore(client, l)
		if err := chStore.Init(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		store = chStore
		return store, func() { _ = client.Close() }, nil
	default:
		client, err := pkgsqlite.Open(ctx, cfg.Storage.SQLite.Path, cfg.Storage.SQLite.BusyTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		store = internalrepo.NewSQLiteStore(client, l)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	}
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, km *pkgkafka.Metrics) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(km,
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvidePublisher creates Kafka publisher repository, or nil.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.MarketsTopic, cfg.Kafka.ScoresTopic)
}

// ProvideKafkaConsumer creates the snapshot consumer when snapshots travel
// over Kafka, otherwise nil.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, km *pkgkafka.Metrics) (*pkgkafka.Consumer, error) {
	if repository.NormalizeTransport(cfg.Kafka.Transport) != repository.TransportKafka {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l, km,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSnapshotHandler handles the markets topic.
func ProvideSnapshotHandler(store repository.Store, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.SnapshotHandler {
	return usecase.NewSnapshotHandler(cfg.Kafka.MarketsTopic, store, m, l)
}

// ProvideUpstreamOptions are shared by every upstream REST client.
func ProvideUpstreamOptions(cfg *config.Config) []pkghttp.ClientOption {
	return []pkghttp.ClientOption{
		pkghttp.WithTimeout(cfg.Upstream.Timeout),
		pkghttp.WithRetry(cfg.Upstream.RetryCount, cfg.Upstream.RetryWait, cfg.Upstream.RetryMaxWait),
	}
}

func ProvideCoinGecko(cfg *config.Config, opts []pkghttp.ClientOption) *coingecko.Client {
	return coingecko.New(coingecko.Config{
		BaseURL:    cfg.CoinGecko.BaseURL,
		ProBaseURL: cfg.CoinGecko.ProBaseURL,
		APIKey:     cfg.CoinGecko.APIKey,
		VsCurrency: cfg.Markets.VsCurrency,
	}, opts...)
}

// ProvideMarketSource selects the snapshot provider.
func ProvideMarketSource(cfg *config.Config, cg *coingecko.Client, opts []pkghttp.ClientOption) domsvc.MarketSource {
	if cfg.Markets.Provider == coinmarketcap.Name {
		return coinmarketcap.New(cfg.CoinMarketCap.BaseURL, cfg.CoinMarketCap.APIKey, opts...)
	}
	return cg
}

func ProvideNewsSource(cfg *config.Config, opts []pkghttp.ClientOption) domsvc.NewsSource {
	if cfg.CryptoPanic.AuthToken == "" {
		return nil
	}
	return cryptopanic.New(cfg.CryptoPanic.BaseURL, cfg.CryptoPanic.AuthToken, opts...)
}

func ProvideEventSource(cfg *config.Config, opts []pkghttp.ClientOption) domsvc.EventSource {
	if cfg.CoinMarketCal.APIKey == "" {
		return nil
	}
	return coinmarketcal.New(cfg.CoinMarketCal.BaseURL, cfg.CoinMarketCal.APIKey, opts...)
}

// ProvideQuoteFeeds binds each configured quote provider to its symbols.
func ProvideQuoteFeeds(cfg *config.Config, opts []pkghttp.ClientOption) []usecase.QuoteFeed {
	var feeds []usecase.QuoteFeed
	if cfg.Finnhub.APIKey != "" && len(cfg.Finnhub.Symbols) > 0 {
		feeds = append(feeds, usecase.QuoteFeed{
			Source:  finnhub.New(cfg.Finnhub.BaseURL, cfg.Finnhub.APIKey, opts...),
			Symbols: cfg.Finnhub.Symbols,
		})
	}
	if cfg.AlphaVantage.APIKey != "" && len(cfg.AlphaVantage.Symbols) > 0 {
		feeds = append(feeds, usecase.QuoteFeed{
			Source:  alphavantage.New(cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.APIKey, opts...),
			Symbols: cfg.AlphaVantage.Symbols,
		})
	}
	return feeds
}

func ProvideSnapshotProcessor(store repository.Store, pub repository.Publisher, m repository.Metrics, cfg *config.Config) *usecase.SnapshotProcessor {
	return usecase.NewSnapshotProcessor(store, pub, m, repository.NormalizeTransport(cfg.Kafka.Transport))
}

// ProvideSnapshotPipeline builds the filter between fetcher and processor.
func ProvideSnapshotPipeline(proc *usecase.SnapshotProcessor, m repository.Metrics) *mid.SnapshotPipeline {
	return mid.NewSnapshotPipeline(proc, m,
		mid.WithMinInterval(30*time.Second),
		mid.WithBufferSize(16),
	)
}

func ProvideCollector(src domsvc.MarketSource, pipe *mid.SnapshotPipeline, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.SnapshotCollector {
	return usecase.NewSnapshotCollector(src, pipe, ratelimit.New(), usecase.CollectorConfig{
		Pages:       cfg.Markets.Pages,
		PerPage:     cfg.Markets.PerPage,
		Workers:     cfg.Upstream.Workers,
		PagesPerSec: cfg.Upstream.PagesPerSec,
	}, m, l)
}

func ProvideFeedIngest(news domsvc.NewsSource, events domsvc.EventSource, quotes []usecase.QuoteFeed, store repository.Store, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.FeedIngest {
	return usecase.NewFeedIngest(news, events, quotes, store, m, l).
		WithLimits(cfg.CryptoPanic.Limit, cfg.CoinMarketCal.Max)
}

func ProvideAnalyticsStages(store repository.Store, pub repository.Publisher, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.AnalyticsStages {
	engine := analytics.NewIndicatorEngine(analytics.IndicatorParams{
		EMAFast:    cfg.Analytics.EMAFast,
		EMASlow:    cfg.Analytics.EMASlow,
		RSIPeriod:  cfg.Analytics.RSIPeriod,
		MACDFast:   cfg.Analytics.MACDFast,
		MACDSlow:   cfg.Analytics.MACDSlow,
		MACDSignal: cfg.Analytics.MACDSignal,
	})
	composer := analytics.NewScoreComposer(analytics.TierCuts{
		Bullish: cfg.Analytics.BullishCut,
		Bearish: cfg.Analytics.BearishCut,
	})
	return usecase.NewAnalyticsStages(store, pub, engine, composer,
		usecase.IndicatorMode(cfg.Analytics.Mode), cfg.Analytics.Lookback, m, l)
}

func ProvideTrendsRefresh(store repository.Store, l *applogger.Logger) *usecase.TrendsRefresh {
	return usecase.NewTrendsRefresh(store, l)
}

func ProvidePipelineRunner(
	collector *usecase.SnapshotCollector,
	feeds *usecase.FeedIngest,
	stages *usecase.AnalyticsStages,
	trends *usecase.TrendsRefresh,
	pm *svcmetrics.Pipeline,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.PipelineRunner {
	return usecase.NewPipelineRunner(collector, feeds, stages, trends, cfg.Paused, pm, l)
}

func ProvideHistoryBackfill(cg *coingecko.Client, store repository.Store, l *applogger.Logger) *usecase.HistoryBackfill {
	return usecase.NewHistoryBackfill(cg, coingecko.Name, store, l)
}

// ProvideCache returns Redis when enabled, otherwise an in-process TTL cache.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (icache.BytesCache, func()) {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache(), func() {}
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		// requests still work; every cache lookup degrades to a miss
		l.Warn("redis unreachable", applogger.String("addr", cfg.Redis.Addr), applogger.Error(err))
	}
	return rc, func() { _ = rc.Close() }
}

func ProvideQueryUseCase(store repository.Store) *usecase.QueryUseCase {
	return usecase.NewQueryUseCase(store)
}

func ProvideHTTPHandler(l *applogger.Logger, q *usecase.QueryUseCase, store repository.Store, c icache.BytesCache, cfg *config.Config) pkghttp.Handler {
	return api.NewTrendsEchoHandler(l, q, store,
		api.WithCache(c, cfg.Server.CacheTTL),
		api.WithRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	)
}

func ProvideHTTPServer(h pkghttp.Handler, cfg *config.Config, l *applogger.Logger) *pkghttp.Server {
	return pkghttp.NewServer(h,
		pkghttp.WithHost(cfg.Server.Host),
		pkghttp.WithPort(cfg.Server.Port),
		pkghttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		pkghttp.WithMetrics(cfg.Metrics.Enabled),
		pkghttp.WithLogger(l),
	)
}

func ProvideScheduler(runner *usecase.PipelineRunner, cfg *config.Config, l *applogger.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.NewScheduler(runner, l)
	if !cfg.Scheduler.Enabled {
		return s, nil
	}
	if err := s.RegisterAll(scheduler.Specs{
		Markets:   cfg.Scheduler.Markets,
		Feeds:     cfg.Scheduler.Feeds,
		Quotes:    cfg.Scheduler.Quotes,
		Analytics: cfg.Scheduler.Analytics,
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.Store,
	httpServer *pkghttp.Server,
	sched *scheduler.Scheduler,
	pipe *mid.SnapshotPipeline,
	consumer *pkgkafka.Consumer,
	handler *usecase.SnapshotHandler,
) *server.App {
	if consumer == nil {
		handler = nil
	}
	return server.New(cfg, l, store, httpServer, sched, pipe, consumer, handler)
}
