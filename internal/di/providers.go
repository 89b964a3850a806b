package di

import (
	"context"
	"fmt"
	"time"

	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/handler/api"
	mid "SignalDesk/internal/middleware"
	internalrepo "SignalDesk/internal/repository"
	"SignalDesk/internal/service/cache"
	"SignalDesk/internal/service/exchange"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/services/detect"
	"SignalDesk/internal/usecase"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	log, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer for the candle ingest topic,
// or nil when the consumer is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCandleStore creates the ClickHouse candle store.
func ProvideCandleStore(chClient *pkgch.Client, log *applogger.Logger) domrepo.FeatureStore {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(log)
	return store
}

// ProvideSignalStore creates the ClickHouse signal store.
func ProvideSignalStore(chClient *pkgch.Client) domrepo.SignalStore {
	return internalrepo.NewCHSignalStore(chClient)
}

// ProvideSignalPublisher creates the Kafka alert publisher, or nil when
// Kafka is disabled. The scanner tolerates a nil publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.AlertPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalTopic, cfg.Kafka.PumpDumpTopic)
}

// ProvideExchangeClient creates the exchange REST client.
func ProvideExchangeClient(cfg *config.Config) *exchange.Client {
	return exchange.NewClient(cfg.Exchange.RESTURL, cfg.Exchange.RequestTimeout)
}

// ProvideMarketStream creates the exchange WebSocket stream.
func ProvideMarketStream(cfg *config.Config) domrepo.MarketStream {
	return exchange.NewStream(
		cfg.Exchange.WebSocketURL,
		cfg.Exchange.Symbols,
		cfg.Exchange.ReconnectDelay,
		cfg.Exchange.PingInterval,
	)
}

// ProvideCache creates the byte cache: Redis when configured, otherwise an
// in-process TTL cache.
func ProvideCache(cfg *config.Config) cache.BytesCache {
	if cfg.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideLivePrices creates the price source fed by the ticker stream.
func ProvideLivePrices(rest *exchange.Client, c cache.BytesCache) *exchange.LivePrices {
	return exchange.NewLivePrices(rest, c, 5*time.Second, 30*time.Second)
}

// ProvidePriceSource exposes live prices as the validator's price source.
func ProvidePriceSource(prices *exchange.LivePrices) domrepo.PriceSource {
	return prices
}

// ProvideTickerCollector creates the ticker collector with its middleware
// pipeline between the WebSocket stream and the price book.
func ProvideTickerCollector(
	stream domrepo.MarketStream,
	prices *exchange.LivePrices,
	m domrepo.Metrics,
) *usecase.TickerCollector {
	proc := usecase.NewTickerProcessor(prices, m)
	pipe := mid.NewTickerPipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickerCollector(stream, proc, m, pipe)
}

// ProvideAggregator creates the signal aggregator with detector parameters
// from config.
func ProvideAggregator(cfg *config.Config, log *applogger.Logger) *usecase.SignalAggregator {
	dc := detect.DefaultConfig()
	if cfg.Detectors.SmartMoneyVolumeRatio > 0 {
		dc.SmartMoneyVolumeRatio = cfg.Detectors.SmartMoneyVolumeRatio
	}
	if cfg.Detectors.LiquidityLookback > 0 {
		dc.LiquidityLookback = cfg.Detectors.LiquidityLookback
	}
	if cfg.Detectors.WhaleStdMultiplier > 0 {
		dc.WhaleStdMultiplier = cfg.Detectors.WhaleStdMultiplier
	}
	if cfg.Detectors.PumpDumpThreshold > 0 {
		dc.PumpDumpThreshold = cfg.Detectors.PumpDumpThreshold
	}
	if cfg.Detectors.PumpDumpWindow > 0 {
		dc.PumpDumpWindow = cfg.Detectors.PumpDumpWindow
	}
	if cfg.Detectors.MaxEvents > 0 {
		dc.MaxEvents = cfg.Detectors.MaxEvents
	}
	return usecase.NewSignalAggregator(dc, log)
}

// ProvideScanner creates the detection scanner.
func ProvideScanner(
	cfg *config.Config,
	agg *usecase.SignalAggregator,
	candles domrepo.FeatureStore,
	store domrepo.SignalStore,
	publisher domrepo.AlertPublisher,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.Scanner {
	return usecase.NewScanner(usecase.ScannerConfig{
		Symbols:       cfg.Exchange.Symbols,
		Timeframe:     domrepo.NormalizeTimeframe(cfg.Scanner.Timeframe),
		WindowBars:    cfg.Scanner.WindowBars,
		Interval:      cfg.Scanner.Interval,
		TargetPercent: cfg.Scanner.TargetPercent,
		StopPercent:   cfg.Scanner.StopPercent,
		Horizon:       cfg.Scanner.Horizon,
		MinStrength:   cfg.Scanner.MinStrength,
	}, agg, candles, store, publisher, m, log)
}

// ProvideValidator creates the signal validator with min ages from config.
func ProvideValidator(
	cfg *config.Config,
	store domrepo.SignalStore,
	prices domrepo.PriceSource,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.SignalValidator {
	return usecase.NewSignalValidator(usecase.ValidatorConfig{
		SignalMinAge:   cfg.Validator.SignalMinAge,
		PumpDumpMinAge: cfg.Validator.PumpDumpMinAge,
	}, store, prices, m, log)
}

// ProvideBackfiller creates the candle backfiller, or nil when disabled.
func ProvideBackfiller(
	cfg *config.Config,
	rest *exchange.Client,
	candles domrepo.FeatureStore,
	log *applogger.Logger,
) *usecase.Backfiller {
	if !cfg.Backfill.Enabled {
		return nil
	}
	return usecase.NewBackfiller(
		rest,
		candles,
		cfg.Exchange.Symbols,
		domrepo.NormalizeTimeframe(cfg.Scanner.Timeframe),
		cfg.Backfill.Bars,
		cfg.Backfill.Interval,
		log,
	)
}

// ProvideKafkaCandlesHandler registers the handler for the candle topic.
func ProvideKafkaCandlesHandler(cfg *config.Config, candles domrepo.FeatureStore, m domrepo.Metrics) pkgkafka.MessageHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.CandlesTopic, candles, m)
}

// ProvideSignalsHandler creates the HTTP API handler.
func ProvideSignalsHandler(
	log *applogger.Logger,
	agg *usecase.SignalAggregator,
	candles domrepo.FeatureStore,
	store domrepo.SignalStore,
	c cache.BytesCache,
) xhttp.Handler {
	return api.NewSignalsHandler(log, agg, candles, store, c, ratelimit.New())
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's sink.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickerCollector,
	scanner *usecase.Scanner,
	validator *usecase.SignalValidator,
	backfiller *usecase.Backfiller,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	publisher domrepo.AlertPublisher,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	// Aggregate repeated error logs onto the bus instead of flooding stdout.
	if producer != nil {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "signaldesk.logs",
			Publisher:      kafkaLogPublisher{producer: producer},
		})
	}
	return server.New(cfg, log, collector, scanner, validator, backfiller, consumer, kh, publisher, chClient, httpHandler)
}
