package di

import (
	"context"
	"fmt"
	"time"

	"BrokerSync/internal/broker"
	"BrokerSync/internal/broker/ibkr"
	"BrokerSync/internal/broker/tradernet"
	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
	"BrokerSync/internal/handler/api"
	internalrepo "BrokerSync/internal/repository"
	"BrokerSync/internal/service/platforms"
	"BrokerSync/internal/usecase"
	pkgch "BrokerSync/pkg/clickhouse"
	"BrokerSync/pkg/config"
	xhttp "BrokerSync/pkg/http"
	pkgkafka "BrokerSync/pkg/kafka"
	applogger "BrokerSync/pkg/logger"
	"BrokerSync/pkg/metrics"
	pkgredis "BrokerSync/pkg/redis"
	"BrokerSync/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.activities (
			id String,
			account_id String,
			asset_id String,
			activity_type String,
			activity_date DateTime('UTC'),
			quantity Nullable(Decimal(38, 18)),
			unit_price Nullable(Decimal(38, 18)),
			currency String,
			fee Nullable(Decimal(38, 18)),
			amount Nullable(Decimal(38, 18)),
			is_draft UInt8,
			comment String
		) ENGINE=MergeTree ORDER BY (account_id, activity_date)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.accounts (
			id String,
			name String,
			currency String,
			platform_id String
		) ENGINE=MergeTree ORDER BY id`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.assets (
			asset_id String,
			symbol String,
			currency String
		) ENGINE=MergeTree ORDER BY (symbol, currency)`, db),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideRedisClient creates the Redis client used for platform state and secrets.
func ProvideRedisClient(cfg *config.Config) (*pkgredis.Client, error) {
	client, err := pkgredis.NewClient(
		pkgredis.WithAddr(cfg.Redis.Addr),
		pkgredis.WithPassword(cfg.Redis.Password),
		pkgredis.WithDB(cfg.Redis.DB),
		pkgredis.WithPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return client, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideActivityStore creates the ClickHouse activity store.
func ProvideActivityStore(chClient *pkgch.Client, cfg *config.Config) repository.ActivityStore {
	return internalrepo.NewClickHouseActivityStore(chClient.DB(), cfg.ClickHouse.Database+".activities")
}

// ProvideAccountStore creates the ClickHouse account store.
func ProvideAccountStore(chClient *pkgch.Client, cfg *config.Config) repository.AccountStore {
	return internalrepo.NewClickHouseAccountStore(chClient.DB(), cfg.ClickHouse.Database+".accounts")
}

// ProvideAssetResolver creates the ClickHouse asset resolver.
func ProvideAssetResolver(chClient *pkgch.Client, cfg *config.Config) repository.AssetResolver {
	return internalrepo.NewClickHouseAssetResolver(chClient.DB(), cfg.ClickHouse.Database+".assets")
}

// ProvideSecretStore creates the Redis-backed secret store.
func ProvideSecretStore(client *pkgredis.Client) repository.SecretStore {
	return internalrepo.NewRedisSecretStore(client)
}

// ProvideCredentialResolver creates the cached credential resolver.
func ProvideCredentialResolver(secrets repository.SecretStore, cfg *config.Config) *broker.CredentialResolver {
	return broker.NewCredentialResolver(secrets, cfg.Sync.CredentialsTTL)
}

// ProvideRegistry registers all known broker providers.
func ProvideRegistry() *broker.Registry {
	r := broker.NewRegistry()
	r.Register(ibkr.PlatformID, ibkr.New)
	r.Register(tradernet.PlatformID, tradernet.New)
	return r
}

// ProvideFactory creates the per-account provider factory.
func ProvideFactory(registry *broker.Registry, resolver *broker.CredentialResolver, cfg *config.Config) *broker.Factory {
	return broker.NewFactory(registry, resolver, declaredPlatforms(cfg))
}

// ProvidePlatformsService creates the platform settings service.
func ProvidePlatformsService(cfg *config.Config, state *pkgredis.Client, secrets repository.SecretStore) repository.PlatformsService {
	return platforms.New(declaredPlatforms(cfg), state, secrets)
}

func declaredPlatforms(cfg *config.Config) []models.Platform {
	out := make([]models.Platform, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		out = append(out, models.Platform{ID: p.ID, Name: p.Name, URL: p.URL})
	}
	return out
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
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSyncPublisher creates the Kafka result publisher, or nil without Kafka.
func ProvideSyncPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SyncPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSyncPublisher(producer, cfg.Kafka.ResultsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSyncService creates the sync orchestrator.
func ProvideSyncService(
	accounts repository.AccountStore,
	store repository.ActivityStore,
	assets repository.AssetResolver,
	platformsSvc repository.PlatformsService,
	factory *broker.Factory,
	publisher repository.SyncPublisher,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.SyncService {
	return usecase.NewSyncService(
		accounts, store, assets, platformsSvc, factory, publisher, m, logger,
		cfg.Sync.Concurrency, cfg.Sync.FetchTimeout,
	)
}

// ProvideKafkaSyncHandler registers the sync-request message handler.
func ProvideKafkaSyncHandler(svc *usecase.SyncService, m repository.Metrics, logger *applogger.Logger, cfg *config.Config) pkgkafka.MessageHandler {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return usecase.NewKafkaSyncHandler(cfg.Kafka.RequestTopic, svc, m, logger)
}

// ProvideSyncScheduler creates the periodic sync scheduler.
func ProvideSyncScheduler(svc *usecase.SyncService, logger *applogger.Logger, cfg *config.Config) *usecase.SyncScheduler {
	if !cfg.Sync.ScheduleEnabled {
		return nil
	}
	return usecase.NewSyncScheduler(svc, cfg.Sync.ScheduleInterval, logger)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(logger *applogger.Logger, platformsSvc repository.PlatformsService, svc *usecase.SyncService) xhttp.Handler {
	return api.NewBrokersEchoHandler(logger, platformsSvc, svc)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	httpHandler xhttp.Handler,
	scheduler *usecase.SyncScheduler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	redisClient *pkgredis.Client,
	store repository.ActivityStore,
) *server.App {
	app := server.New(cfg, logger, httpHandler, scheduler, consumer, kh, producer, chClient, redisClient)
	app.AddCloser(store.Close)
	app.AddHealthCheck("clickhouse", chClient.Health)
	app.AddHealthCheck("redis", redisClient.Health)
	app.AddHealthCheck("activities", store.Health)
	return app
}
