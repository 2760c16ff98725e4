//go:build wireinject
// +build wireinject

package di

import (
	"BrokerSync/pkg/config"
	"BrokerSync/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideActivityStore,
		ProvideAccountStore,
		ProvideAssetResolver,
		ProvideSecretStore,
		ProvideSyncPublisher,

		// Broker providers
		ProvideCredentialResolver,
		ProvideRegistry,
		ProvideFactory,
		ProvidePlatformsService,

		// Use cases
		ProvideSyncService,
		ProvideKafkaSyncHandler,
		ProvideSyncScheduler,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
