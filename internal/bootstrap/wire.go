//go:build wireinject

package bootstrap

import (
	"context"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideSettings,
	ProvideConfig,
	ProvideLogger,
	ProvideClock,
	ProvideLocation,
	ProvideHTTPClient,
	ProvideUpstreamGate,
	ProvideAdapters,
	ProvidePipeline,
	ProvideRedisClient,
	ProvideIdempotency,
	ProvideTickerService,
	ProvideScheduler,
)

// InitApp builds the API process: HTTP server, scheduler and manual worker.
func InitApp(ctx context.Context) (*App, func(), error) {
	wire.Build(
		infraSet,
		ProvideManualWorker,
		ProvideServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitOneShot builds a single refresh pass for cmd/worker.
func InitOneShot(ctx context.Context) (*OneShot, func(), error) {
	wire.Build(
		infraSet,
		ProvideOneShot,
	)
	return nil, nil, nil
}
