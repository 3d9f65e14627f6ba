package bootstrap

import (
	"context"
	"fmt"
	"time"

	"tickerboard/internal/application"
	"tickerboard/internal/config"
	httpserver "tickerboard/internal/infrastructure/http"
	"tickerboard/internal/infrastructure/httpx"
	"tickerboard/internal/infrastructure/logx"
	"tickerboard/internal/infrastructure/metrics"
	"tickerboard/internal/infrastructure/provider"
	redisstore "tickerboard/internal/infrastructure/redis"
	"tickerboard/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Settings is the env configuration with the SOURCES_FILE catalog applied.
type Settings struct {
	Config    config.Config
	Overrides map[string]config.SourceOverride
}

func ProvideSettings() (Settings, error) {
	cfg := config.Load()
	overrides, err := config.LoadSourcesFile(cfg.SourcesFile)
	if err != nil {
		return Settings{}, err
	}
	cfg, byID := config.ApplySources(cfg, overrides)
	return Settings{Config: cfg, Overrides: byID}, nil
}

func ProvideConfig(s Settings) config.Config { return s.Config }

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideClock() application.Clock { return application.SystemClock() }

// ProvideLocation is the zone snapshot labels and hour boundaries use.
func ProvideLocation() *time.Location { return time.Local }

func ProvideHTTPClient(cfg config.Config, log *zap.Logger) *httpx.Client {
	return httpx.New(cfg.RequestTimeout, httpx.RetryPolicy{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   cfg.RetryBase,
	}, log)
}

// ProvideUpstreamGate serializes and spaces every upstream fetch, whichever
// worker asks for it.
func ProvideUpstreamGate(cfg config.Config) *worker.UpstreamGate {
	return worker.NewUpstreamGate(cfg.SourceSpacing)
}

func ProvideAdapters(s Settings, c *httpx.Client, gate *worker.UpstreamGate, clock application.Clock, log *zap.Logger) ([]application.SourceAdapter, error) {
	adapters, err := provider.Build(s.Config, s.Overrides, c, clock, log)
	if err != nil {
		return nil, err
	}
	return gate.Wrap(adapters), nil
}

func ProvidePipeline(cfg config.Config, adapters []application.SourceAdapter, clock application.Clock, loc *time.Location) (*application.PipelineState, error) {
	snaps := application.NewSnapshotStore(cfg.HistoryDepth, loc, clock)
	return application.NewPipelineState(adapters, cfg.TickerTTL, snaps, clock)
}

// ProvideRedisClient returns nil when IDEMPOTENCY_BACKEND is not "redis".
func ProvideRedisClient(ctx context.Context, cfg config.Config, log *zap.Logger) (*redis.Client, func(), error) {
	switch cfg.IdempotencyBackend {
	case "redis":
	case "", "none":
		return nil, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported IDEMPOTENCY_BACKEND=%q", cfg.IdempotencyBackend)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis.unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cleanup := func() {
		log.Info("closing redis")
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideIdempotency(client *redis.Client, cfg config.Config) application.IdempotencyStore {
	if client == nil {
		return application.NoopIdempotency{}
	}
	return redisstore.New(client, cfg.RedisTTL)
}

func ProvideTickerService(state *application.PipelineState, idem application.IdempotencyStore, clock application.Clock, log *zap.Logger) *application.TickerService {
	return application.NewTickerService(state,
		application.WithClock(clock),
		application.WithLogger(log),
		application.WithIdempotency(idem),
		application.WithObserver(metrics.Observer{}),
	)
}

func ProvideScheduler(svc *application.TickerService, cfg config.Config, loc *time.Location, log *zap.Logger) (*worker.Scheduler, error) {
	return worker.NewScheduler(svc, cfg.RefreshSchedule,
		worker.WithLocation(loc),
		worker.WithLogger(log),
	)
}

func ProvideManualWorker(svc *application.TickerService, cfg config.Config) *worker.ChanWorker {
	return worker.NewChanWorker(svc, cfg.ManualQueueSize)
}

func ProvideServer(svc *application.TickerService, manual *worker.ChanWorker, sched *worker.Scheduler, client *redis.Client) *httpserver.Server {
	srv := httpserver.NewServer(svc, manual, sched)
	if client != nil {
		srv.AddReadyCheck(redisstore.New(client, 0).Ping)
	}
	return srv
}

func ProvideApp(cfg config.Config, srv *httpserver.Server, sched *worker.Scheduler, manual *worker.ChanWorker, log *zap.Logger) *App {
	return &App{
		cfg:     cfg,
		handler: httpserver.NewRouter(srv),
		workers: []application.Worker{sched, manual},
		log:     log,
	}
}

func ProvideOneShot(svc *application.TickerService, sched *worker.Scheduler) *OneShot {
	return &OneShot{svc: svc, sched: sched}
}
