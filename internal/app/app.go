package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sitefleet/platform/internal/config"
	"github.com/sitefleet/platform/internal/httpserver"
	"github.com/sitefleet/platform/internal/httpserver/deps"
	"github.com/sitefleet/platform/internal/index"
	"github.com/sitefleet/platform/internal/logger"
	"github.com/sitefleet/platform/internal/metrics"
	"github.com/sitefleet/platform/internal/redis"
	"github.com/sitefleet/platform/internal/scheduler"
	"github.com/sitefleet/platform/internal/sources/platform"
	redisstore "github.com/sitefleet/platform/internal/store/redis"
	"github.com/sitefleet/platform/internal/version"
)

// App is the plan server: it rebuilds the plan on a schedule, persists it
// to Redis and serves it over HTTP.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	planIndex   *index.PlanIndex
	reloader    *scheduler.PlanReloader
	collector   *scheduler.SiteCollector
}

// New wires the server. Redis must answer within the connect timeout.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	redisClient, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log.Named("redis"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	planIndex := index.NewPlanIndex()
	store := redisstore.NewStore(redisClient)

	// Serve the last known plan while the first rebuild runs
	syncer := scheduler.NewRedisSyncer(store, planIndex, log.Named("sync"))
	if err := syncer.Sync(ctx); err != nil {
		log.Warn("failed to sync plan from redis on startup, will build from the platform file",
			logger.Error(err))
	}

	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewPlanReloader(
		cfg.PlatformFile,
		platform.Options{
			Environment:       cfg.Environment,
			Subdomain:         cfg.Subdomain,
			Dedicated:         cfg.DedicatedDatabases,
			LegacyReplication: cfg.LegacyReplication,
		},
		store,
		planIndex,
		log.Named("reloader"),
		cfg.ReloadInterval,
		reloadTrigger,
	)

	collector := scheduler.NewSiteCollector(
		store,
		planIndex,
		log.Named("collector"),
		cfg.CollectInterval,
	)

	registry := metrics.NewRegistry(planIndex)

	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Store:           store,
		PlanIndex:       planIndex,
		ReloadTrigger:   reloadTrigger,
		HTTPMetrics:     metrics.NewHTTP(registry),
		Gatherer:        registry,
	}

	return &App{
		cfg:         cfg,
		logger:      log,
		server:      httpserver.New(cfg.ListenPort, d),
		redisClient: redisClient,
		planIndex:   planIndex,
		reloader:    reloader,
		collector:   collector,
	}, nil
}

// Run starts the jobs and the HTTP server and blocks until SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting plan server",
		logger.String("version", version.String()),
		logger.String("listen", a.cfg.ListenPort),
		logger.String("environment", a.cfg.Environment))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.reloader.Start(ctx); err != nil {
		// A stale snapshot synced from redis is still worth serving
		if _, ok := a.planIndex.Plan(); !ok {
			return fmt.Errorf("failed to start plan reloader: %w", err)
		}
		a.logger.Error("initial plan build failed, serving the snapshot from redis",
			logger.Error(err))
	} else {
		a.logger.Info("plan reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	if err := a.collector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start site collector: %w", err)
	}
	a.logger.Info("site collector started",
		logger.Duration("interval", a.cfg.CollectInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.collector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Warn("failed to close redis", logger.Error(err))
	} else {
		a.logger.Info("redis closed cleanly")
	}

	a.logger.Info("plan server stopped cleanly")
	return nil
}
