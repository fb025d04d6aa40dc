package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dsrs-analytics/taskdash/internal/asana"
	"github.com/dsrs-analytics/taskdash/internal/config"
	"github.com/dsrs-analytics/taskdash/internal/dashboard"
	"github.com/dsrs-analytics/taskdash/internal/fetcher"
	"github.com/dsrs-analytics/taskdash/internal/metrics"
)

const redisConnectTimeout = 3 * time.Second

// app holds the wired components shared by serve and snapshot.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	client    *asana.Client
	dashboard *dashboard.Service
	registry  *prometheus.Registry
	closers   []io.Closer
}

// newApp wires the Asana client, cache, and dashboard service from cfg.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) *app {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)

	client := asana.NewClient(asana.ClientConfig{
		BaseURL:    cfg.Asana.BaseURL,
		Token:      cfg.Asana.Token,
		Timeout:    cfg.Asana.Timeout,
		MaxRetries: cfg.Asana.MaxRetries,
		PageSize:   cfg.Asana.PageSize,
		UserAgent:  "taskdash/" + Version,
		Logger:     logger,
	})

	a := &app{cfg: cfg, logger: logger, client: client, registry: reg}

	cache := fetcher.NewCache(fetcher.CacheConfig{
		Source:      client,
		ProjectID:   cfg.Asana.Project,
		TTL:         cfg.Cache.TTL,
		// Every attempt plus the retries the client may make.
		LoadTimeout: cfg.Asana.Timeout * time.Duration(cfg.Asana.MaxRetries+1),
		Store:       a.store(ctx),
		Metrics:     rec,
		Logger:      logger,
	})

	a.dashboard = dashboard.NewService(dashboard.Config{
		Fetcher:          fetcher.New(cache, fetcher.WithLogger(logger)),
		Title:            cfg.Dashboard.Title,
		ChartHeight:      cfg.Dashboard.ChartHeight,
		ShowUnclassified: cfg.Dashboard.ShowUnclassified,
		Metrics:          rec,
		Logger:           logger,
	})
	return a
}

// store picks the cache store. An unreachable Redis falls back to memory.
func (a *app) store(ctx context.Context) fetcher.Store {
	if a.cfg.Cache.Driver != config.CacheDriverRedis {
		return fetcher.NewMemoryStore()
	}

	ctx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	rc := a.cfg.Cache.Redis
	s, err := fetcher.NewRedisStore(ctx, fetcher.RedisStoreConfig{
		Addr:      rc.Addr,
		Password:  rc.Password,
		DB:        rc.DB,
		KeyPrefix: rc.KeyPrefix,
	})
	if err != nil {
		a.logger.Warn("redis unavailable, using in-memory cache", "addr", rc.Addr, "error", err)
		return fetcher.NewMemoryStore()
	}
	a.logger.Info("using redis cache", "addr", rc.Addr)
	a.closers = append(a.closers, s)
	return s
}

// Close releases resources opened by newApp.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close", "error", err)
		}
	}
}
