package fetcher

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dsrs-analytics/taskdash/internal/asana"
	"github.com/dsrs-analytics/taskdash/internal/metrics"
)

const (
	// DefaultTTL is how long a task listing is reused.
	DefaultTTL = 60 * time.Second
	// DefaultLoadTimeout bounds one shared load when CacheConfig.LoadTimeout is unset.
	DefaultLoadTimeout = 2 * time.Minute
)

// Source lists the tasks of a project. *asana.Client satisfies it.
type Source interface {
	ListTasks(ctx context.Context, projectID string) ([]asana.Task, error)
}

// CacheConfig configures a Cache.
type CacheConfig struct {
	Source    Source
	ProjectID string
	// TTL defaults to DefaultTTL.
	TTL time.Duration
	// LoadTimeout bounds a shared load, which outlives the caller that
	// started it. Defaults to DefaultLoadTimeout.
	LoadTimeout time.Duration
	// Store defaults to a MemoryStore.
	Store   Store
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Cache provides a TTL-based cache for task listings,
// with singleflight coalescing to prevent redundant concurrent loads.
// Errors are never cached.
type Cache struct {
	source    Source
	projectID string
	ttl       time.Duration
	timeout   time.Duration
	store     Store
	group     singleflight.Group
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

// NewCache creates a new cache for one project.
func NewCache(cfg CacheConfig) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source:    cfg.Source,
		projectID: cfg.ProjectID,
		ttl:       ttl,
		timeout:   timeout,
		store:     store,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// GetOrRefresh returns the cached listing if it was fetched less than TTL
// before now, otherwise loads it from the source.
// Concurrent callers share a single source call via singleflight.
// The returned slice is shared and must not be modified.
func (c *Cache) GetOrRefresh(ctx context.Context, now time.Time) ([]asana.Task, time.Time, error) {
	// Fast path: check if cache is valid
	if entry := c.lookup(ctx, now); entry != nil {
		c.metrics.ObserveCache(metrics.CacheHit)
		return entry.Tasks, entry.FetchedAt, nil
	}
	c.metrics.ObserveCache(metrics.CacheMiss)

	// Slow path: load via singleflight to coalesce concurrent requests.
	// Each caller waits on its own context. The load is detached from the
	// caller that started it and bounded by the load timeout.
	ch := c.group.DoChan(c.projectID, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.load(loadCtx, now)
	})

	select {
	case <-ctx.Done():
		return nil, time.Time{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, time.Time{}, res.Err
		}
		entry := res.Val.(*Entry)
		return entry.Tasks, entry.FetchedAt, nil
	}
}

// load fetches from the source and stores the result.
func (c *Cache) load(ctx context.Context, now time.Time) (*Entry, error) {
	// Double-check cache after acquiring singleflight slot
	if entry := c.lookup(ctx, now); entry != nil {
		return entry, nil
	}

	start := time.Now()
	tasks, err := c.source.ListTasks(ctx, c.projectID)
	if err != nil {
		c.metrics.ObserveFetch(metrics.OutcomeError, time.Since(start))
		return nil, err
	}
	c.metrics.ObserveFetch(metrics.OutcomeSuccess, time.Since(start))
	if tasks == nil {
		tasks = []asana.Task{}
	}

	entry := &Entry{Tasks: tasks, FetchedAt: now}
	if err := c.store.Set(ctx, c.projectID, entry, c.ttl); err != nil {
		c.logger.Warn("cache store write failed", "project", c.projectID, "error", err)
	}
	c.logger.Debug("tasks fetched", "project", c.projectID, "tasks", len(tasks), "duration", time.Since(start))
	return entry, nil
}

// Invalidate clears the cache, forcing the next call to reload.
func (c *Cache) Invalidate(ctx context.Context) {
	if err := c.store.Delete(ctx, c.projectID); err != nil {
		c.logger.Warn("cache invalidate failed", "project", c.projectID, "error", err)
	}
}

// lookup returns a fresh entry or nil. Store failures count as a miss.
func (c *Cache) lookup(ctx context.Context, now time.Time) *Entry {
	entry, err := c.store.Get(ctx, c.projectID)
	if err != nil {
		c.logger.Warn("cache store read failed", "project", c.projectID, "error", err)
		return nil
	}
	if entry == nil || now.Sub(entry.FetchedAt) >= c.ttl {
		return nil
	}
	return entry
}
