// Package fetcher retrieves the task records for the configured project,
// reusing a recent result and degrading to an empty list on failure.
package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/dsrs-analytics/taskdash/internal/asana"
	dasherrors "github.com/dsrs-analytics/taskdash/internal/errors"
)

// Notifier receives user-facing failure messages.
type Notifier interface {
	Error(msg string)
}

// Fetcher returns task records through a Cache.
type Fetcher struct {
	cache  *Cache
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClock overrides the clock used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// New creates a Fetcher over cache.
func New(cache *Cache, opts ...Option) *Fetcher {
	f := &Fetcher{
		cache:  cache,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the project's task records, possibly from cache.
// On any failure it reports one message to n and returns an empty,
// non-nil slice. Partial results are never returned.
func (f *Fetcher) Fetch(ctx context.Context, n Notifier) []asana.Task {
	tasks, _, err := f.cache.GetOrRefresh(ctx, f.now())
	if err != nil {
		f.logger.Error("fetch tasks failed",
			"project", f.cache.projectID,
			"code", dasherrors.CodeOf(err),
			"error", err,
		)
		if n != nil {
			n.Error(FailureMessage(err))
		}
		return []asana.Task{}
	}
	return tasks
}

// Invalidate drops the cached listing.
func (f *Fetcher) Invalidate(ctx context.Context) {
	f.cache.Invalidate(ctx)
}

// FailureMessage renders err for display on the dashboard.
func FailureMessage(err error) string {
	msg := "Failed to fetch tasks from Asana: " + err.Error()
	if dashErr := dasherrors.AsDashError(err); dashErr != nil && dashErr.Fix != "" {
		msg += ". " + dashErr.Fix
	}
	return msg
}
