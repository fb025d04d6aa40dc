// Package dashboard runs the fetch, aggregate and chart pipeline for one
// page load.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dsrs-analytics/taskdash/internal/aggregate"
	"github.com/dsrs-analytics/taskdash/internal/asana"
	"github.com/dsrs-analytics/taskdash/internal/chart"
	"github.com/dsrs-analytics/taskdash/internal/fetcher"
	"github.com/dsrs-analytics/taskdash/internal/metrics"
)

// Page titles, chart titles and notice text.
const (
	DefaultTitle         = "DSRS Tasks Dashboard"
	DepartmentChartTitle = "Task by Department"
	StatusChartTitle     = "Task Completion status"
	NoDataMessage        = "No data fetched from Asana."
	UnclassifiedLabel    = "Unclassified"
	// TimestampLayout formats GeneratedAtText.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Level is the severity of a Notice.
type Level string

// Notice levels.
const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notice is a message shown above the charts.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Chart is one rendered chart.
type Chart struct {
	Title   string     `json:"title"`
	Height  string     `json:"height"`
	Options chart.Spec `json:"options"`
}

// View is everything one page load displays.
type View struct {
	Title           string    `json:"title"`
	Departments     Chart     `json:"departments"`
	Statuses        Chart     `json:"statuses"`
	Total           int       `json:"total"`
	Unclassified    int       `json:"unclassified"`
	GeneratedAt     time.Time `json:"generated_at"`
	GeneratedAtText string    `json:"generated_at_text"`
	Notices         []Notice  `json:"notices"`
}

// TaskFetcher is the part of *fetcher.Fetcher the service uses.
type TaskFetcher interface {
	Fetch(ctx context.Context, n fetcher.Notifier) []asana.Task
	Invalidate(ctx context.Context)
}

// Config configures a Service.
type Config struct {
	Fetcher          TaskFetcher
	Title            string
	ChartHeight      string
	ShowUnclassified bool
	Metrics          *metrics.Recorder
	Logger           *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service renders dashboard views.
type Service struct {
	fetcher          TaskFetcher
	title            string
	chartHeight      string
	showUnclassified bool
	metrics          *metrics.Recorder
	logger           *slog.Logger
	now              func() time.Time
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	s := &Service{
		fetcher:          cfg.Fetcher,
		title:            cfg.Title,
		chartHeight:      cfg.ChartHeight,
		showUnclassified: cfg.ShowUnclassified,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		now:              cfg.Now,
	}
	if s.title == "" {
		s.title = DefaultTitle
	}
	if s.chartHeight == "" {
		s.chartHeight = chart.DefaultHeight
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// noticeCollector gathers fetch failures for one render.
type noticeCollector struct {
	notices []Notice
}

func (c *noticeCollector) Error(msg string) {
	c.notices = append(c.notices, Notice{Level: LevelError, Message: msg})
}

// Render runs the pipeline once. It never fails: fetch errors become
// notices and zero-state charts.
func (s *Service) Render(ctx context.Context) *View {
	start := time.Now()
	generatedAt := s.now()

	collector := &noticeCollector{}
	tasks := s.fetcher.Fetch(ctx, collector)
	if len(tasks) == 0 {
		collector.notices = append(collector.notices, Notice{Level: LevelError, Message: NoDataMessage})
	}

	table := aggregate.Normalize(tasks)
	result := aggregate.Summarize(table)

	var deptOpts []chart.Option
	deptOpts = append(deptOpts, chart.WithHeight(s.chartHeight))
	if result.Unclassified > 0 {
		others := aggregate.UnclassifiedDepartments(table)
		s.logger.Debug("tasks outside known departments",
			"tasks", result.Unclassified,
			"departments", others,
		)
		collector.notices = append(collector.notices, Notice{
			Level:   LevelWarning,
			Message: unclassifiedMessage(result.Unclassified, others),
		})
		if s.showUnclassified {
			deptOpts = append(deptOpts, chart.WithExtraSlice(UnclassifiedLabel, result.Unclassified))
		}
	}

	view := &View{
		Title: s.title,
		Departments: s.chart(DepartmentChartTitle,
			chart.BuildSpec(DepartmentChartTitle, result.Total, result.Departments, deptOpts...)),
		Statuses: s.chart(StatusChartTitle,
			chart.BuildSpec(StatusChartTitle, result.Total, result.Statuses, chart.WithHeight(s.chartHeight))),
		Total:           result.Total,
		Unclassified:    result.Unclassified,
		GeneratedAt:     generatedAt,
		GeneratedAtText: generatedAt.Format(TimestampLayout),
		Notices:         collector.notices,
	}
	if view.Notices == nil {
		view.Notices = []Notice{}
	}

	s.metrics.ObserveRender(time.Since(start), result.Total, result.Unclassified)
	s.logger.Debug("dashboard rendered", "tasks", result.Total, "duration", time.Since(start))
	return view
}

// Refresh drops cached task data so the next Render fetches again.
func (s *Service) Refresh(ctx context.Context) {
	s.fetcher.Invalidate(ctx)
}

func (s *Service) chart(title string, spec chart.Spec) Chart {
	return Chart{Title: title, Height: spec.Height, Options: spec}
}

func unclassifiedMessage(n int, departments []string) string {
	noun := "tasks have departments"
	if n == 1 {
		noun = "task has a department"
	}
	return fmt.Sprintf("%d %s outside the charted set: %s", n, noun, strings.Join(departments, ", "))
}
