package dashboard

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dsrs-analytics/taskdash/internal/asana"
	"github.com/dsrs-analytics/taskdash/internal/fetcher"
	"github.com/dsrs-analytics/taskdash/internal/metrics"
)

// stubFetcher returns fixed tasks, or reports failMsg and returns nothing.
type stubFetcher struct {
	tasks       []asana.Task
	failMsg     string
	invalidated int
}

func (f *stubFetcher) Fetch(ctx context.Context, n fetcher.Notifier) []asana.Task {
	if f.failMsg != "" {
		n.Error(f.failMsg)
		return []asana.Task{}
	}
	return f.tasks
}

func (f *stubFetcher) Invalidate(ctx context.Context) {
	f.invalidated++
}

func dept(s string) []asana.CustomField {
	return []asana.CustomField{{Name: "Department", DisplayValue: &s}}
}

func fourTasks() []asana.Task {
	return []asana.Task{
		{GID: "1", Name: "a", Completed: false, CustomFields: dept("ACCY")},
		{GID: "2", Name: "b", Completed: true, CustomFields: dept("FIN")},
		{GID: "3", Name: "c", Completed: true},
		{GID: "4", Name: "d", Completed: false, CustomFields: dept("EXTERNAL")},
	}
}

var fixedNow = time.Date(2026, 3, 2, 9, 5, 7, 0, time.UTC)

func newTestService(f TaskFetcher, show bool, rec *metrics.Recorder) *Service {
	return NewService(Config{
		Fetcher:          f,
		ShowUnclassified: show,
		Metrics:          rec,
		Now:              func() time.Time { return fixedNow },
	})
}

func TestRender_FourTasks(t *testing.T) {
	svc := newTestService(&stubFetcher{tasks: fourTasks()}, false, nil)

	view := svc.Render(context.Background())

	assert.Equal(t, DefaultTitle, view.Title)
	assert.Equal(t, 4, view.Total)
	assert.Equal(t, 0, view.Unclassified)
	assert.Empty(t, view.Notices)
	assert.NotNil(t, view.Notices)
	assert.Equal(t, fixedNow, view.GeneratedAt)
	assert.Equal(t, "2026-03-02 09:05:07", view.GeneratedAtText)

	assert.Equal(t, DepartmentChartTitle, view.Departments.Title)
	assert.Equal(t, "400px", view.Departments.Height)
	assert.Equal(t, DepartmentChartTitle, view.Departments.Options.Title.Text)
	assert.Equal(t, "Total Tasks: 4", view.Departments.Options.Title.Subtext)
	assert.Len(t, view.Departments.Options.Series[0].Data, 6)

	assert.Equal(t, StatusChartTitle, view.Statuses.Options.Title.Text)
	data := view.Statuses.Options.Series[0].Data
	require.Len(t, data, 2)
	assert.Equal(t, "Incomplete", data[0].Name)
	assert.Equal(t, 2, data[0].Value)
	assert.Equal(t, "Complete", data[1].Name)
	assert.Equal(t, 2, data[1].Value)
}

func TestRender_FetchFailure(t *testing.T) {
	svc := newTestService(&stubFetcher{failMsg: "Failed to fetch tasks from Asana: boom"}, false, nil)

	view := svc.Render(context.Background())

	assert.Equal(t, 0, view.Total)
	assert.Equal(t, []Notice{
		{Level: LevelError, Message: "Failed to fetch tasks from Asana: boom"},
		{Level: LevelError, Message: NoDataMessage},
	}, view.Notices)
	assert.Equal(t, "2026-03-02 09:05:07", view.GeneratedAtText)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Equal(t, "[]", gjson.GetBytes(raw, "departments.options.series.0.data").Raw)
	assert.Equal(t, "[]", gjson.GetBytes(raw, "statuses.options.series.0.data").Raw)
	assert.Equal(t, "Total Tasks: 0", gjson.GetBytes(raw, "statuses.options.title.subtext").String())
}

func TestRender_EmptyProject(t *testing.T) {
	svc := newTestService(&stubFetcher{tasks: []asana.Task{}}, false, nil)

	view := svc.Render(context.Background())

	assert.Equal(t, []Notice{{Level: LevelError, Message: NoDataMessage}}, view.Notices)
	assert.Empty(t, view.Departments.Options.Series[0].Data)
}

func TestRender_Unclassified(t *testing.T) {
	tasks := append(fourTasks(), asana.Task{GID: "5", Name: "e", CustomFields: dept("Marketing")})

	t.Run("caption only by default", func(t *testing.T) {
		view := newTestService(&stubFetcher{tasks: tasks}, false, nil).Render(context.Background())

		assert.Equal(t, 5, view.Total)
		assert.Equal(t, 1, view.Unclassified)
		assert.Len(t, view.Departments.Options.Series[0].Data, 6)
		require.Len(t, view.Notices, 1)
		assert.Equal(t, LevelWarning, view.Notices[0].Level)
		assert.Equal(t, "1 task has a department outside the charted set: Marketing", view.Notices[0].Message)
	})

	t.Run("extra slice when enabled", func(t *testing.T) {
		view := newTestService(&stubFetcher{tasks: tasks}, true, nil).Render(context.Background())

		data := view.Departments.Options.Series[0].Data
		require.Len(t, data, 7)
		assert.Equal(t, UnclassifiedLabel, data[6].Name)
		assert.Equal(t, 1, data[6].Value)
		assert.Len(t, view.Statuses.Options.Series[0].Data, 2)
	})
}

func TestRender_CustomTitleAndHeight(t *testing.T) {
	svc := NewService(Config{
		Fetcher:     &stubFetcher{tasks: fourTasks()},
		Title:       "Ops",
		ChartHeight: "300px",
	})

	view := svc.Render(context.Background())
	assert.Equal(t, "Ops", view.Title)
	assert.Equal(t, "300px", view.Departments.Height)
	assert.Equal(t, "300px", view.Statuses.Height)
}

func TestRender_Metrics(t *testing.T) {
	rec := metrics.New(prometheus.NewRegistry())
	svc := newTestService(&stubFetcher{tasks: fourTasks()}, false, rec)

	svc.Render(context.Background())

	assert.Equal(t, 4.0, testutil.ToFloat64(rec.LastRenderTasks))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.LastUnclassified))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.RenderDuration))
}

func TestRefresh(t *testing.T) {
	f := &stubFetcher{}
	svc := newTestService(f, false, nil)

	svc.Refresh(context.Background())
	assert.Equal(t, 1, f.invalidated)
}
