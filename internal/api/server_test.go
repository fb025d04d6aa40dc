package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dsrs-analytics/taskdash/internal/asana"
	"github.com/dsrs-analytics/taskdash/internal/dashboard"
	dasherrors "github.com/dsrs-analytics/taskdash/internal/errors"
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

func (f *stubFetcher) Invalidate(ctx context.Context) { f.invalidated++ }

type stubChecker struct {
	name string
	err  error
}

func (c stubChecker) CheckAuth(ctx context.Context) (string, error) { return c.name, c.err }

type panicRenderer struct{}

func (panicRenderer) Render(ctx context.Context) *dashboard.View { panic("boom") }
func (panicRenderer) Refresh(ctx context.Context)                {}

func dept(s string) []asana.CustomField {
	return []asana.CustomField{{Name: "Department", DisplayValue: &s}}
}

func fourTasks() []asana.Task {
	return []asana.Task{
		{GID: "1", Name: "a", CustomFields: dept("ACCY")},
		{GID: "2", Name: "b", Completed: true, CustomFields: dept("FIN")},
		{GID: "3", Name: "c", Completed: true},
		{GID: "4", Name: "d", CustomFields: dept("EXTERNAL")},
	}
}

func newTestServer(t *testing.T, f *stubFetcher, checker AuthChecker) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := dashboard.NewService(dashboard.Config{
		Fetcher: f,
		Metrics: metrics.New(reg),
		Now:     func() time.Time { return time.Date(2026, 3, 2, 9, 5, 7, 0, time.Local) },
	})
	return New(Config{Dashboard: svc, Checker: checker, Gatherer: reg}), reg
}

func get(t *testing.T, s *Server, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{}, nil)

	rec := get(t, s, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndex_RendersCharts(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{tasks: fourTasks()}, nil)

	rec := get(t, s, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>DSRS Tasks Dashboard</title>")
	assert.Contains(t, body, "Data last fetched at: 2026-03-02 09:05:07")
	assert.Contains(t, body, "Task by Department")
	assert.Contains(t, body, "Task Completion status")
	assert.Contains(t, body, "Total Tasks: 4")
	assert.Contains(t, body, `id="chart-departments"`)
	assert.Contains(t, body, "height: 400px")
	assert.NotContains(t, body, "notice-error")
}

func TestIndex_FetchFailureStillRenders(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{failMsg: "Failed to fetch tasks from Asana: <denied>"}, nil)

	rec := get(t, s, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "notice-error")
	assert.Contains(t, body, "No data fetched from Asana.")
	assert.Contains(t, body, "&lt;denied&gt;", "notice text is escaped")
	assert.Contains(t, body, "Total Tasks: 0")
	assert.Contains(t, body, "Data last fetched at: 2026-03-02 09:05:07")
}

func TestDashboardJSON(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{tasks: fourTasks()}, nil)

	rec := get(t, s, "/api/dashboard")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Equal(t, int64(4), gjson.Get(body, "total").Int())
	assert.Equal(t, "2026-03-02 09:05:07", gjson.Get(body, "generated_at_text").String())
	assert.Equal(t, int64(6), gjson.Get(body, "departments.options.series.0.data.#").Int())
	assert.Equal(t, "External", gjson.Get(body, "departments.options.series.0.data.4.name").String())
	assert.Equal(t, "400px", gjson.Get(body, "statuses.height").String())
	assert.Equal(t, "[]", gjson.Get(body, "notices").Raw)
}

func TestDashboardJSON_Refresh(t *testing.T) {
	f := &stubFetcher{tasks: fourTasks()}
	s, _ := newTestServer(t, f, nil)

	assert.Equal(t, http.StatusOK, get(t, s, "/api/dashboard").Code)
	assert.Equal(t, 0, f.invalidated)

	assert.Equal(t, http.StatusOK, get(t, s, "/api/dashboard?refresh=1").Code)
	assert.Equal(t, 1, f.invalidated)

	assert.Equal(t, http.StatusOK, get(t, s, "/?refresh=true").Code)
	assert.Equal(t, 2, f.invalidated)

	rec := get(t, s, "/api/dashboard?refresh=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, f.invalidated)
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{}, nil)

	rec := get(t, s, "/api/health")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	rec = get(t, s, "/api/health", RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{tasks: fourTasks()}, nil)
	get(t, s, "/")

	rec := get(t, s, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskdash_last_render_tasks 4")
	assert.Contains(t, rec.Body.String(), "taskdash_render_duration_seconds_count 1")
}

func TestAsanaCheck(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s, _ := newTestServer(t, &stubFetcher{}, nil)
		assert.Equal(t, http.StatusNotFound, get(t, s, "/api/asana/check").Code)
	})

	t.Run("ok", func(t *testing.T) {
		s, _ := newTestServer(t, &stubFetcher{}, stubChecker{name: "Pat"})
		rec := get(t, s, "/api/asana/check")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","user":"Pat"}`, rec.Body.String())
	})

	t.Run("rejected", func(t *testing.T) {
		s, _ := newTestServer(t, &stubFetcher{}, stubChecker{err: dasherrors.ErrUnauthorized("Not Authorized")})
		rec := get(t, s, "/api/asana/check")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(dasherrors.CodeUnauthorized), body.Code)
		assert.Equal(t, "Not Authorized", body.Why)
	})
}

func TestNotFound(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{}, nil)

	rec := get(t, s, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRecoverer(t *testing.T) {
	s := New(Config{Dashboard: panicRenderer{}, Gatherer: prometheus.NewRegistry()})

	rec := get(t, s, "/api/dashboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{tasks: fourTasks()}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "ok"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("server did not shut down")
	}
}

func TestStartContext_BadAddr(t *testing.T) {
	s := New(Config{Addr: "256.0.0.1:99999", Dashboard: panicRenderer{}, Gatherer: prometheus.NewRegistry()})
	err := s.StartContext(context.Background())
	assert.Error(t, err)
}

func TestServe_ListenerFailureReturnsWithoutCancel(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background(), ln) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("Serve did not return after the listener failed")
	}
}
