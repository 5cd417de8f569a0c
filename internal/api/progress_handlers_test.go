package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/progress-monitor/internal/clock/fake"
	"github.com/JakeFAU/progress-monitor/internal/config"
	"github.com/JakeFAU/progress-monitor/internal/progress"
	"github.com/JakeFAU/progress-monitor/internal/progress/sinks"
	"github.com/JakeFAU/progress-monitor/internal/registry"
)

func newBoard(t *testing.T) *sinks.Board {
	t.Helper()
	clk := fake.New(time.Time{})
	board := sinks.NewBoard(clk)

	running := progress.NewTask("load", 10, progress.WithClock(clk))
	running.Start()
	running.Update(3)
	require.NoError(t, board.Sink("etl.load").NotifyEvent("3/9", progress.Event{Task: running}))

	done := progress.NewTask("extract", 2, progress.WithClock(clk))
	done.Start()
	done.Update(1)
	done.Close(true)
	require.NoError(t, board.Sink("etl.extract").NotifyEvent("1/1", progress.Event{Task: done}))
	return board
}

func newResolver(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Configure(config.Config{
		Version: config.SupportedVersion,
		Monitors: map[string]map[string]any{
			"etl":      {"rule_factory": "$by_span", "span": 10},
			"etl.load": {"format_str": "{$task} {$iteration}"},
		},
	}))
	return reg
}

func withNameParam(req *http.Request, name string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", name)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestProgressHandlerListMonitors(t *testing.T) {
	t.Parallel()

	handler := NewProgressHandler(newBoard(t), nil, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/monitors", nil)
	rec := httptest.NewRecorder()

	handler.ListMonitors(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Monitors []sinks.Entry `json:"monitors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Monitors, 2)
	require.Equal(t, "etl.extract", body.Monitors[0].Monitor)
	require.Equal(t, "etl.load", body.Monitors[1].Monitor)
}

func TestProgressHandlerListMonitorsFilters(t *testing.T) {
	t.Parallel()

	handler := NewProgressHandler(newBoard(t), nil, zap.NewNop())
	tests := []struct {
		query string
		code  int
		count int
	}{
		{query: "?state=running", code: http.StatusOK, count: 1},
		{query: "?state=done", code: http.StatusOK, count: 1},
		{query: "?state=aborted", code: http.StatusOK, count: 0},
		{query: "?limit=1", code: http.StatusOK, count: 1},
		{query: "?offset=5", code: http.StatusOK, count: 0},
		{query: "?state=sleepy", code: http.StatusBadRequest},
		{query: "?limit=-1", code: http.StatusBadRequest},
		{query: "?offset=x", code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/monitors"+tt.query, nil)
		rec := httptest.NewRecorder()
		handler.ListMonitors(rec, req)

		require.Equal(t, tt.code, rec.Code, tt.query)
		if tt.code != http.StatusOK {
			continue
		}
		var body struct {
			Monitors []sinks.Entry `json:"monitors"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Monitors, tt.count, tt.query)
	}
}

func TestProgressHandlerGetMonitor(t *testing.T) {
	t.Parallel()

	handler := NewProgressHandler(newBoard(t), nil, zap.NewNop())
	req := withNameParam(httptest.NewRequest(http.MethodGet, "/v1/monitors/ETL.Load", nil), "ETL.Load")
	rec := httptest.NewRecorder()

	handler.GetMonitor(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Monitor sinks.Entry `json:"monitor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "3/9", body.Monitor.Text)
	require.Equal(t, 3, body.Monitor.Progress)
	require.Equal(t, "RUNNING", body.Monitor.State)
	require.False(t, body.Monitor.Final)
}

func TestProgressHandlerGetMonitorNotFound(t *testing.T) {
	t.Parallel()

	handler := NewProgressHandler(newBoard(t), nil, zap.NewNop())
	req := withNameParam(httptest.NewRequest(http.MethodGet, "/v1/monitors/nope", nil), "nope")
	rec := httptest.NewRecorder()

	handler.GetMonitor(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgressHandlerUnavailable(t *testing.T) {
	t.Parallel()

	handler := NewProgressHandler(nil, nil, nil)
	rec := httptest.NewRecorder()
	handler.ListMonitors(rec, httptest.NewRequest(http.MethodGet, "/v1/monitors", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	handler.GetOptions(rec, withNameParam(httptest.NewRequest(http.MethodGet, "/", nil), "etl"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProgressHandlerGetOptions(t *testing.T) {
	t.Parallel()

	handler := NewProgressHandler(nil, newResolver(t), zap.NewNop())
	req := withNameParam(httptest.NewRequest(http.MethodGet, "/v1/monitors/etl.load/options", nil), "etl.load")
	rec := httptest.NewRecorder()

	handler.GetOptions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Monitor string                  `json:"monitor"`
		Options registry.MonitorOptions `json:"options"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "etl.load", body.Monitor)
	require.Equal(t, "$by_span", body.Options.RuleFactory)
	require.NotNil(t, body.Options.Span)
	require.Equal(t, 10, *body.Options.Span)
	require.Equal(t, "{$task} {$iteration}", body.Options.FormatStr)
}

func TestProgressHandlerGetOptionsUnknown(t *testing.T) {
	t.Parallel()

	handler := NewProgressHandler(nil, newResolver(t), zap.NewNop())
	req := withNameParam(httptest.NewRequest(http.MethodGet, "/v1/monitors/ingest/options", nil), "ingest")
	rec := httptest.NewRecorder()

	handler.GetOptions(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
