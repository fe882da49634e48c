package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/report"
	pkgserver "github.com/DjordjeVuckovic/fineregr/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAggregator struct {
	rows  []aggregate.PlotRow
	err   error
	calls int
}

func (f *fakeAggregator) Aggregate(context.Context) ([]aggregate.PlotRow, error) {
	f.calls++
	out := make([]aggregate.PlotRow, len(f.rows))
	copy(out, f.rows)
	return out, f.err
}

type unhealthy struct{}

func (unhealthy) Healthy(context.Context) bool { return false }

func ptr(f float64) *float64 { return &f }

func newTestServer(t *testing.T, agg Aggregator, hc pkgserver.HealthChecker) *Server {
	t.Helper()
	cfg, err := LoadConfig("8080")
	require.NoError(t, err)
	s := New(cfg, hc).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health").
		SetupOpenApi("/swagger/*")
	t.Cleanup(s.stop)
	NewResultsRouter(s.Echo, agg, "demo").Bind()
	return s
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func sampleAggregator() *fakeAggregator {
	return &fakeAggregator{rows: []aggregate.PlotRow{
		{GitSHA: "bbb", GitDate: "2024-01-02 00:00:00 +0000", Command: "sleep 0.1", Time: ptr(0.11)},
		{GitSHA: "aaa", GitDate: "2024-01-01 00:00:00 +0000", Command: "sleep 0.1", Time: ptr(0.10)},
		{GitSHA: "aaa", GitDate: "2024-01-01 00:00:00 +0000", Command: "false"},
	}}
}

func TestRows(t *testing.T) {
	agg := sampleAggregator()
	s := newTestServer(t, agg, pkgserver.NewOkHealthChecker())

	t.Run("all rows sorted", func(t *testing.T) {
		rec := get(s, "/api/rows")
		require.Equal(t, http.StatusOK, rec.Code)

		var rows []aggregate.PlotRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 3)
		assert.Equal(t, "false", rows[0].Command)
		assert.Nil(t, rows[0].Time)
		assert.Equal(t, "aaa", rows[1].GitSHA)
	})

	t.Run("command filter", func(t *testing.T) {
		rec := get(s, "/api/rows?command=sleep+0.1")
		require.Equal(t, http.StatusOK, rec.Code)

		var rows []aggregate.PlotRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		assert.Len(t, rows, 2)
	})

	t.Run("unknown command gives empty array", func(t *testing.T) {
		rec := get(s, "/api/rows?command=nope")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("empty command is rejected", func(t *testing.T) {
		rec := get(s, "/api/rows?command=")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "validation error")
	})

	t.Run("aggregation failure", func(t *testing.T) {
		s := newTestServer(t, &fakeAggregator{err: errors.New("git missing")}, pkgserver.NewOkHealthChecker())
		rec := get(s, "/api/rows")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "git missing")
	})
}

func TestBenchmarks(t *testing.T) {
	s := newTestServer(t, sampleAggregator(), pkgserver.NewOkHealthChecker())

	rec := get(s, "/api/benchmarks")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Len(t, rep.Benchmarks, 2)
	assert.Equal(t, "false", rep.Benchmarks[0].Command)
	assert.Equal(t, 1, rep.Benchmarks[0].Failures)
	assert.Equal(t, 2, rep.Benchmarks[1].Revisions)
}

func TestChart(t *testing.T) {
	agg := sampleAggregator()
	s := newTestServer(t, agg, pkgserver.NewOkHealthChecker())

	rec := get(s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "vegaEmbed(")

	get(s, "/")
	assert.Equal(t, 2, agg.calls, "every request aggregates afresh")
}

func TestHealth(t *testing.T) {
	rec := get(newTestServer(t, sampleAggregator(), pkgserver.NewOkHealthChecker()), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(newTestServer(t, sampleAggregator(), unhealthy{}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSwagger(t *testing.T) {
	rec := get(newTestServer(t, sampleAggregator(), pkgserver.NewOkHealthChecker()), "/swagger/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/rows")
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://a, ,http://b")
	t.Setenv("USE_HTTP2", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.UseHttp2)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.CorsOrigins)

	_, err = LoadConfig("http")
	assert.Error(t, err)
	_, err = LoadConfig("0")
	assert.Error(t, err)
}
