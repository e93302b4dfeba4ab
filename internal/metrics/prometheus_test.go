package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveSyncStage(t *testing.T) {
	m := New()
	m.ObserveSyncStage("orders", 3, nil, time.Second)
	m.ObserveSyncStage("orders", 0, errors.New("boom"), time.Second)

	require.Equal(t, 1.0, testutil.ToFloat64(m.SyncRuns.WithLabelValues("orders", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SyncRuns.WithLabelValues("orders", "error")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.SyncRecords.WithLabelValues("orders")))
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.ObserveCache("stats", true)
	require.Equal(t, 1.0, testutil.ToFloat64(a.CacheHits.WithLabelValues("stats")))
	require.Equal(t, 0.0, testutil.ToFloat64(b.CacheHits.WithLabelValues("stats")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/stats", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `insights_http_requests_total{method="GET",route="/api/stats",status="200"} 1`)
}
