package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAction("Use", ResultOK)
	m.ObserveLowStockAlert()
	m.ObserveExpiryAlert("7-Day Expiry Warning")
	m.ObserveExport("CSV", "Success")

	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	m.Middleware(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveAction("Check Out", ResultOK)
	m.ObserveAction("Check Out", ResultOK)
	m.ObserveAction("Use", ResultNotFound)
	m.ObserveLowStockAlert()
	m.ObserveExpiryAlert("15-Day Expiry Warning")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Actions.WithLabelValues("Check Out", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("Use", ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LowStockAlerts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExpiryAlerts.WithLabelValues("15-Day Expiry Warning")))
}

func TestHandlerAndMiddleware(t *testing.T) {
	m := New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(m.Middleware(mux))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/items/7")
	require.NoError(t, err)
	resp.Body.Close()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(string(body), `qmedic_http_request_duration_seconds_count{code="404",route="GET /api/items/{id}"} 1`),
		"expected request histogram in output:\n%s", body)
}
