package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CountsAndExposes(t *testing.T) {
	r := NewRegistry()

	r.Requests.WithLabelValues("invoke_order_creation", "200").Inc()
	r.AuthExchanges.WithLabelValues("ok").Inc()
	r.ForwardAttempts.WithLabelValues("transport_error").Add(2)
	r.ForwardLatency.Observe(0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ForwardAttempts.WithLabelValues("transport_error")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `payloadbridge_requests_total{route="invoke_order_creation",status="200"} 1`)
	assert.Contains(t, string(body), "payloadbridge_forward_latency_seconds_count 1")
}
