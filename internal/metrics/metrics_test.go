package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCountersAreIndependentPerInstance(t *testing.T) {
	a, b := New(), New()
	a.SessionsCreated.Inc()
	a.BundleItems.WithLabelValues("skipped").Add(2)

	require.Equal(t, 1.0, testutil.ToFloat64(a.SessionsCreated))
	require.Equal(t, 0.0, testutil.ToFloat64(b.SessionsCreated))
	require.Equal(t, 2.0, testutil.ToFloat64(a.BundleItems.WithLabelValues("skipped")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.QRProviderCalls.WithLabelValues("qrserver", "ok").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `photomaton_qr_provider_calls_total{outcome="ok",provider="qrserver"} 1`)
}

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", Outcome(nil))
	require.Equal(t, "error", Outcome(errors.New("boom")))
}
