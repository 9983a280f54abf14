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

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.FailoverAdvanced("stream")
	m.FailoverAdvanced("stream")
	m.DomainsRefreshed("metadata", false)
	m.TrackEnqueued("related")
	m.URLRepaired()
	m.SetQueueState(4, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FailoverAdvances.WithLabelValues("stream")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DomainRefreshes.WithLabelValues("metadata", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TracksEnqueued.WithLabelValues("related")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.URLRepairs))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.QueueLength))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PlayedTracks))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("stream", "streams", "200", 0.1)
		m.FailoverAdvanced("stream")
		m.DomainsRefreshed("stream", true)
		m.TrackEnqueued("input")
		m.FilterRejected("genre_mismatch")
		m.URLRepaired()
		m.SetQueueState(1, 1)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest("stream", "streams", "200", 0.05)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "relaytune_backend_requests_total")
}
