package mirrors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMirror(t *testing.T, delay time.Duration, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PipedCheckPath, r.URL.Path)
		time.Sleep(delay)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRank(t *testing.T) {
	slow := newMirror(t, 150*time.Millisecond, http.StatusOK)
	fast := newMirror(t, 0, http.StatusOK)
	broken := newMirror(t, 0, http.StatusServiceUnavailable)

	ranker := NewRanker(2*time.Second, 4)
	ranked, err := ranker.Rank(context.Background(), []string{slow.URL, broken.URL, fast.URL}, PipedCheckPath)
	require.NoError(t, err)

	assert.Equal(t, []string{fast.URL, slow.URL}, ranked)
}

func TestRank_NoneReachable(t *testing.T) {
	broken := newMirror(t, 0, http.StatusInternalServerError)

	ranker := NewRanker(time.Second, 0)
	_, err := ranker.Rank(context.Background(), []string{broken.URL, "http://127.0.0.1:1"}, PipedCheckPath)
	assert.Error(t, err)
}

func TestMeasure_KeepsOrder(t *testing.T) {
	a := newMirror(t, 50*time.Millisecond, http.StatusOK)
	b := newMirror(t, 0, http.StatusOK)

	results := NewRanker(time.Second, 2).Measure(context.Background(), []string{a.URL, b.URL}, PipedCheckPath)
	require.Len(t, results, 2)
	assert.Equal(t, a.URL, results[0].Domain)
	assert.Equal(t, b.URL, results[1].Domain)
	assert.NoError(t, results[0].Err)
	assert.Greater(t, results[0].Latency, results[1].Latency)
}
