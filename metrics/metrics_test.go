package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-janus/log/logtest"
)

var testCounter = NewCounter("test_events", "metrics", "Events counted by tests", []string{"kind"})

func TestNewCounter(t *testing.T) {
	testCounter.WithLabelValues("a").Add(2)
	require.Equal(t, 2.0, testutil.ToFloat64(testCounter.WithLabelValues("a")))
	require.NoError(t, testutil.CollectAndCompare(testCounter, strings.NewReader(`
# HELP janus_metrics_test_events Events counted by tests
# TYPE janus_metrics_test_events counter
janus_metrics_test_events{kind="a"} 2
`)))
}

func TestHandler(t *testing.T) {
	testCounter.WithLabelValues("served").Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `janus_metrics_test_events{kind="served"} 1`)
}

func TestStartMetricsServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartMetricsServer(ctx, logtest.New(t), "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "server did not stop")
	}
}

func TestStartPushingMetrics(t *testing.T) {
	var pushes atomic.Int32
	var failed atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/job/janus/instance/test") {
			body, _ := io.ReadAll(r.Body)
			if len(body) > 0 {
				pushes.Add(1)
			}
		} else {
			failed.Store(true)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	StartPushingMetrics(ctx, logtest.New(t), srv.URL, 10*time.Millisecond, "test")
	require.Eventually(t, func() bool {
		return pushes.Load() >= 2
	}, 5*time.Second, 10*time.Millisecond)
	require.False(t, failed.Load())
}
