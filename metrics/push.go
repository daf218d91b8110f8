package metrics

import (
	"context"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// A wrapper around zap.Logger to make it compatible with
// retryablehttp.LeveledLogger interface.
type retryableHTTPLogger struct {
	inner *zap.Logger
}

func (r retryableHTTPLogger) Error(format string, args ...any) {
	r.inner.Sugar().Errorw(format, args...)
}

func (r retryableHTTPLogger) Info(format string, args ...any) {
	r.inner.Sugar().Infow(format, args...)
}

func (r retryableHTTPLogger) Warn(format string, args ...any) {
	r.inner.Sugar().Warnw(format, args...)
}

func (r retryableHTTPLogger) Debug(format string, args ...any) {
	r.inner.Sugar().Debugw(format, args...)
}

// StartPushingMetrics pushes the default registry to a push gateway at url
// every period until ctx is done. Failed pushes are retried within a period.
func StartPushingMetrics(ctx context.Context, logger *zap.Logger, url string, period time.Duration, instance string) {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = period / 20
	client.RetryWaitMax = period / 5
	client.Backoff = retryablehttp.LinearJitterBackoff
	client.Logger = retryableHTTPLogger{inner: logger}

	pusher := push.New(url, Namespace).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", instance).
		Client(client.StandardClient())
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := pusher.PushContext(ctx); err != nil {
					logger.Warn("failed to push metrics", zap.Error(err))
				}
			}
		}
	}()
}
