package api

import (
	httpmetrics "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmw "github.com/slok/go-http-metrics/middleware"

	"github.com/spacemeshos/go-janus/metrics"
)

const subsystem = "api"

var (
	requests = metrics.NewCounter(
		"requests",
		subsystem,
		"HTTP requests, by route and status",
		[]string{"route", "status"},
	)

	// measured records latency and response size per route.
	measured = httpmw.New(httpmw.Config{
		Recorder: httpmetrics.NewRecorder(httpmetrics.Config{
			Prefix: metrics.Namespace + "_" + subsystem,
		}),
	})
)
