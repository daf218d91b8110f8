package synchronizer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-janus/metrics"
)

const subsystem = "synchronizer"

var (
	processedMessages = metrics.NewCounter(
		"processed_messages",
		subsystem,
		"Messages handled by the synchronizer, by type",
		[]string{"type"},
	)
	droppedMessages = metrics.NewCounter(
		"dropped_messages",
		subsystem,
		"Messages dropped by the synchronizer, by reason",
		[]string{"reason"},
	)
	relayedMessages = metrics.NewCounter(
		"relayed_messages",
		subsystem,
		"Set messages fanned out to subscribers",
		[]string{},
	).WithLabelValues()
	pingRounds = metrics.NewCounter(
		"ping_rounds",
		subsystem,
		"Completed clock sync ping rounds",
		[]string{},
	).WithLabelValues()
	peersGauge = metrics.NewGauge(
		"peers",
		subsystem,
		"Connected peers",
		[]string{},
	).WithLabelValues()
	timelinesGauge = metrics.NewGauge(
		"timelines",
		subsystem,
		"Timelines with at least one subscriber",
		[]string{},
	).WithLabelValues()
	rttHistogram = metrics.NewHistogramWithBuckets(
		"rtt_seconds",
		subsystem,
		"Round trip time measured by clock sync",
		[]string{},
		prometheus.ExponentialBuckets(0.001, 2, 14),
	).WithLabelValues()
)
