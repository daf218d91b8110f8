package timeline

import "github.com/spacemeshos/go-janus/metrics"

const subsystem = "timeline"

const (
	reasonDecode       = "decode"
	reasonUnknownIndex = "unknown_index"
	reasonUnexpected   = "unexpected_type"
	reasonValue        = "value"
)

var (
	processedMessages = metrics.NewCounter(
		"processed_messages",
		subsystem,
		"Messages received by the manager, by type",
		[]string{"type"},
	)
	droppedMessages = metrics.NewCounter(
		"dropped_messages",
		subsystem,
		"Messages dropped by the manager, by reason",
		[]string{"reason"},
	)
	clockGauge = metrics.NewGauge(
		"clock_offset",
		subsystem,
		"Clock correction applied and targeted, in seconds",
		[]string{"kind"},
	)
	clockOffset = clockGauge.WithLabelValues("applied")
	clockTarget = clockGauge.WithLabelValues("target")
)
