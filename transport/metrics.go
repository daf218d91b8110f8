package transport

import "github.com/spacemeshos/go-janus/metrics"

const subsystem = "transport"

var (
	sentFrames = metrics.NewCounter(
		"sent_frames",
		subsystem,
		"Frames sent, by network",
		[]string{"network"},
	)
	sentBytes = metrics.NewCounter(
		"sent_bytes",
		subsystem,
		"Frame bytes sent, by network",
		[]string{"network"},
	)
	receivedFrames = metrics.NewCounter(
		"received_frames",
		subsystem,
		"Frames received, by network",
		[]string{"network"},
	)
	receivedBytes = metrics.NewCounter(
		"received_bytes",
		subsystem,
		"Frame bytes received, by network",
		[]string{"network"},
	)
	oversizeFrames = metrics.NewCounter(
		"oversize_frames",
		subsystem,
		"Frames rejected for exceeding the maximum message size",
		[]string{"network"},
	)
)
