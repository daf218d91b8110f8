package server

import "github.com/spacemeshos/go-janus/metrics"

const subsystem = "server"

var (
	connectionsGauge = metrics.NewGauge(
		"connections",
		subsystem,
		"Open peer connections",
		[]string{},
	).WithLabelValues()
	rejectedConnections = metrics.NewCounter(
		"rejected_connections",
		subsystem,
		"Connections closed because the server was full",
		[]string{},
	).WithLabelValues()
	sendErrors = metrics.NewCounter(
		"send_errors",
		subsystem,
		"Failed sends that closed a connection",
		[]string{},
	).WithLabelValues()
)
