package api

import (
	"github.com/spacemeshos/go-janus/message"
	"github.com/spacemeshos/go-janus/server"
	"github.com/spacemeshos/go-janus/synchronizer"
)

//go:generate mockgen -typed -package=api -destination=./mocks.go -source=./interface.go

type syncState interface {
	Now() float64
	Peers() []synchronizer.PeerStats
	Timelines() []synchronizer.TimelineStats
	CachedEntries(id []byte) ([]message.Message, bool)
}

type connState interface {
	Connections() []server.Connection
}
