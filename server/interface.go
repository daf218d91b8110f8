package server

import "github.com/spacemeshos/go-janus/message"

//go:generate mockgen -typed -package=server -destination=./mocks.go -source=./interface.go

// relay is the synchronizer side of the server.
type relay interface {
	ConnectPeer(index uint16, rtt float64)
	DisconnectPeer(index uint16)
	ProcessIncomingMessage(index uint16, msg message.Message)
	GetOutgoingMessages(index uint16) []message.Message
	StepElapsed()
}
