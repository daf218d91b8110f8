package client

import "github.com/spacemeshos/go-janus/message"

//go:generate mockgen -typed -package=client -destination=./mocks.go -source=./interface.go

// manager is the timeline side of the client.
type manager interface {
	ProcessIncomingMessage(msg message.Message)
	GetOutgoingMessages() []message.Message
	StepElapsed()
}
