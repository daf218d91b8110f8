// Package message defines the wire message model shared by the timeline
// manager and the synchronizer.
package message

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Type tags the payload layout of a Message.
type Type byte

const (
	managerBase Type = 224

	InitializePeer      Type = managerBase + 1
	ClockSyncPing       Type = managerBase + 2
	ClockSyncCorrection Type = managerBase + 3
	SetAbsolute         Type = managerBase + 4
	SetRelative         Type = managerBase + 5
	SetImmediate        Type = managerBase + 6
	SetCachedAbsolute   Type = managerBase + 7
	SetCachedRelative   Type = managerBase + 8
	SetCachedImmediate  Type = managerBase + 9

	syncerBase Type = 240

	ConnectTimeline    Type = syncerBase + 1
	DisconnectTimeline Type = syncerBase + 2
	ClockSyncPong      Type = syncerBase + 3
	RelayAbsolute      Type = syncerBase + 4
	RelayRelative      Type = syncerBase + 5
	RelayImmediate     Type = syncerBase + 6
	CacheSize          Type = syncerBase + 7
)

var typeNames = map[Type]string{
	InitializePeer:      "initialize-peer",
	ClockSyncPing:       "clock-sync-ping",
	ClockSyncCorrection: "clock-sync-correction",
	SetAbsolute:         "set-absolute",
	SetRelative:         "set-relative",
	SetImmediate:        "set-immediate",
	SetCachedAbsolute:   "set-cached-absolute",
	SetCachedRelative:   "set-cached-relative",
	SetCachedImmediate:  "set-cached-immediate",
	ConnectTimeline:     "connect-timeline",
	DisconnectTimeline:  "disconnect-timeline",
	ClockSyncPong:       "clock-sync-pong",
	RelayAbsolute:       "relay-absolute",
	RelayRelative:       "relay-relative",
	RelayImmediate:      "relay-immediate",
	CacheSize:           "cache-size",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", byte(t))
}

// Known reports whether t is one of the defined message types.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// IsRelay reports whether t is sent by a peer for fan-out by the synchronizer.
func (t Type) IsRelay() bool {
	return t == RelayAbsolute || t == RelayRelative || t == RelayImmediate
}

// SetType maps a relay type onto the type delivered to other subscribers.
func (t Type) SetType() (Type, bool) {
	switch t {
	case RelayAbsolute:
		return SetAbsolute, true
	case RelayRelative:
		return SetRelative, true
	case RelayImmediate:
		return SetImmediate, true
	}
	return 0, false
}

// CachedType maps a relay type onto the type used when replaying it from cache.
func (t Type) CachedType() (Type, bool) {
	switch t {
	case RelayAbsolute:
		return SetCachedAbsolute, true
	case RelayRelative:
		return SetCachedRelative, true
	case RelayImmediate:
		return SetCachedImmediate, true
	}
	return 0, false
}

// DeliveryMode selects the transport channel a message travels on.
type DeliveryMode byte

const (
	Unreliable DeliveryMode = iota
	ReliableUnordered
	Sequenced
	ReliableOrdered
)

// DefaultDeliveryMode is used by timelines unless configured otherwise.
const DefaultDeliveryMode = ReliableOrdered

func (d DeliveryMode) String() string {
	switch d {
	case Unreliable:
		return "unreliable"
	case ReliableUnordered:
		return "reliable-unordered"
	case Sequenced:
		return "sequenced"
	case ReliableOrdered:
		return "reliable-ordered"
	}
	return fmt.Sprintf("unknown(%d)", byte(d))
}

// Reliable reports whether messages of this mode must not be lost.
func (d DeliveryMode) Reliable() bool {
	return d == ReliableUnordered || d == ReliableOrdered
}

// Message is an immutable (type, payload, delivery mode) envelope.
type Message struct {
	Type     Type
	Payload  []byte
	Delivery DeliveryMode
}

func New(t Type, payload []byte, delivery DeliveryMode) Message {
	return Message{Type: t, Payload: payload, Delivery: delivery}
}

// Size is the number of bytes the message occupies in a frame.
func (m Message) Size() int {
	return 1 + len(m.Payload)
}

func (m Message) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", m.Type.String())
	enc.AddInt("size", len(m.Payload))
	enc.AddString("delivery", m.Delivery.String())
	return nil
}
