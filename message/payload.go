package message

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncated is returned when a payload is shorter than its layout requires.
var ErrTruncated = errors.New("message: truncated payload")

const (
	indexSize = 2
	timeSize  = 8
	// SetHeaderSize is the fixed prefix of every set and relay payload.
	SetHeaderSize = indexSize + timeSize
)

func need(b []byte, n int, what string) error {
	if len(b) < n {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrTruncated, what, n, len(b))
	}
	return nil
}

// ConnectTimelinePayload subscribes the sender's timeline index to a timeline ID.
type ConnectTimelinePayload struct {
	Index uint16
	ID    []byte
}

func (p ConnectTimelinePayload) Encode() []byte {
	b := make([]byte, indexSize+len(p.ID))
	binary.LittleEndian.PutUint16(b, p.Index)
	copy(b[indexSize:], p.ID)
	return b
}

func DecodeConnectTimeline(b []byte) (ConnectTimelinePayload, error) {
	if err := need(b, indexSize, "connect timeline"); err != nil {
		return ConnectTimelinePayload{}, err
	}
	return ConnectTimelinePayload{
		Index: binary.LittleEndian.Uint16(b),
		ID:    append([]byte(nil), b[indexSize:]...),
	}, nil
}

// EncodeIndex encodes a payload that consists of a timeline index only.
func EncodeIndex(index uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, index)
}

// DecodeIndex reads the leading timeline index of a payload.
func DecodeIndex(b []byte) (uint16, error) {
	if err := need(b, indexSize, "timeline index"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// EncodeTime encodes InitializePeer and ClockSyncPing payloads.
func EncodeTime(t float64) []byte {
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(t))
}

func DecodeTime(b []byte) (float64, error) {
	if err := need(b, timeSize, "time"); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// PongPayload answers a ClockSyncPing.
type PongPayload struct {
	PingTime float64
	PongTime float64
}

func (p PongPayload) Encode() []byte {
	b := EncodeTime(p.PingTime)
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(p.PongTime))
}

func DecodePong(b []byte) (PongPayload, error) {
	if err := need(b, 2*timeSize, "clock sync pong"); err != nil {
		return PongPayload{}, err
	}
	return PongPayload{
		PingTime: math.Float64frombits(binary.LittleEndian.Uint64(b)),
		PongTime: math.Float64frombits(binary.LittleEndian.Uint64(b[timeSize:])),
	}, nil
}

// EncodeCorrection encodes a ClockSyncCorrection payload.
func EncodeCorrection(offset float32) []byte {
	return binary.LittleEndian.AppendUint32(nil, math.Float32bits(offset))
}

func DecodeCorrection(b []byte) (float32, error) {
	if err := need(b, 4, "clock sync correction"); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// SetPayload carries one timeline value in set and relay messages.
type SetPayload struct {
	Index uint16
	Time  float64
	Value []byte
}

func (p SetPayload) Encode() []byte {
	b := make([]byte, SetHeaderSize+len(p.Value))
	binary.LittleEndian.PutUint16(b, p.Index)
	binary.LittleEndian.PutUint64(b[indexSize:], math.Float64bits(p.Time))
	copy(b[SetHeaderSize:], p.Value)
	return b
}

// DecodeSet decodes a set payload. Value aliases b.
func DecodeSet(b []byte) (SetPayload, error) {
	if err := need(b, SetHeaderSize, "set"); err != nil {
		return SetPayload{}, err
	}
	return SetPayload{
		Index: binary.LittleEndian.Uint16(b),
		Time:  math.Float64frombits(binary.LittleEndian.Uint64(b[indexSize:])),
		Value: b[SetHeaderSize:],
	}, nil
}

// CacheSizePayload changes the synchronizer cache retention of a timeline.
type CacheSizePayload struct {
	Index uint16
	Size  uint16
}

func (p CacheSizePayload) Encode() []byte {
	b := make([]byte, 2*indexSize)
	binary.LittleEndian.PutUint16(b, p.Index)
	binary.LittleEndian.PutUint16(b[indexSize:], p.Size)
	return b
}

func DecodeCacheSize(b []byte) (CacheSizePayload, error) {
	if err := need(b, 2*indexSize, "cache size"); err != nil {
		return CacheSizePayload{}, err
	}
	return CacheSizePayload{
		Index: binary.LittleEndian.Uint16(b),
		Size:  binary.LittleEndian.Uint16(b[indexSize:]),
	}, nil
}

// WithIndex returns a copy of msg whose leading timeline index is replaced
// and whose type is t. The payload of msg is not modified.
func WithIndex(msg Message, t Type, index uint16) (Message, error) {
	if err := need(msg.Payload, indexSize, "timeline index"); err != nil {
		return Message{}, err
	}
	b := make([]byte, len(msg.Payload))
	copy(b, msg.Payload)
	binary.LittleEndian.PutUint16(b, index)
	return New(t, b, msg.Delivery), nil
}
