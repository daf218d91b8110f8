// Package transport carries messages between the synchronizer and its peers.
// Each frame is the message type byte followed by the payload. The delivery
// class is chosen by the sender and reconstructed by the receiving side from
// the channel the frame arrived on.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/spacemeshos/go-janus/message"
)

var (
	// ErrEmptyFrame is returned for a frame without a type byte.
	ErrEmptyFrame = errors.New("transport: empty frame")
	// ErrClosed is returned by operations on a closed connection or listener.
	ErrClosed = errors.New("transport: closed")
	// ErrUnknownNetwork is returned for a Network other than tcp or quic.
	ErrUnknownNetwork = errors.New("transport: unknown network")
)

// Network selects the protocol a listener or connection uses.
type Network string

const (
	TCP  Network = "tcp"
	QUIC Network = "quic"
)

// Config describes how connections are established and limited.
type Config struct {
	Network Network `mapstructure:"network"`
	// MaxMessageSize bounds a single frame. Larger frames close the connection.
	MaxMessageSize int `mapstructure:"max-message-size"`
	// ReceiveRate is the number of frames per second accepted from one
	// connection. Zero disables the limit.
	ReceiveRate  float64       `mapstructure:"receive-rate"`
	ReceiveBurst int           `mapstructure:"receive-burst"`
	DialTimeout  time.Duration `mapstructure:"dial-timeout"`
	KeepAlive    time.Duration `mapstructure:"keep-alive"`
}

func DefaultConfig() Config {
	return Config{
		Network:        TCP,
		MaxMessageSize: 64 << 10,
		ReceiveRate:    1000,
		ReceiveBurst:   200,
		DialTimeout:    10 * time.Second,
		KeepAlive:      15 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Network != TCP && c.Network != QUIC {
		return fmt.Errorf("%w: %q", ErrUnknownNetwork, c.Network)
	}
	if c.MaxMessageSize < 1+message.SetHeaderSize {
		return fmt.Errorf("max message size %d is too small", c.MaxMessageSize)
	}
	if c.ReceiveRate < 0 || c.ReceiveBurst < 0 {
		return errors.New("receive rate and burst must not be negative")
	}
	return nil
}

func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("network", string(c.Network))
	enc.AddInt("max message size", c.MaxMessageSize)
	enc.AddFloat64("receive rate", c.ReceiveRate)
	enc.AddInt("receive burst", c.ReceiveBurst)
	enc.AddDuration("dial timeout", c.DialTimeout)
	enc.AddDuration("keep alive", c.KeepAlive)
	return nil
}

func (c Config) limiter() *rate.Limiter {
	if c.ReceiveRate == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(c.ReceiveRate), max(1, c.ReceiveBurst))
}

// Conn is one established connection. Send may be called concurrently with
// Receive. Receive must not be called concurrently with itself.
type Conn interface {
	ID() uuid.UUID
	RemoteAddr() net.Addr
	Send(msg message.Message) error
	// Receive blocks until a frame arrives, the connection fails or ctx is
	// done. A frame above the receive rate waits for the limiter.
	Receive(ctx context.Context) (message.Message, error)
	Close() error
}

// Listener accepts connections from peers.
type Listener interface {
	// Accept blocks until a peer connects or ctx is done.
	Accept(ctx context.Context) (Conn, error)
	Addr() net.Addr
	Close() error
}

// Opt modifies listeners and dialed connections.
type Opt func(*options)

type options struct {
	logger *zap.Logger
}

func WithLogger(logger *zap.Logger) Opt {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Opt) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Listen starts accepting connections on addr.
func Listen(addr string, cfg Config, opts ...Opt) (Listener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	switch cfg.Network {
	case QUIC:
		return listenQUIC(addr, cfg, o)
	default:
		return listenTCP(addr, cfg, o)
	}
}

// Dial connects to a listener at addr.
func Dial(ctx context.Context, addr string, cfg Config, opts ...Opt) (Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	switch cfg.Network {
	case QUIC:
		return dialQUIC(ctx, addr, cfg, o)
	default:
		return dialTCP(ctx, addr, cfg, o)
	}
}

func encodeFrame(msg message.Message) []byte {
	frame := make([]byte, msg.Size())
	frame[0] = byte(msg.Type)
	copy(frame[1:], msg.Payload)
	return frame
}

// decodeFrame copies the payload out of frame.
func decodeFrame(frame []byte, delivery message.DeliveryMode) (message.Message, error) {
	if len(frame) == 0 {
		return message.Message{}, ErrEmptyFrame
	}
	payload := make([]byte, len(frame)-1)
	copy(payload, frame[1:])
	return message.New(message.Type(frame[0]), payload, delivery), nil
}
