// Package client connects a timeline manager to a synchronizer server.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-janus/transport"
)

// ErrDisconnected is returned by Run when the connection drops.
var ErrDisconnected = errors.New("client: disconnected")

type Config struct {
	Server   string  `mapstructure:"server"`
	StepRate float64 `mapstructure:"step-rate"`
}

func DefaultConfig() Config {
	return Config{
		Server:   "127.0.0.1:14242",
		StepRate: 60,
	}
}

func (c Config) Validate() error {
	if c.Server == "" {
		return errors.New("server address is empty")
	}
	if c.StepRate <= 0 {
		return errors.New("step rate must be positive")
	}
	return nil
}

func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("server", c.Server)
	enc.AddFloat64("step rate", c.StepRate)
	return nil
}

// Opt modifies Client behavior.
type Opt func(*Client)

func WithLogger(logger *zap.Logger) Opt {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithConfig(cfg Config) Opt {
	return func(c *Client) {
		c.cfg = cfg
	}
}

func WithTransport(cfg transport.Config) Opt {
	return func(c *Client) {
		c.transport = cfg
	}
}

func WithClock(clock clockwork.Clock) Opt {
	return func(c *Client) {
		c.clock = clock
	}
}

// OnConnected is called once the connection is established.
func OnConnected(f func()) Opt {
	return func(c *Client) {
		c.onConnected = f
	}
}

// OnDisconnected is called when Run is about to return after a connection
// was established. err is nil if the context ended.
func OnDisconnected(f func(err error)) Opt {
	return func(c *Client) {
		c.onDisconnected = f
	}
}

// Client pumps messages between a manager and one server connection.
type Client struct {
	logger    *zap.Logger
	cfg       Config
	transport transport.Config
	clock     clockwork.Clock
	manager   manager

	onConnected    func()
	onDisconnected func(error)
}

func New(m manager, opts ...Opt) *Client {
	c := &Client{
		logger:         zap.NewNop(),
		cfg:            DefaultConfig(),
		transport:      transport.DefaultConfig(),
		clock:          clockwork.NewRealClock(),
		manager:        m,
		onConnected:    func() {},
		onDisconnected: func(error) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run dials the server and steps the manager until ctx is done or the
// connection drops. It returns nil in the first case.
func (c *Client) Run(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	conn, err := transport.Dial(ctx, c.cfg.Server, c.transport, transport.WithLogger(c.logger))
	if err != nil {
		return err
	}
	defer conn.Close()
	c.logger.Info("connected", zap.Inline(&c.cfg), zap.Stringer("id", conn.ID()))
	c.onConnected()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for {
			msg, err := conn.Receive(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: %w", ErrDisconnected, err)
			}
			c.manager.ProcessIncomingMessage(msg)
		}
	})
	eg.Go(func() error {
		ticker := c.clock.NewTicker(time.Duration(float64(time.Second) / c.cfg.StepRate))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.Chan():
				c.manager.StepElapsed()
				for _, msg := range c.manager.GetOutgoingMessages() {
					if err := conn.Send(msg); err != nil {
						return fmt.Errorf("%w: %w", ErrDisconnected, err)
					}
				}
			}
		}
	})
	err = eg.Wait()
	if err != nil {
		c.logger.Info("disconnected", zap.Error(err))
	}
	c.onDisconnected(err)
	return err
}
