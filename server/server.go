// Package server drives a synchronizer over a transport listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-janus/transport"
)

type Config struct {
	Listen         string  `mapstructure:"listen"`
	MaxConnections int     `mapstructure:"max-connections"`
	StepRate       float64 `mapstructure:"step-rate"`
}

func DefaultConfig() Config {
	return Config{
		Listen:         ":14242",
		MaxConnections: 32,
		StepRate:       100,
	}
}

func (c Config) Validate() error {
	if c.MaxConnections < 1 || c.MaxConnections > 1<<16-1 {
		return fmt.Errorf("max connections %d out of range", c.MaxConnections)
	}
	if c.StepRate <= 0 {
		return errors.New("step rate must be positive")
	}
	return nil
}

func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("listen", c.Listen)
	enc.AddInt("max connections", c.MaxConnections)
	enc.AddFloat64("step rate", c.StepRate)
	return nil
}

// Opt modifies Server behavior.
type Opt func(*Server)

func WithLogger(logger *zap.Logger) Opt {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithConfig(cfg Config) Opt {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// WithClock sets the clock that paces the step loop.
func WithClock(clock clockwork.Clock) Opt {
	return func(s *Server) {
		s.clock = clock
	}
}

// Server assigns each accepted connection a peer index, feeds its messages to
// the relay and flushes the relay's outgoing queues at the step rate.
type Server struct {
	logger *zap.Logger
	cfg    Config
	clock  clockwork.Clock
	relay  relay

	mu    sync.Mutex
	conns map[uint16]transport.Conn
}

func New(r relay, opts ...Opt) *Server {
	s := &Server{
		logger: zap.NewNop(),
		cfg:    DefaultConfig(),
		clock:  clockwork.NewRealClock(),
		relay:  r,
		conns:  map[uint16]transport.Conn{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve accepts connections until ctx is done or l fails. Open connections
// are closed and their peers disconnected before it returns.
func (s *Server) Serve(ctx context.Context, l transport.Listener) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	s.logger.Info("serving", zap.Stringer("addr", l.Addr()), zap.Inline(&s.cfg))
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.stepLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		for {
			c, err := l.Accept(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}
			index, ok := s.register(c)
			if !ok {
				s.logger.Warn("rejecting connection over the limit",
					zap.Stringer("remote", c.RemoteAddr()),
					zap.Int("max", s.cfg.MaxConnections),
				)
				rejectedConnections.Inc()
				c.Close()
				continue
			}
			eg.Go(func() error {
				s.handle(ctx, index, c)
				return nil
			})
		}
	})
	return eg.Wait()
}

// register assigns the lowest free index starting from 1.
func (s *Server) register(c transport.Conn) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for index := 1; index <= s.cfg.MaxConnections; index++ {
		if _, used := s.conns[uint16(index)]; !used {
			s.conns[uint16(index)] = c
			connectionsGauge.Set(float64(len(s.conns)))
			return uint16(index), true
		}
	}
	return 0, false
}

func (s *Server) unregister(index uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, index)
	connectionsGauge.Set(float64(len(s.conns)))
}

func (s *Server) handle(ctx context.Context, index uint16, c transport.Conn) {
	logger := s.logger.With(
		zap.Uint16("peer", index),
		zap.Stringer("id", c.ID()),
		zap.Stringer("remote", c.RemoteAddr()),
	)
	logger.Info("peer connected")
	s.relay.ConnectPeer(index, 0)
	defer func() {
		s.unregister(index)
		s.relay.DisconnectPeer(index)
		c.Close()
	}()
	for {
		msg, err := c.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Info("peer disconnected", zap.Error(err))
			}
			return
		}
		s.relay.ProcessIncomingMessage(index, msg)
	}
}

func (s *Server) stepLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(time.Duration(float64(time.Second) / s.cfg.StepRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.step()
		}
	}
}

func (s *Server) step() {
	s.relay.StepElapsed()
	s.mu.Lock()
	conns := maps.Clone(s.conns)
	s.mu.Unlock()
	for _, index := range slices.Sorted(maps.Keys(conns)) {
		c := conns[index]
		for _, msg := range s.relay.GetOutgoingMessages(index) {
			if err := c.Send(msg); err != nil {
				s.logger.Debug("send failed",
					zap.Uint16("peer", index),
					zap.Inline(msg),
					zap.Error(err),
				)
				sendErrors.Inc()
				// The receive loop notices the closed connection and
				// disconnects the peer.
				c.Close()
				break
			}
		}
	}
}

// Connection describes one connected peer.
type Connection struct {
	Index      uint16
	ID         uuid.UUID
	RemoteAddr string
}

// Connections returns the connected peers ordered by index.
func (s *Server) Connections() []Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := make([]Connection, 0, len(s.conns))
	for _, index := range slices.Sorted(maps.Keys(s.conns)) {
		c := s.conns[index]
		conns = append(conns, Connection{Index: index, ID: c.ID(), RemoteAddr: c.RemoteAddr().String()})
	}
	return conns
}
