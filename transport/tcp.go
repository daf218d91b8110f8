package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/libp2p/go-msgio"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spacemeshos/go-janus/message"
)

type tcpListener struct {
	logger *zap.Logger
	cfg    Config
	l      net.Listener
}

func listenTCP(addr string, cfg Config, o options) (*tcpListener, error) {
	lc := net.ListenConfig{KeepAlive: cfg.KeepAlive}
	l, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen tcp %s: %w", addr, err)
	}
	return &tcpListener{logger: o.logger, cfg: cfg, l: l}, nil
}

func (l *tcpListener) Accept(ctx context.Context) (Conn, error) {
	stop := context.AfterFunc(ctx, func() { l.l.Close() })
	defer stop()
	nc, err := l.l.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, err
	}
	c := newTCPConn(nc, l.cfg)
	l.logger.Debug("accepted connection",
		zap.Stringer("id", c.id),
		zap.Stringer("remote", nc.RemoteAddr()),
	)
	return c, nil
}

func (l *tcpListener) Addr() net.Addr {
	return l.l.Addr()
}

func (l *tcpListener) Close() error {
	return l.l.Close()
}

func dialTCP(ctx context.Context, addr string, cfg Config, o options) (*tcpConn, error) {
	d := net.Dialer{KeepAlive: cfg.KeepAlive}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", addr, err)
	}
	c := newTCPConn(nc, cfg)
	o.logger.Debug("dialed connection",
		zap.Stringer("id", c.id),
		zap.Stringer("remote", nc.RemoteAddr()),
	)
	return c, nil
}

// tcpConn sends every frame over one ordered stream, so all frames arrive
// as ReliableOrdered regardless of the class they were sent with.
type tcpConn struct {
	id    uuid.UUID
	nc    net.Conn
	limit *rate.Limiter

	rd msgio.ReadCloser

	wmu sync.Mutex
	wr  msgio.WriteCloser

	closeOnce sync.Once
	closeErr  error
}

func newTCPConn(nc net.Conn, cfg Config) *tcpConn {
	return &tcpConn{
		id:    uuid.New(),
		nc:    nc,
		limit: cfg.limiter(),
		rd:    msgio.NewVarintReaderSize(nc, cfg.MaxMessageSize),
		wr:    msgio.NewVarintWriter(nc),
	}
}

func (c *tcpConn) ID() uuid.UUID {
	return c.id
}

func (c *tcpConn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

func (c *tcpConn) Send(msg message.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.wr.WriteMsg(encodeFrame(msg)); err != nil {
		return c.wrap(err)
	}
	sentFrames.WithLabelValues(string(TCP)).Inc()
	sentBytes.WithLabelValues(string(TCP)).Add(float64(msg.Size()))
	return nil
}

// Receive closes the connection when ctx is done before a frame arrives.
func (c *tcpConn) Receive(ctx context.Context) (message.Message, error) {
	if err := c.limit.Wait(ctx); err != nil {
		return message.Message{}, err
	}
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()
	frame, err := c.rd.ReadMsg()
	if err != nil {
		if ctx.Err() != nil {
			return message.Message{}, ctx.Err()
		}
		if errors.Is(err, msgio.ErrMsgTooLarge) {
			oversizeFrames.WithLabelValues(string(TCP)).Inc()
		}
		return message.Message{}, c.wrap(err)
	}
	defer c.rd.ReleaseMsg(frame)
	msg, err := decodeFrame(frame, message.ReliableOrdered)
	if err != nil {
		return message.Message{}, err
	}
	receivedFrames.WithLabelValues(string(TCP)).Inc()
	receivedBytes.WithLabelValues(string(TCP)).Add(float64(len(frame)))
	return msg, nil
}

func (c *tcpConn) wrap(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	return fmt.Errorf("connection %s: %w", c.id, err)
}

func (c *tcpConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}
