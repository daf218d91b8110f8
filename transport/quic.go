package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/libp2p/go-msgio"
	"github.com/quic-go/quic-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/spacemeshos/go-janus/message"
)

const (
	alpn = "janus/1"
	// streamPreamble is written by the dialer so that the listener can
	// accept the stream before the first frame.
	streamPreamble byte = 1
	// maxDatagramFrame stays below the datagram size quic-go supports on
	// a conservative path MTU. Larger unreliable frames use the stream.
	maxDatagramFrame = 1100
)

func quicConfig(cfg Config) *quic.Config {
	return &quic.Config{
		EnableDatagrams: true,
		KeepAlivePeriod: cfg.KeepAlive,
	}
}

type quicListener struct {
	logger *zap.Logger
	cfg    Config
	l      *quic.Listener
}

func listenQUIC(addr string, cfg Config, o options) (*quicListener, error) {
	tlsConf, err := serverTLSConfig()
	if err != nil {
		return nil, err
	}
	l, err := quic.ListenAddr(addr, tlsConf, quicConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("listen quic %s: %w", addr, err)
	}
	return &quicListener{logger: o.logger, cfg: cfg, l: l}, nil
}

func (l *quicListener) Accept(ctx context.Context) (Conn, error) {
	for {
		qc, err := l.l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, quic.ErrServerClosed) {
				return nil, ErrClosed
			}
			return nil, err
		}
		stream, err := qc.AcceptStream(ctx)
		if err == nil {
			err = readPreamble(stream)
		}
		if err != nil {
			l.logger.Debug("dropping quic connection without stream",
				zap.Stringer("remote", qc.RemoteAddr()),
				zap.Error(err),
			)
			qc.CloseWithError(1, "no stream")
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		c := newQUICConn(qc, stream, l.cfg)
		l.logger.Debug("accepted connection",
			zap.Stringer("id", c.id),
			zap.Stringer("remote", qc.RemoteAddr()),
		)
		return c, nil
	}
}

func readPreamble(r io.Reader) error {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	if b[0] != streamPreamble {
		return fmt.Errorf("unexpected stream preamble %d", b[0])
	}
	return nil
}

func (l *quicListener) Addr() net.Addr {
	return l.l.Addr()
}

func (l *quicListener) Close() error {
	return l.l.Close()
}

func dialQUIC(ctx context.Context, addr string, cfg Config, o options) (*quicConn, error) {
	qc, err := quic.DialAddr(ctx, addr, clientTLSConfig(), quicConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("dial quic %s: %w", addr, err)
	}
	stream, err := qc.OpenStreamSync(ctx)
	if err == nil {
		_, err = stream.Write([]byte{streamPreamble})
	}
	if err != nil {
		qc.CloseWithError(1, "no stream")
		return nil, fmt.Errorf("open stream to %s: %w", addr, err)
	}
	c := newQUICConn(qc, stream, cfg)
	o.logger.Debug("dialed connection",
		zap.Stringer("id", c.id),
		zap.Stringer("remote", qc.RemoteAddr()),
	)
	return c, nil
}

// quicConn sends Unreliable frames as datagrams and everything else over a
// single ordered stream.
type quicConn struct {
	id    uuid.UUID
	qc    quic.Connection
	limit *rate.Limiter
	max   int

	wmu sync.Mutex
	wr  msgio.WriteCloser

	incoming chan message.Message
	done     chan struct{}
	err      error
	eg       errgroup.Group

	closeOnce sync.Once
}

func newQUICConn(qc quic.Connection, stream quic.Stream, cfg Config) *quicConn {
	c := &quicConn{
		id:       uuid.New(),
		qc:       qc,
		limit:    cfg.limiter(),
		max:      cfg.MaxMessageSize,
		wr:       msgio.NewVarintWriter(stream),
		incoming: make(chan message.Message),
		done:     make(chan struct{}),
	}
	rd := msgio.NewVarintReaderSize(stream, cfg.MaxMessageSize)
	c.eg.Go(func() error {
		for {
			frame, err := rd.ReadMsg()
			if err != nil {
				if errors.Is(err, msgio.ErrMsgTooLarge) {
					oversizeFrames.WithLabelValues(string(QUIC)).Inc()
				}
				c.fail(err)
				return nil
			}
			msg, err := decodeFrame(frame, message.ReliableOrdered)
			rd.ReleaseMsg(frame)
			if err != nil {
				c.fail(err)
				return nil
			}
			if !c.deliver(msg) {
				return nil
			}
		}
	})
	c.eg.Go(func() error {
		for {
			frame, err := qc.ReceiveDatagram(qc.Context())
			if err != nil {
				c.fail(err)
				return nil
			}
			if len(frame) > c.max {
				oversizeFrames.WithLabelValues(string(QUIC)).Inc()
				continue
			}
			msg, err := decodeFrame(frame, message.Unreliable)
			if err != nil {
				continue
			}
			if !c.deliver(msg) {
				return nil
			}
		}
	})
	return c
}

func (c *quicConn) deliver(msg message.Message) bool {
	select {
	case c.incoming <- msg:
		receivedFrames.WithLabelValues(string(QUIC)).Inc()
		receivedBytes.WithLabelValues(string(QUIC)).Add(float64(msg.Size()))
		return true
	case <-c.done:
		return false
	}
}

// fail records the first error and stops the connection.
func (c *quicConn) fail(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		close(c.done)
		c.qc.CloseWithError(0, "")
	})
}

func (c *quicConn) ID() uuid.UUID {
	return c.id
}

func (c *quicConn) RemoteAddr() net.Addr {
	return c.qc.RemoteAddr()
}

func (c *quicConn) Send(msg message.Message) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	frame := encodeFrame(msg)
	if msg.Delivery == message.Unreliable && len(frame) <= maxDatagramFrame {
		if err := c.qc.SendDatagram(frame); err != nil {
			return fmt.Errorf("connection %s: %w", c.id, err)
		}
	} else {
		c.wmu.Lock()
		err := c.wr.WriteMsg(frame)
		c.wmu.Unlock()
		if err != nil {
			return fmt.Errorf("connection %s: %w", c.id, err)
		}
	}
	sentFrames.WithLabelValues(string(QUIC)).Inc()
	sentBytes.WithLabelValues(string(QUIC)).Add(float64(len(frame)))
	return nil
}

func (c *quicConn) Receive(ctx context.Context) (message.Message, error) {
	if err := c.limit.Wait(ctx); err != nil {
		return message.Message{}, err
	}
	select {
	case msg := <-c.incoming:
		return msg, nil
	case <-c.done:
		if errors.Is(c.err, ErrClosed) {
			return message.Message{}, ErrClosed
		}
		return message.Message{}, fmt.Errorf("connection %s: %w", c.id, c.err)
	case <-ctx.Done():
		return message.Message{}, ctx.Err()
	}
}

func (c *quicConn) Close() error {
	c.fail(ErrClosed)
	return c.eg.Wait()
}

func clientTLSConfig() *tls.Config {
	return &tls.Config{
		// The listener presents a self-signed certificate.
		InsecureSkipVerify: true,
		NextProtos:         []string{alpn},
	}
}
