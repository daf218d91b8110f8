package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-janus/log/logtest"
	"github.com/spacemeshos/go-janus/message"
	"github.com/spacemeshos/go-janus/transport"
)

type testServer struct {
	*Server
	relay *Mockrelay
	clock clockwork.FakeClock
	addr  string
}

func runServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	ts := &testServer{
		relay: NewMockrelay(ctrl),
		clock: clockwork.NewFakeClock(),
	}
	ts.Server = New(ts.relay,
		WithLogger(logtest.New(t)),
		WithConfig(cfg),
		WithClock(ts.clock),
	)
	l, err := transport.Listen("127.0.0.1:0", transport.DefaultConfig())
	require.NoError(t, err)
	ts.addr = l.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	var eg errgroup.Group
	eg.Go(func() error { return ts.Serve(ctx, l) })
	t.Cleanup(func() {
		cancel()
		require.NoError(t, eg.Wait())
	})
	return ts
}

func (ts *testServer) dial(t *testing.T) transport.Conn {
	t.Helper()
	c, err := transport.Dial(context.Background(), ts.addr, transport.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func signal(ch chan uint16) func(uint16, float64) {
	return func(index uint16, _ float64) { ch <- index }
}

func waitIndex(t *testing.T, ch chan uint16) uint16 {
	t.Helper()
	select {
	case index := <-ch:
		return index
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out")
	}
	return 0
}

func TestServeRelaysMessages(t *testing.T) {
	ts := runServer(t, DefaultConfig())
	connected := make(chan uint16, 1)
	disconnected := make(chan uint16, 1)
	received := make(chan message.Message, 1)
	ts.relay.EXPECT().ConnectPeer(uint16(1), 0.0).Do(signal(connected))
	ts.relay.EXPECT().DisconnectPeer(uint16(1)).Do(func(index uint16) { disconnected <- index })

	c := ts.dial(t)
	require.Equal(t, uint16(1), waitIndex(t, connected))

	ping := message.New(message.ClockSyncPong, message.PongPayload{PingTime: 1, PongTime: 2}.Encode(), message.Unreliable)
	ts.relay.EXPECT().ProcessIncomingMessage(uint16(1), gomock.Any()).Do(func(_ uint16, msg message.Message) {
		received <- msg
	})
	require.NoError(t, c.Send(ping))
	select {
	case msg := <-received:
		require.Equal(t, ping.Type, msg.Type)
		require.Equal(t, ping.Payload, msg.Payload)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "message not relayed")
	}

	initMsg := message.New(message.InitializePeer, message.EncodeTime(3), message.ReliableOrdered)
	ts.relay.EXPECT().StepElapsed()
	ts.relay.EXPECT().GetOutgoingMessages(uint16(1)).Return([]message.Message{initMsg})
	ts.clock.BlockUntil(1)
	ts.clock.Advance(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := c.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, initMsg, got)

	require.Len(t, ts.Connections(), 1)
	require.Equal(t, uint16(1), ts.Connections()[0].Index)

	require.NoError(t, c.Close())
	require.Equal(t, uint16(1), waitIndex(t, disconnected))
	require.Eventually(t, func() bool { return len(ts.Connections()) == 0 }, time.Second, time.Millisecond)
}

func TestLowestFreeIndex(t *testing.T) {
	ts := runServer(t, DefaultConfig())
	connected := make(chan uint16, 3)
	disconnected := make(chan uint16, 3)
	ts.relay.EXPECT().ConnectPeer(gomock.Any(), gomock.Any()).Do(signal(connected)).Times(3)
	ts.relay.EXPECT().DisconnectPeer(gomock.Any()).Do(func(index uint16) { disconnected <- index }).AnyTimes()

	a := ts.dial(t)
	require.Equal(t, uint16(1), waitIndex(t, connected))
	ts.dial(t)
	require.Equal(t, uint16(2), waitIndex(t, connected))

	require.NoError(t, a.Close())
	require.Equal(t, uint16(1), waitIndex(t, disconnected))
	ts.dial(t)
	require.Equal(t, uint16(1), waitIndex(t, connected))
}

func TestConnectionLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConnections = 1
	ts := runServer(t, cfg)
	connected := make(chan uint16, 2)
	ts.relay.EXPECT().ConnectPeer(uint16(1), gomock.Any()).Do(signal(connected))
	ts.relay.EXPECT().DisconnectPeer(uint16(1))

	ts.dial(t)
	require.Equal(t, uint16(1), waitIndex(t, connected))

	rejected := ts.dial(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := rejected.Receive(ctx)
	require.Error(t, err)
	require.NoError(t, ctx.Err())
	require.Len(t, ts.Connections(), 1)
}

type failingConn struct {
	transport.Conn
	sends  int
	closed bool
}

func (c *failingConn) Send(message.Message) error {
	c.sends++
	return errors.New("broken pipe")
}

func (c *failingConn) Close() error {
	c.closed = true
	return nil
}

func TestSendFailureClosesConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := NewMockrelay(ctrl)
	s := New(r, WithLogger(logtest.New(t)))
	c := &failingConn{}
	index, ok := s.register(c)
	require.True(t, ok)

	ping := message.New(message.ClockSyncPing, message.EncodeTime(0), message.Unreliable)
	r.EXPECT().StepElapsed()
	r.EXPECT().GetOutgoingMessages(index).Return([]message.Message{ping, ping})
	s.step()
	require.Equal(t, 1, c.sends)
	require.True(t, c.closed)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	for _, cfg := range []Config{
		{MaxConnections: 0, StepRate: 100},
		{MaxConnections: 1 << 16, StepRate: 100},
		{MaxConnections: 1, StepRate: 0},
	} {
		require.Error(t, cfg.Validate())
	}
}
