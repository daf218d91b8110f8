// Package synchronizer implements the relay that connects timeline managers.
// It fans out timeline updates among subscribed peers, caches recent values
// for late subscribers and acts as the reference clock.
package synchronizer

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-janus/log"
	"github.com/spacemeshos/go-janus/message"
)

var (
	errUnknownPeer     = errors.New("unknown peer")
	errUnknownTimeline = errors.New("timeline not connected")
	errUnexpectedType  = errors.New("unexpected message type")
)

// Opt modifies Synchronizer behavior.
type Opt func(*Synchronizer)

func WithLogger(logger *zap.Logger) Opt {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

func WithConfig(cfg Config) Opt {
	return func(s *Synchronizer) {
		s.cfg = cfg
	}
}

// WithClock sets the wall clock that paces ping rounds.
func WithClock(clock clockwork.Clock) Opt {
	return func(s *Synchronizer) {
		s.clock = clock
	}
}

// WithObserver adds an observer. Observers are notified in the order added.
func WithObserver(o Observer) Opt {
	return func(s *Synchronizer) {
		s.observers = append(s.observers, o)
	}
}

// Synchronizer relays timeline messages between peers identified by a u16 index.
type Synchronizer struct {
	logger    *zap.Logger
	cfg       Config
	clock     clockwork.Clock
	observers []Observer

	now atomic.Uint64

	// peerMu is always acquired before timelineMu.
	peerMu     sync.Mutex
	peers      map[uint16]*peer
	timelineMu sync.Mutex
	timelines  map[string]*timelineInfo

	stepMu   sync.Mutex
	lastStep time.Time
	lastPing time.Time
	closed   bool
	pinging  atomic.Bool
	eg       errgroup.Group
}

func New(opts ...Opt) *Synchronizer {
	s := &Synchronizer{
		logger:    zap.NewNop(),
		cfg:       DefaultConfig(),
		clock:     clockwork.NewRealClock(),
		peers:     map[uint16]*peer{},
		timelines: map[string]*timelineInfo{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastPing = s.clock.Now()
	return s
}

// Now is the reference time in seconds since the synchronizer started.
func (s *Synchronizer) Now() float64 {
	return math.Float64frombits(s.now.Load())
}

func (s *Synchronizer) notify(evs events) {
	for _, ev := range evs {
		for _, o := range s.observers {
			ev(o)
		}
	}
}

// ConnectPeer registers a peer and queues its clock initialization. rtt is
// the round trip time measured by the transport, if known.
func (s *Synchronizer) ConnectPeer(index uint16, rtt float64) {
	s.peerMu.Lock()
	if _, ok := s.peers[index]; ok {
		s.peerMu.Unlock()
		s.logger.Debug("peer already connected", zap.Uint16("peer", index))
		return
	}
	p := newPeer(index)
	s.peers[index] = p
	now := s.Now()
	p.enqueue(message.New(message.InitializePeer, message.EncodeTime(now+rtt/2), message.ReliableOrdered))
	p.enqueue(message.New(message.ClockSyncPing, message.EncodeTime(now), message.Unreliable))
	peersGauge.Set(float64(len(s.peers)))
	s.peerMu.Unlock()

	s.logger.Debug("peer connected", zap.Uint16("peer", index), zap.Float64("rtt", rtt))
	s.notify(events{func(o Observer) { o.PeerConnected(index) }})
}

// DisconnectPeer unsubscribes the peer from all its timelines and forgets it.
func (s *Synchronizer) DisconnectPeer(index uint16) {
	var evs events
	s.peerMu.Lock()
	s.timelineMu.Lock()
	p, ok := s.peers[index]
	if ok {
		for _, remote := range slices.Sorted(maps.Keys(p.connected)) {
			s.disconnectLocked(p, p.connected[remote], &evs)
		}
		delete(s.peers, index)
		evs.add(func(o Observer) { o.PeerDisconnected(index) })
		peersGauge.Set(float64(len(s.peers)))
		timelinesGauge.Set(float64(len(s.timelines)))
	}
	s.timelineMu.Unlock()
	s.peerMu.Unlock()

	if ok {
		s.logger.Debug("peer disconnected", zap.Uint16("peer", index))
	}
	s.notify(evs)
}

// PeerIndices returns the connected peers in increasing order.
func (s *Synchronizer) PeerIndices() []uint16 {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()
	return slices.Sorted(maps.Keys(s.peers))
}

// ProcessIncomingMessage handles a message sent by a peer. Malformed
// messages and messages from unknown peers are dropped.
func (s *Synchronizer) ProcessIncomingMessage(index uint16, msg message.Message) {
	var evs events
	err := s.process(index, msg, &evs)
	s.notify(evs)
	if err != nil {
		droppedMessages.WithLabelValues(dropReason(err)).Inc()
		s.logger.Debug("dropped message",
			zap.Uint16("peer", index),
			zap.Inline(msg),
			zap.Error(err),
		)
		return
	}
	processedMessages.WithLabelValues(msg.Type.String()).Inc()
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, errUnknownPeer):
		return "unknown_peer"
	case errors.Is(err, errUnknownTimeline):
		return "unknown_timeline"
	case errors.Is(err, errUnexpectedType):
		return "unexpected_type"
	}
	return "decode"
}

func (s *Synchronizer) process(index uint16, msg message.Message, evs *events) error {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()
	s.timelineMu.Lock()
	defer s.timelineMu.Unlock()

	p, ok := s.peers[index]
	if !ok {
		return errUnknownPeer
	}
	p.bytesIn += len(msg.Payload)

	switch {
	case msg.Type.IsRelay():
		return s.relayLocked(p, msg, evs)
	case msg.Type == message.ClockSyncPong:
		return s.pongLocked(p, msg, evs)
	case msg.Type == message.ConnectTimeline:
		sub, err := message.DecodeConnectTimeline(msg.Payload)
		if err != nil {
			return err
		}
		s.connectLocked(p, sub.Index, sub.ID, evs)
		return nil
	case msg.Type == message.DisconnectTimeline:
		remote, err := message.DecodeIndex(msg.Payload)
		if err != nil {
			return err
		}
		info, ok := p.connected[remote]
		if !ok {
			return fmt.Errorf("%w: index %d", errUnknownTimeline, remote)
		}
		s.disconnectLocked(p, info, evs)
		return nil
	case msg.Type == message.CacheSize:
		size, err := message.DecodeCacheSize(msg.Payload)
		if err != nil {
			return err
		}
		info, ok := p.connected[size.Index]
		if !ok {
			return fmt.Errorf("%w: index %d", errUnknownTimeline, size.Index)
		}
		info.resize(size.Size)
		return nil
	}
	return fmt.Errorf("%w: %s", errUnexpectedType, msg.Type)
}

func (s *Synchronizer) relayLocked(p *peer, msg message.Message, evs *events) error {
	if len(msg.Payload) < message.SetHeaderSize {
		return fmt.Errorf("%w: relay needs %d bytes, got %d",
			message.ErrTruncated, message.SetHeaderSize, len(msg.Payload))
	}
	remote, err := message.DecodeIndex(msg.Payload)
	if err != nil {
		return err
	}
	info, ok := p.connected[remote]
	if !ok {
		return fmt.Errorf("%w: index %d", errUnknownTimeline, remote)
	}
	info.remember(msg)
	id := info.id
	evs.add(func(o Observer) { o.TimelineSet(remote, id) })

	setType, _ := msg.Type.SetType()
	for other, otherIndex := range info.connected {
		if other == p {
			continue
		}
		out, err := message.WithIndex(msg, setType, otherIndex)
		if err != nil {
			return err
		}
		other.enqueue(out)
	}
	relayedMessages.Add(float64(len(info.connected) - 1))
	return nil
}

func (s *Synchronizer) connectLocked(p *peer, remote uint16, id []byte, evs *events) {
	// A peer reusing an index or resubscribing under another index drops
	// its previous subscription first.
	if old, ok := p.connected[remote]; ok {
		s.disconnectLocked(p, old, evs)
	}
	info, ok := s.timelines[string(id)]
	if ok {
		if _, subscribed := info.connected[p]; subscribed {
			s.disconnectLocked(p, info, evs)
			info, ok = s.timelines[string(id)]
		}
	}
	if ok {
		count := len(info.connected) + 1
		evs.add(func(o Observer) { o.TimelineUpdated(count, id) })
	} else {
		info = newTimelineInfo(id, s.cfg.EntryCacheSize)
		s.timelines[string(id)] = info
		evs.add(func(o Observer) { o.TimelineCreated(id) })
		timelinesGauge.Set(float64(len(s.timelines)))
	}
	info.connected[p] = remote
	p.connected[remote] = info

	for _, cached := range info.cached() {
		cachedType, _ := cached.Type.CachedType()
		out, err := message.WithIndex(cached, cachedType, remote)
		if err != nil {
			continue
		}
		p.enqueue(out)
	}
	index := p.index
	evs.add(func(o Observer) { o.TimelineConnected(index, remote, id) })
	s.logger.Debug("timeline connected",
		zap.Uint16("peer", index),
		zap.Uint16("remote index", remote),
		log.ZID(id),
	)
}

func (s *Synchronizer) disconnectLocked(p *peer, info *timelineInfo, evs *events) {
	remote, ok := info.connected[p]
	if !ok {
		return
	}
	delete(p.connected, remote)
	delete(info.connected, p)
	index, id := p.index, info.id
	evs.add(func(o Observer) { o.TimelineDisconnected(index, remote, id) })

	if len(info.connected) == 0 {
		delete(s.timelines, string(id))
		evs.add(func(o Observer) { o.TimelineDestroyed(id) })
		timelinesGauge.Set(float64(len(s.timelines)))
		s.logger.Debug("timeline destroyed", log.ZID(id))
		return
	}
	count := len(info.connected)
	evs.add(func(o Observer) { o.TimelineUpdated(count, id) })
}

func (s *Synchronizer) pongLocked(p *peer, msg message.Message, evs *events) error {
	pong, err := message.DecodePong(msg.Payload)
	if err != nil {
		return err
	}
	now := s.Now()
	localPong := (pong.PingTime + now) / 2
	sample := &clockSample{
		rtt:    float32(now - pong.PingTime),
		offset: float32(localPong - pong.PongTime),
	}
	history := s.cfg.historySize()
	p.addSample(sample, s.cfg.SamplingRule, history)

	index, rtt := p.index, sample.rtt
	toKbps := int(float64(p.bytesIn) * s.cfg.PingRate * 0.008)
	fromKbps := int(float64(p.bytesOut) * s.cfg.PingRate * 0.008)
	evs.add(func(o Observer) { o.PeerUpdated(index, rtt, toKbps, fromKbps) })
	p.bytesIn, p.bytesOut = 0, 0

	correction := p.clockCorrection(history)
	p.enqueue(message.New(message.ClockSyncCorrection, message.EncodeCorrection(correction), message.Unreliable))
	p.pinging = false
	rttHistogram.Observe(float64(rtt))
	return nil
}

// GetOutgoingMessages drains the queue of a peer.
func (s *Synchronizer) GetOutgoingMessages(index uint16) []message.Message {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()
	p, ok := s.peers[index]
	if !ok {
		return nil
	}
	return p.drain()
}

// Step advances the reference clock by dt seconds and starts a ping round
// when one is due and none is in flight.
func (s *Synchronizer) Step(dt float64) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	s.now.Store(math.Float64bits(s.Now() + dt))
	if s.closed || s.clock.Since(s.lastPing) < s.cfg.pingPeriod() {
		return
	}
	if !s.pinging.CompareAndSwap(false, true) {
		return
	}
	s.lastPing = s.clock.Now()
	s.eg.Go(func() error {
		defer s.pinging.Store(false)
		s.pingPeers()
		return nil
	})
}

// StepElapsed calls Step with the wall clock time since the previous call.
func (s *Synchronizer) StepElapsed() {
	s.stepMu.Lock()
	current := s.clock.Now()
	var dt float64
	if !s.lastStep.IsZero() {
		dt = current.Sub(s.lastStep).Seconds()
	}
	s.lastStep = current
	s.stepMu.Unlock()
	s.Step(dt)
}

func (s *Synchronizer) pingPeers() {
	s.peerMu.Lock()
	indices := slices.Sorted(maps.Keys(s.peers))
	s.peerMu.Unlock()

	for _, index := range indices {
		s.peerMu.Lock()
		if p, ok := s.peers[index]; ok {
			p.enqueue(message.New(message.ClockSyncPing, message.EncodeTime(s.Now()), message.Unreliable))
			p.pinging = true
		}
		s.peerMu.Unlock()
	}
	pingRounds.Inc()
}

// Close stops starting ping rounds and waits for the one in flight.
func (s *Synchronizer) Close() error {
	s.stepMu.Lock()
	s.closed = true
	s.stepMu.Unlock()
	return s.eg.Wait()
}

// PeerStats is a snapshot of one peer.
type PeerStats struct {
	Index      uint16
	Timelines  int
	RTT        float32
	Correction float32
	Samples    int
	Queued     int
	Pinging    bool
}

// Peers returns a snapshot of every connected peer ordered by index.
func (s *Synchronizer) Peers() []PeerStats {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()
	stats := make([]PeerStats, 0, len(s.peers))
	for _, index := range slices.Sorted(maps.Keys(s.peers)) {
		p := s.peers[index]
		stats = append(stats, PeerStats{
			Index:      p.index,
			Timelines:  len(p.connected),
			RTT:        p.lastRTT,
			Correction: p.correction,
			Samples:    len(p.byAge),
			Queued:     len(p.outgoing),
			Pinging:    p.pinging,
		})
	}
	return stats
}

// TimelineStats is a snapshot of one shared timeline.
type TimelineStats struct {
	ID          []byte
	Subscribers int
	Cached      int
	CacheSize   uint16
}

// Timelines returns a snapshot of every shared timeline ordered by id.
func (s *Synchronizer) Timelines() []TimelineStats {
	s.timelineMu.Lock()
	defer s.timelineMu.Unlock()
	stats := make([]TimelineStats, 0, len(s.timelines))
	for _, info := range s.timelines {
		stats = append(stats, TimelineStats{
			ID:          slices.Clone(info.id),
			Subscribers: len(info.connected),
			Cached:      info.cache.Len(),
			CacheSize:   info.cacheSize,
		})
	}
	slices.SortFunc(stats, func(a, b TimelineStats) int {
		return bytes.Compare(a.ID, b.ID)
	})
	return stats
}

// CachedEntries returns the relays cached for a timeline, oldest first.
func (s *Synchronizer) CachedEntries(id []byte) ([]message.Message, bool) {
	s.timelineMu.Lock()
	defer s.timelineMu.Unlock()
	info, ok := s.timelines[string(id)]
	if !ok {
		return nil, false
	}
	return info.cached(), true
}
