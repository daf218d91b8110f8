package timeline

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-janus/log"
	"github.com/spacemeshos/go-janus/message"
)

var (
	// ErrNoID is returned when registering a timeline without an id.
	ErrNoID = errors.New("timeline: missing id")
	// ErrDuplicateID is returned when another timeline with the same id is registered.
	ErrDuplicateID = errors.New("timeline: duplicate id")
	// ErrIndexExhausted is returned when all wire indices are taken.
	ErrIndexExhausted = errors.New("timeline: no free index")
)

// Handle is the type independent view of a Timeline used by the Manager.
type Handle interface {
	ID() []byte
	SetID(id []byte) error
	Index() uint16
	Manager() *Manager
	ValueType() reflect.Type
	Tags() []string
	HasTag(tag string) bool
	AddTags(tags ...string)
	Owner() any
	SetOwner(owner any)
	NumEntries() int
	Now() float64
	CacheSize() uint16
	RemoteSet(tm float64, value []byte, absolute, cached bool) error
	Step()

	attach(m *Manager, index uint16, now float64) []message.Message
	detach(m *Manager) (uint16, bool)
	setNow(now float64)
	stepAt(now float64)
}

func (t *Timeline[T]) attach(m *Manager, index uint16, now float64) []message.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.manager = m
	t.index = index
	t.setNowLocked(now)
	t.connected = true
	msgs := []message.Message{message.New(
		message.ConnectTimeline,
		message.ConnectTimelinePayload{Index: index, ID: t.id}.Encode(),
		message.ReliableOrdered,
	)}
	if t.cacheSize != DefaultCacheSize {
		msgs = append(msgs, cacheSizeMessage(index, t.cacheSize))
	}
	return msgs
}

func (t *Timeline[T]) detach(m *Manager) (uint16, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.manager != m {
		return 0, false
	}
	t.manager = nil
	t.connected = false
	return t.index, true
}

func cacheSizeMessage(index, size uint16) message.Message {
	return message.New(
		message.CacheSize,
		message.CacheSizePayload{Index: index, Size: size}.Encode(),
		message.ReliableOrdered,
	)
}

// ManagerConfig tunes clock correction.
type ManagerConfig struct {
	// CorrectionFactor scales the remaining offset error into a correction rate.
	CorrectionFactor float64 `mapstructure:"correction-factor"`
	// MinCorrectionRate is the lowest correction rate, in seconds per second.
	MinCorrectionRate float64 `mapstructure:"min-correction-rate"`
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		CorrectionFactor:  1,
		MinCorrectionRate: 1,
	}
}

func (c *ManagerConfig) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddFloat64("correction factor", c.CorrectionFactor)
	enc.AddFloat64("min correction rate", c.MinCorrectionRate)
	return nil
}

type ManagerOpt func(*Manager)

func WithManagerConfig(cfg ManagerConfig) ManagerOpt {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

func WithLogger(logger *zap.Logger) ManagerOpt {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithManagerClock sets the wall clock used by StepElapsed and by timelines
// created through Get.
func WithManagerClock(clock clockwork.Clock) ManagerOpt {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithManagerRegistry sets the registry for timelines created through Get.
func WithManagerRegistry(r *Registry) ManagerOpt {
	return func(m *Manager) {
		m.registry = r
	}
}

// Manager owns the clock of a set of timelines and their network traffic.
type Manager struct {
	logger   *zap.Logger
	cfg      ManagerConfig
	clock    clockwork.Clock
	registry *Registry

	clockMu      sync.Mutex
	now          float64
	timeOffset   float64
	targetOffset float64
	lastStep     time.Time

	mu        sync.Mutex
	byID      map[string]Handle
	byIndex   map[uint16]Handle
	nextIndex uint16

	outMu    sync.Mutex
	outgoing []message.Message
}

func NewManager(opts ...ManagerOpt) *Manager {
	m := &Manager{
		logger:   zap.NewNop(),
		cfg:      DefaultManagerConfig(),
		clock:    clockwork.NewRealClock(),
		registry: Builtins(),
		byID:     map[string]Handle{},
		byIndex:  map[uint16]Handle{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Now() float64 {
	m.clockMu.Lock()
	defer m.clockMu.Unlock()
	return m.now
}

// TimeOffset is the correction applied to now so far.
func (m *Manager) TimeOffset() float64 {
	m.clockMu.Lock()
	defer m.clockMu.Unlock()
	return m.timeOffset
}

// TargetOffset is the correction the clock converges to.
func (m *Manager) TargetOffset() float64 {
	m.clockMu.Lock()
	defer m.clockMu.Unlock()
	return m.targetOffset
}

// SetTargetOffset sets the correction the clock converges to.
func (m *Manager) SetTargetOffset(offset float64) {
	m.clockMu.Lock()
	defer m.clockMu.Unlock()
	m.targetOffset = offset
}

// SetNow moves the clock and every timeline to now without correction.
func (m *Manager) SetNow(now float64) {
	m.clockMu.Lock()
	m.now = now
	m.clockMu.Unlock()
	for _, h := range m.Timelines() {
		h.setNow(now)
	}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) newTimelineOpts() []Opt {
	return []Opt{WithRegistry(m.registry), WithClock(m.clock)}
}

// Get returns the timeline registered under id, creating and registering it
// when missing.
func Get[T any](m *Manager, id []byte, opts ...Opt) (*Timeline[T], error) {
	if len(id) == 0 {
		return nil, ErrNoID
	}
	m.mu.Lock()
	if h, ok := m.byID[string(id)]; ok {
		m.mu.Unlock()
		tl, ok := h.(*Timeline[T])
		if !ok {
			return nil, fmt.Errorf("%w: %s holds %v, not %v",
				ErrTypeMismatch, log.FormatID(id), h.ValueType(), reflect.TypeFor[T]())
		}
		return tl, nil
	}
	tl := New[T](id, append(m.newTimelineOpts(), opts...)...)
	msgs, err := m.addLocked(tl)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	m.enqueue(msgs...)
	return tl, nil
}

// GetString is Get with a text id.
func GetString[T any](m *Manager, id string, opts ...Opt) (*Timeline[T], error) {
	return Get[T](m, StringID(id), opts...)
}

// GetNumeric is Get with a numeric id.
func GetNumeric[T any](m *Manager, id uint16, opts ...Opt) (*Timeline[T], error) {
	return Get[T](m, NumericID(id), opts...)
}

// Lookup returns the timeline registered under id.
func (m *Manager) Lookup(id []byte) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.byID[string(id)]
	return h, ok
}

// LookupIndex returns the timeline registered under a wire index.
func (m *Manager) LookupIndex(index uint16) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.byIndex[index]
	return h, ok
}

// Add registers h, taking it over from its previous manager if any.
func (m *Manager) Add(h Handle) error {
	prev := h.Manager()
	if prev == m {
		return nil
	}
	if prev != nil {
		prev.Remove(h)
	}
	m.mu.Lock()
	msgs, err := m.addLocked(h)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.enqueue(msgs...)
	return nil
}

func (m *Manager) addLocked(h Handle) ([]message.Message, error) {
	id := h.ID()
	if len(id) == 0 {
		return nil, ErrNoID
	}
	if _, ok := m.byID[string(id)]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, log.FormatID(id))
	}
	index, err := m.allocIndexLocked()
	if err != nil {
		return nil, err
	}
	m.byID[string(id)] = h
	m.byIndex[index] = h
	msgs := h.attach(m, index, m.Now())
	m.logger.Debug("timeline added",
		log.ZID(id),
		zap.Uint16("index", index),
		zap.Stringer("type", h.ValueType()),
	)
	return msgs, nil
}

// allocIndexLocked hands out indices in increasing order, wrapping at the
// end of the range and skipping indices in use.
func (m *Manager) allocIndexLocked() (uint16, error) {
	if len(m.byIndex) > math.MaxUint16 {
		return 0, ErrIndexExhausted
	}
	for {
		index := m.nextIndex
		m.nextIndex++
		if _, used := m.byIndex[index]; !used {
			return index, nil
		}
	}
}

// Remove unregisters h and tells the synchronizer it is gone.
func (m *Manager) Remove(h Handle) bool {
	m.mu.Lock()
	index, ok := h.detach(m)
	if ok {
		delete(m.byID, string(h.ID()))
		delete(m.byIndex, index)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.enqueue(message.New(message.DisconnectTimeline, message.EncodeIndex(index), message.ReliableOrdered))
	m.logger.Debug("timeline removed", log.ZID(h.ID()), zap.Uint16("index", index))
	return true
}

// RemoveID unregisters the timeline with the given id.
func (m *Manager) RemoveID(id []byte) bool {
	h, ok := m.Lookup(id)
	if !ok {
		return false
	}
	return m.Remove(h)
}

// Clear unregisters every timeline.
func (m *Manager) Clear() {
	for _, h := range m.Timelines() {
		m.Remove(h)
	}
}

// Timelines returns the registered timelines ordered by index.
func (m *Manager) Timelines() []Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	handles := make([]Handle, 0, len(m.byIndex))
	for _, index := range slices.Sorted(maps.Keys(m.byIndex)) {
		handles = append(handles, m.byIndex[index])
	}
	return handles
}

// TimelinesTagged returns the registered timelines carrying tag.
func (m *Manager) TimelinesTagged(tag string) []Handle {
	var tagged []Handle
	for _, h := range m.Timelines() {
		if h.HasTag(tag) {
			tagged = append(tagged, h)
		}
	}
	return tagged
}

// TimelinesOwnedBy returns the registered timelines whose owner is owner.
func (m *Manager) TimelinesOwnedBy(owner any) []Handle {
	var owned []Handle
	for _, h := range m.Timelines() {
		if h.Owner() == owner {
			owned = append(owned, h)
		}
	}
	return owned
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Step advances now by dt seconds plus a share of the pending clock
// correction, then steps every timeline. Now never decreases and the
// correction never overshoots the target offset.
func (m *Manager) Step(dt float64) {
	m.clockMu.Lock()
	totalError := m.targetOffset - m.timeOffset
	minAllowed := -dt
	rate := totalError * m.cfg.CorrectionFactor
	rate = sign(rate) * math.Max(m.cfg.MinCorrectionRate, math.Abs(rate))
	correction := rate * dt
	if totalError >= 0 {
		correction = math.Min(correction, totalError)
	} else {
		correction = math.Max(correction, totalError)
	}
	correction = math.Max(correction, minAllowed)
	m.now += dt + correction
	m.timeOffset += correction
	now, offset := m.now, m.timeOffset
	m.clockMu.Unlock()

	clockOffset.Set(offset)
	for _, h := range m.Timelines() {
		h.stepAt(now)
	}
}

// StepElapsed calls Step with the wall clock time since the previous call.
// The first call only records the time.
func (m *Manager) StepElapsed() {
	m.clockMu.Lock()
	current := m.clock.Now()
	var dt float64
	if !m.lastStep.IsZero() {
		dt = current.Sub(m.lastStep).Seconds()
	}
	m.lastStep = current
	m.clockMu.Unlock()
	m.Step(dt)
}

// ProcessIncomingMessage applies a message received from the synchronizer.
// Malformed messages are dropped.
func (m *Manager) ProcessIncomingMessage(msg message.Message) {
	processedMessages.WithLabelValues(msg.Type.String()).Inc()
	switch msg.Type {
	case message.SetAbsolute, message.SetCachedAbsolute, message.SetRelative, message.SetCachedRelative:
		m.processSet(msg)
	case message.InitializePeer:
		now, err := message.DecodeTime(msg.Payload)
		if err != nil {
			m.drop(msg, reasonDecode, err)
			return
		}
		m.SetNow(now)
		m.logger.Debug("clock initialized", zap.Float64("now", now))
	case message.ClockSyncPing:
		if len(msg.Payload) < 8 {
			m.drop(msg, reasonDecode, message.ErrTruncated)
			return
		}
		m.clockMu.Lock()
		local := m.now - m.timeOffset
		m.clockMu.Unlock()
		payload := append(append([]byte(nil), msg.Payload[:8]...), message.EncodeTime(local)...)
		m.enqueue(message.New(message.ClockSyncPong, payload, message.Unreliable))
	case message.ClockSyncCorrection:
		offset, err := message.DecodeCorrection(msg.Payload)
		if err != nil {
			m.drop(msg, reasonDecode, err)
			return
		}
		m.SetTargetOffset(float64(offset))
		clockTarget.Set(float64(offset))
	default:
		m.drop(msg, reasonUnexpected, nil)
	}
}

func (m *Manager) processSet(msg message.Message) {
	set, err := message.DecodeSet(msg.Payload)
	if err != nil {
		m.drop(msg, reasonDecode, err)
		return
	}
	h, ok := m.LookupIndex(set.Index)
	if !ok {
		m.drop(msg, reasonUnknownIndex, nil)
		return
	}
	absolute := msg.Type == message.SetAbsolute || msg.Type == message.SetCachedAbsolute
	cached := msg.Type == message.SetCachedAbsolute || msg.Type == message.SetCachedRelative
	if err := h.RemoteSet(set.Time, set.Value, absolute, cached); err != nil {
		m.drop(msg, reasonValue, err)
	}
}

func (m *Manager) drop(msg message.Message, reason string, err error) {
	droppedMessages.WithLabelValues(reason).Inc()
	m.logger.Debug("dropped message",
		zap.Inline(msg),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

func (m *Manager) enqueue(msgs ...message.Message) {
	if len(msgs) == 0 {
		return
	}
	m.outMu.Lock()
	defer m.outMu.Unlock()
	m.outgoing = append(m.outgoing, msgs...)
}

// GetOutgoingMessages drains the outgoing queue.
func (m *Manager) GetOutgoingMessages() []message.Message {
	m.outMu.Lock()
	defer m.outMu.Unlock()
	msgs := m.outgoing
	m.outgoing = nil
	return msgs
}
