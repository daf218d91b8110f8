// Package timeline implements time indexed value streams and the manager
// that keeps their clocks and network state in sync.
package timeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/spacemeshos/go-janus/log"
	"github.com/spacemeshos/go-janus/message"
)

const (
	DefaultMaxEntries      = 10
	DefaultCacheSize       = 3
	DefaultGuaranteedSends = 3
)

var (
	// ErrAttached is returned when an operation requires a detached timeline.
	ErrAttached = errors.New("timeline: attached to a manager")
	// ErrTypeMismatch is returned when an id is already used by a timeline of another type.
	ErrTypeMismatch = errors.New("timeline: value type mismatch")
)

// TimestampMode describes how the application addresses time on a timeline.
type TimestampMode byte

const (
	TimestampAbsolute TimestampMode = iota
	TimestampRelative
	TimestampNone
)

func (m TimestampMode) String() string {
	switch m {
	case TimestampAbsolute:
		return "absolute"
	case TimestampRelative:
		return "relative"
	case TimestampNone:
		return "none"
	}
	return fmt.Sprintf("unknown(%d)", byte(m))
}

type (
	// SendFilter decides whether a locally set entry is transmitted.
	SendFilter[T any] func(tl *Timeline[T], e *Entry[T]) bool
	// EntryHandler receives entry events during Step.
	EntryHandler[T any] func(tl *Timeline[T], e *Entry[T])
)

// StringID is the id of a timeline named by s.
func StringID(s string) []byte {
	return []byte(s)
}

// NumericID is the id of a timeline identified by n.
func NumericID(n uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, n)
}

type settings struct {
	maxEntries      int
	cacheSize       uint16
	delivery        message.DeliveryMode
	timestamp       TimestampMode
	guaranteedSends uint16
	ignoreCached    bool
	tags            []string
	registry        *Registry
	clock           clockwork.Clock
}

func defaultSettings() settings {
	return settings{
		maxEntries:      DefaultMaxEntries,
		cacheSize:       DefaultCacheSize,
		delivery:        message.DefaultDeliveryMode,
		timestamp:       TimestampAbsolute,
		guaranteedSends: DefaultGuaranteedSends,
		registry:        Builtins(),
		clock:           clockwork.NewRealClock(),
	}
}

// Opt configures a timeline on creation.
type Opt func(*settings)

// WithMaxEntries bounds the number of entries kept locally.
func WithMaxEntries(n int) Opt {
	return func(s *settings) {
		s.maxEntries = max(n, 0)
	}
}

// WithCacheSize sets the number of entries the synchronizer keeps for late subscribers.
func WithCacheSize(n uint16) Opt {
	return func(s *settings) {
		s.cacheSize = n
	}
}

func WithDeliveryMode(mode message.DeliveryMode) Opt {
	return func(s *settings) {
		s.delivery = mode
	}
}

func WithTimestampMode(mode TimestampMode) Opt {
	return func(s *settings) {
		s.timestamp = mode
	}
}

// WithGuaranteedSends sets how many initial sets bypass the send filters.
func WithGuaranteedSends(n uint16) Opt {
	return func(s *settings) {
		s.guaranteedSends = n
	}
}

// WithIgnoreCachedEvents suppresses events for entries replayed from the synchronizer cache.
func WithIgnoreCachedEvents(ignore bool) Opt {
	return func(s *settings) {
		s.ignoreCached = ignore
	}
}

func WithTags(tags ...string) Opt {
	return func(s *settings) {
		s.tags = append(s.tags, tags...)
	}
}

// WithRegistry selects the registry the value type functions are resolved from.
func WithRegistry(r *Registry) Opt {
	return func(s *settings) {
		s.registry = r
	}
}

// WithClock sets the wall clock used for send timestamps.
func WithClock(c clockwork.Clock) Opt {
	return func(s *settings) {
		s.clock = c
	}
}

// Timeline is an ordered stream of values of type T.
type Timeline[T any] struct {
	mu sync.Mutex

	id        []byte
	index     uint16
	manager   *Manager
	connected bool
	now       float64
	owner     any
	tags      map[string]struct{}

	first, last, prev, next *Entry[T]
	numEntries              int

	lastSent, lastLastSent *Entry[T]
	lastSendTime           time.Time

	maxEntries      int
	cacheSize       uint16
	delivery        message.DeliveryMode
	timestamp       TimestampMode
	guaranteedSends uint16
	ignoreCached    bool

	fns     Functions[T]
	filters []SendFilter[T]

	inserted, remoteInserted, passed []*Entry[T]

	onInserted, onRemoteInserted, onPassed, onMet []EntryHandler[T]

	clock clockwork.Clock
}

// New creates a detached timeline. The value type functions are taken from
// the registry at this point, so T must already be registered.
func New[T any](id []byte, opts ...Opt) *Timeline[T] {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	t := &Timeline[T]{
		id:              slices.Clone(id),
		tags:            map[string]struct{}{},
		maxEntries:      s.maxEntries,
		cacheSize:       s.cacheSize,
		delivery:        s.delivery,
		timestamp:       s.timestamp,
		guaranteedSends: s.guaranteedSends,
		ignoreCached:    s.ignoreCached,
		fns:             resolve[T](s.registry),
		clock:           s.clock,
	}
	for _, tag := range s.tags {
		t.tags[tag] = struct{}{}
	}
	return t
}

func (t *Timeline[T]) ID() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.id)
}

// SetID renames the timeline. Only detached timelines can be renamed.
func (t *Timeline[T]) SetID(id []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.manager != nil {
		return fmt.Errorf("rename %s: %w", log.FormatID(t.id), ErrAttached)
	}
	t.id = slices.Clone(id)
	return nil
}

func (t *Timeline[T]) StringID() string {
	return string(t.ID())
}

func (t *Timeline[T]) SetStringID(id string) error {
	return t.SetID(StringID(id))
}

// NumericID returns the id decoded as a little endian uint16, or false if
// the id has another length.
func (t *Timeline[T]) NumericID() (uint16, bool) {
	id := t.ID()
	if len(id) != 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(id), true
}

func (t *Timeline[T]) SetNumericID(id uint16) error {
	return t.SetID(NumericID(id))
}

// Index is the wire index assigned by the manager.
func (t *Timeline[T]) Index() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index
}

func (t *Timeline[T]) Manager() *Manager {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.manager
}

// Connected reports whether the subscription message has been sent.
func (t *Timeline[T]) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *Timeline[T]) ValueType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (t *Timeline[T]) Owner() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owner
}

func (t *Timeline[T]) SetOwner(owner any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owner = owner
}

// Tags returns the sorted tag set.
func (t *Timeline[T]) Tags() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	tags := make([]string, 0, len(t.tags))
	for tag := range t.tags {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

func (t *Timeline[T]) HasTag(tag string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.tags[tag]
	return ok
}

func (t *Timeline[T]) AddTags(tags ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tag := range tags {
		t.tags[tag] = struct{}{}
	}
}

func (t *Timeline[T]) Now() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

// SetNow moves the local clock of a detached timeline.
func (t *Timeline[T]) SetNow(now float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.manager != nil {
		return fmt.Errorf("set now on %s: %w", log.FormatID(t.id), ErrAttached)
	}
	t.setNowLocked(now)
	return nil
}

func (t *Timeline[T]) setNow(now float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setNowLocked(now)
}

// setNowLocked moves now. Going backwards re-derives the cursor; going
// forwards leaves the crossing to step so events fire.
func (t *Timeline[T]) setNowLocked(now float64) {
	back := now < t.now
	t.now = now
	if back {
		t.seekLocked()
	}
}

func (t *Timeline[T]) NumEntries() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numEntries
}

func (t *Timeline[T]) MaxEntries() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxEntries
}

// SetMaxEntries changes the retention bound and trims immediately.
func (t *Timeline[T]) SetMaxEntries(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maxEntries = max(n, 0)
	t.guaranteeSizeLocked()
}

func (t *Timeline[T]) CacheSize() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cacheSize
}

// SetCacheSize changes the synchronizer side retention. A connected timeline
// notifies the synchronizer.
func (t *Timeline[T]) SetCacheSize(n uint16) {
	t.mu.Lock()
	t.cacheSize = n
	mgr, connected, idx := t.manager, t.connected, t.index
	t.mu.Unlock()
	if mgr != nil && connected {
		mgr.enqueue(cacheSizeMessage(idx, n))
	}
}

func (t *Timeline[T]) DeliveryMode() message.DeliveryMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delivery
}

func (t *Timeline[T]) SetDeliveryMode(mode message.DeliveryMode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delivery = mode
}

// TimestampMode is informational; set messages always carry absolute time.
func (t *Timeline[T]) TimestampMode() TimestampMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timestamp
}

func (t *Timeline[T]) SetTimestampMode(mode TimestampMode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timestamp = mode
}

func (t *Timeline[T]) IgnoreCachedEvents() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ignoreCached
}

func (t *Timeline[T]) SetIgnoreCachedEvents(ignore bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ignoreCached = ignore
}

func (t *Timeline[T]) GuaranteedSends() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.guaranteedSends
}

func (t *Timeline[T]) SetGuaranteedSends(n uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.guaranteedSends = n
}

// Functions returns the value type functions in use.
func (t *Timeline[T]) Functions() Functions[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fns
}

// SetFunctions overrides the functions of this timeline only. Unset
// capabilities keep their current value.
func (t *Timeline[T]) SetFunctions(fns Functions[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fns.Encode != nil {
		t.fns.Encode = fns.Encode
	}
	if fns.Decode != nil {
		t.fns.Decode = fns.Decode
	}
	if fns.Interpolate != nil {
		t.fns.Interpolate = fns.Interpolate
	}
	if fns.Extrapolate != nil {
		t.fns.Extrapolate = fns.Extrapolate
	}
}

// AddSendFilter appends a filter to the chain evaluated by Set.
func (t *Timeline[T]) AddSendFilter(f SendFilter[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filters = append(t.filters, f)
}

func (t *Timeline[T]) ClearSendFilters() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filters = nil
}

// LastSentEntry is the entry most recently transmitted by Set.
func (t *Timeline[T]) LastSentEntry() *Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSent
}

// LastLastSentEntry is the entry transmitted before LastSentEntry.
func (t *Timeline[T]) LastLastSentEntry() *Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastLastSent
}

// LastSendTime is the wall clock time of the last transmission.
func (t *Timeline[T]) LastSendTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSendTime
}

func (t *Timeline[T]) absolute(tm float64, absolute bool) float64 {
	if absolute {
		return tm
	}
	return t.now + tm
}

// Insert stores a value without transmitting it.
func (t *Timeline[T]) Insert(tm float64, value T, absolute bool) *Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := &Entry[T]{time: t.absolute(tm, absolute), value: value}
	t.insertLocked(e)
	return e
}

// Set stores a value and transmits it unless a send filter rejects it. The
// entry is kept even when the send is filtered or encoding fails.
func (t *Timeline[T]) Set(tm float64, value T, absolute bool) error {
	t.mu.Lock()
	e := &Entry[T]{time: t.absolute(tm, absolute), value: value}
	t.insertLocked(e)
	guaranteed := t.guaranteedSends > 0
	filters := t.filters
	encode := t.fns.Encode
	t.mu.Unlock()

	if !guaranteed {
		for _, filter := range filters {
			if !filter(t, e) {
				return nil
			}
		}
	}

	t.mu.Lock()
	t.lastSendTime = t.clock.Now()
	e.sent = true
	t.lastLastSent, t.lastSent = t.lastSent, e
	if t.guaranteedSends > 0 {
		t.guaranteedSends--
	}
	mgr, idx, delivery, id := t.manager, t.index, t.delivery, t.id
	t.mu.Unlock()

	encoded, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode value for %s: %w", log.FormatID(id), err)
	}
	if mgr != nil {
		payload := message.SetPayload{Index: idx, Time: e.time, Value: encoded}.Encode()
		mgr.enqueue(message.New(message.RelayAbsolute, payload, delivery))
	}
	return nil
}

// RemoteSet decodes and stores a value received from the network.
func (t *Timeline[T]) RemoteSet(tm float64, value []byte, absolute, cached bool) error {
	t.mu.Lock()
	decode := t.fns.Decode
	t.mu.Unlock()

	v, err := decode(value)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	e := &Entry[T]{time: t.absolute(tm, absolute), value: v, cached: cached}
	t.insertLocked(e)
	if !(t.ignoreCached && cached) {
		t.remoteInserted = append(t.remoteInserted, e)
	}
	return nil
}

func (t *Timeline[T]) insertLocked(e *Entry[T]) {
	if t.first == nil {
		t.first, t.last = e, e
	} else {
		before := t.last
		for before != nil && before.time > e.time {
			before = before.prev
		}
		if before == nil {
			e.next = t.first
			t.first.prev = e
			t.first = e
		} else {
			e.prev = before
			e.next = before.next
			if before.next != nil {
				before.next.prev = e
			} else {
				t.last = e
			}
			before.next = e
		}
	}
	t.numEntries++

	if e.time <= t.now && (t.prev == nil || t.prev.time <= e.time) {
		t.prev = e
	}
	if e.time > t.now && (t.next == nil || t.next.time > e.time) {
		t.next = e
	}

	t.guaranteeSizeLocked()

	if !(t.ignoreCached && e.cached) {
		t.inserted = append(t.inserted, e)
		if e.time <= t.now {
			t.passed = append(t.passed, e)
		}
	}
}

// guaranteeSizeLocked drops entries from the front until the bound holds.
func (t *Timeline[T]) guaranteeSizeLocked() {
	cursorLost := false
	for t.numEntries > t.maxEntries && t.first != nil {
		e := t.first
		if e == t.prev || e == t.next {
			cursorLost = true
		}
		t.first = e.next
		e.next = nil
		t.numEntries--
	}
	if t.first == nil {
		t.last, t.prev, t.next = nil, nil, nil
		return
	}
	t.first.prev = nil
	if cursorLost {
		t.seekLocked()
	}
}

// seekLocked re-derives prev and next from scratch.
func (t *Timeline[T]) seekLocked() {
	t.next = t.first
	for t.next != nil && t.next.time <= t.now {
		t.next = t.next.next
	}
	if t.next != nil {
		t.prev = t.next.prev
	} else {
		t.prev = t.last
	}
}

// Step delivers deferred events and advances the cursor to now.
func (t *Timeline[T]) Step() {
	t.mu.Lock()
	now := t.now
	t.mu.Unlock()
	t.stepAt(now)
}

func (t *Timeline[T]) stepAt(now float64) {
	t.mu.Lock()
	t.setNowLocked(now)

	inserted, remote, passed := t.inserted, t.remoteInserted, t.passed
	t.inserted, t.remoteInserted, t.passed = nil, nil, nil
	onInserted, onRemote := t.onInserted, t.onRemoteInserted
	onPassed, onMet := t.onPassed, t.onMet

	var crossed []*Entry[T]
	for t.next != nil && t.now >= t.next.time {
		if len(onPassed) > 0 || len(onMet) > 0 {
			crossed = append(crossed, t.next)
		}
		t.next = t.next.next
	}
	if t.next != nil {
		t.prev = t.next.prev
	} else {
		t.prev = t.last
	}
	t.mu.Unlock()

	deliver(t, inserted, onInserted)
	deliver(t, remote, onRemote)
	deliver(t, passed, onPassed)
	for _, e := range crossed {
		for _, h := range onPassed {
			h(t, e)
		}
		for _, h := range onMet {
			h(t, e)
		}
	}
}

func deliver[T any](t *Timeline[T], entries []*Entry[T], handlers []EntryHandler[T]) {
	if len(handlers) == 0 {
		return
	}
	for _, e := range entries {
		for _, h := range handlers {
			h(t, e)
		}
	}
}
