package timeline

// Entry is one value of a timeline at a point in time. Time and value are
// fixed at creation; the neighbour links are owned by the timeline.
type Entry[T any] struct {
	time   float64
	value  T
	cached bool
	sent   bool

	prev, next *Entry[T]
}

func (e *Entry[T]) Time() float64 { return e.time }

func (e *Entry[T]) Value() T { return e.value }

// Cached reports whether the entry was replayed from the synchronizer cache.
func (e *Entry[T]) Cached() bool { return e.cached }

// Sent reports whether the entry was transmitted when it was set locally.
func (e *Entry[T]) Sent() bool { return e.sent }

// Prev is the preceding entry. Not safe for use concurrently with writers to
// the timeline outside of callbacks.
func (e *Entry[T]) Prev() *Entry[T] { return e.prev }

// Next is the following entry, see Prev.
func (e *Entry[T]) Next() *Entry[T] { return e.next }

// Context is the window around a queried time handed to interpolators and
// extrapolators. It is only valid for the duration of the call.
type Context[T any] struct {
	Time     float64
	Prev     *Entry[T]
	PrevPrev *Entry[T]
	Next     *Entry[T]
}
