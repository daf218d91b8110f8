package timeline

// Get returns the value at tm. Interpolators and extrapolators run with the
// timeline locked and must not call back into it.
func (t *Timeline[T]) Get(tm float64, absolute bool) T {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	if t.first == nil {
		return zero
	}
	at := t.absolute(tm, absolute)

	ctx := &Context[T]{Time: at}
	if at == t.now {
		ctx.Prev = t.prev
	} else {
		ctx.Prev = t.last
		for ctx.Prev != nil && ctx.Prev.time > at {
			ctx.Prev = ctx.Prev.prev
		}
	}
	if ctx.Prev == nil {
		return t.first.value
	}
	if ctx.Prev.time == at {
		return ctx.Prev.value
	}
	ctx.Next = ctx.Prev.next
	ctx.PrevPrev = ctx.Prev.prev
	if ctx.Next == nil {
		return t.fns.Extrapolate(t, ctx)
	}
	return t.fns.Interpolate(t, ctx)
}

// Value is the value at now.
func (t *Timeline[T]) Value() T {
	return t.Get(0, false)
}

// ExtrapolateFrom runs the extrapolator as if prev and prevPrev were the
// latest entries.
func (t *Timeline[T]) ExtrapolateFrom(prev, prevPrev *Entry[T], tm float64) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fns.Extrapolate(t, &Context[T]{Time: tm, Prev: prev, PrevPrev: prevPrev})
}

func afterStart(tm, start float64, inclusive bool) bool {
	return tm > start || (inclusive && tm == start)
}

func beforeEnd(tm, end float64, inclusive bool) bool {
	return tm < end || (inclusive && tm == end)
}

// GetRange returns the entries between start and end in time order.
func (t *Timeline[T]) GetRange(start float64, startInclusive bool, end float64, endInclusive bool, absolute bool) []*Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, end = t.absolute(start, absolute), t.absolute(end, absolute)

	var entries []*Entry[T]
	for e := t.first; e != nil && beforeEnd(e.time, end, endInclusive); e = e.next {
		if afterStart(e.time, start, startInclusive) {
			entries = append(entries, e)
		}
	}
	return entries
}

// RemoveRange deletes the entries between start and end and returns how
// many were removed.
func (t *Timeline[T]) RemoveRange(start float64, startInclusive bool, end float64, endInclusive bool, absolute bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, end = t.absolute(start, absolute), t.absolute(end, absolute)

	lo := t.first
	for lo != nil && !afterStart(lo.time, start, startInclusive) {
		lo = lo.next
	}
	var (
		hi          *Entry[T]
		n           int
		prevRemoved bool
		nextRemoved bool
	)
	for e := lo; e != nil && beforeEnd(e.time, end, endInclusive); e = e.next {
		hi = e
		n++
		prevRemoved = prevRemoved || e == t.prev
		nextRemoved = nextRemoved || e == t.next
	}
	if n == 0 {
		return 0
	}

	before, after := lo.prev, hi.next
	if before != nil {
		before.next = after
	} else {
		t.first = after
	}
	if after != nil {
		after.prev = before
	} else {
		t.last = before
	}
	lo.prev, hi.next = nil, nil
	t.numEntries -= n

	if prevRemoved {
		t.prev = before
	}
	if nextRemoved {
		t.next = after
	}
	return n
}

func (t *Timeline[T]) FirstEntry() *Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.first
}

func (t *Timeline[T]) LastEntry() *Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// PrevEntry is the latest entry at or before now.
func (t *Timeline[T]) PrevEntry() *Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prev
}

// NextEntry is the earliest entry after now.
func (t *Timeline[T]) NextEntry() *Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

func timeOf[T any](e *Entry[T]) (float64, bool) {
	if e == nil {
		return 0, false
	}
	return e.time, true
}

func valueOf[T any](e *Entry[T]) (T, bool) {
	if e == nil {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (t *Timeline[T]) FirstTime() (float64, bool) { return timeOf(t.FirstEntry()) }
func (t *Timeline[T]) LastTime() (float64, bool)  { return timeOf(t.LastEntry()) }
func (t *Timeline[T]) PrevTime() (float64, bool)  { return timeOf(t.PrevEntry()) }
func (t *Timeline[T]) NextTime() (float64, bool)  { return timeOf(t.NextEntry()) }

func (t *Timeline[T]) FirstValue() (T, bool) { return valueOf(t.FirstEntry()) }
func (t *Timeline[T]) LastValue() (T, bool)  { return valueOf(t.LastEntry()) }
func (t *Timeline[T]) PrevValue() (T, bool)  { return valueOf(t.PrevEntry()) }
func (t *Timeline[T]) NextValue() (T, bool)  { return valueOf(t.NextEntry()) }
