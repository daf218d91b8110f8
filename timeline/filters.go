package timeline

// Delta measures how far apart two values are.
type Delta[T any] func(a, b T) float32

func (t *Timeline[T]) sinceLastSend() float64 {
	return t.clock.Since(t.LastSendTime()).Seconds()
}

// BuildRateFilter limits sends to rate per second of wall clock time.
func BuildRateFilter[T any](rate func() float32) SendFilter[T] {
	return func(tl *Timeline[T], _ *Entry[T]) bool {
		return tl.sinceLastSend() >= float64(1/rate())
	}
}

// BuildInequalityFilter only sends values that differ from the last sent one.
func BuildInequalityFilter[T comparable]() SendFilter[T] {
	return func(tl *Timeline[T], e *Entry[T]) bool {
		last := tl.LastSentEntry()
		return last == nil || last.value != e.value
	}
}

// BuildDeltaFilter only sends values further than threshold from the last
// sent one.
func BuildDeltaFilter[T any](delta Delta[T], threshold func() float32) SendFilter[T] {
	return func(tl *Timeline[T], e *Entry[T]) bool {
		last := tl.LastSentEntry()
		return last == nil || delta(e.value, last.value) > threshold()
	}
}

func extrapolatedDelta[T any](tl *Timeline[T], e *Entry[T], delta Delta[T]) float32 {
	tl.mu.Lock()
	prev, prevPrev := tl.lastSent, tl.lastLastSent
	tl.mu.Unlock()
	return delta(e.value, tl.ExtrapolateFrom(prev, prevPrev, e.time))
}

// BuildExtrapolatedDeltaFilter only sends values further than threshold from
// what receivers would extrapolate from the values already sent.
func BuildExtrapolatedDeltaFilter[T any](delta Delta[T], threshold func() float32) SendFilter[T] {
	return func(tl *Timeline[T], e *Entry[T]) bool {
		if tl.LastSentEntry() == nil {
			return true
		}
		return extrapolatedDelta(tl, e, delta) > threshold()
	}
}

// BuildDeltaRateFilter combines the extrapolated delta filter with a periodic
// resend at rate per second.
func BuildDeltaRateFilter[T any](delta Delta[T], threshold, rate func() float32) SendFilter[T] {
	return func(tl *Timeline[T], e *Entry[T]) bool {
		return extrapolatedDelta(tl, e, delta) > threshold() ||
			tl.sinceLastSend() >= float64(1/rate())
	}
}

// Constant adapts a fixed parameter to the filter builders.
func Constant(v float32) func() float32 {
	return func() float32 { return v }
}
