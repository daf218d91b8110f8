package timeline

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newFloat(tb testing.TB, opts ...Opt) *Timeline[float64] {
	tb.Helper()
	return New[float64](StringID("test"), opts...)
}

func TestGet(t *testing.T) {
	tl := newFloat(t)
	require.Zero(t, tl.Get(1, true))

	tl.Insert(1, 10, true)
	tl.Insert(3, 30, true)

	for _, tc := range []struct {
		desc string
		at   float64
		want float64
	}{
		{desc: "before first", at: 0.5, want: 10},
		{desc: "on first", at: 1, want: 10},
		{desc: "between", at: 2, want: 20},
		{desc: "quarter", at: 1.5, want: 15},
		{desc: "on last", at: 3, want: 30},
		{desc: "after last", at: 5, want: 30},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			require.InDelta(t, tc.want, tl.Get(tc.at, true), 1e-9)
		})
	}
}

func TestGetRelative(t *testing.T) {
	tl := newFloat(t)
	require.NoError(t, tl.SetNow(10))
	tl.Insert(1, 5, false)
	require.Equal(t, 11.0, tl.FirstEntry().Time())
	require.Equal(t, 5.0, tl.Get(1, false))
	require.Equal(t, 5.0, tl.Get(11, true))
}

func TestDuplicateTimesLastInsertedWins(t *testing.T) {
	tl := newFloat(t)
	tl.Insert(1, 10, true)
	tl.Insert(1, 20, true)
	require.Equal(t, 2, tl.NumEntries())
	require.Equal(t, 20.0, tl.Get(1, true))

	first, _ := tl.FirstValue()
	last, _ := tl.LastValue()
	require.Equal(t, 10.0, first)
	require.Equal(t, 20.0, last)
}

func TestOutOfOrderInsert(t *testing.T) {
	tl := newFloat(t)
	for _, tm := range []float64{3, 1, 2, 5, 4} {
		tl.Insert(tm, tm*10, true)
	}
	var times []float64
	for e := tl.FirstEntry(); e != nil; e = e.Next() {
		times = append(times, e.Time())
	}
	require.Equal(t, []float64{1, 2, 3, 4, 5}, times)
	require.Equal(t, 25.0, tl.Get(2.5, true))
}

func TestGuaranteeSize(t *testing.T) {
	tl := newFloat(t, WithMaxEntries(3))
	for i := 1; i <= 5; i++ {
		tl.Insert(float64(i), float64(i), true)
	}
	require.Equal(t, 3, tl.NumEntries())
	first, ok := tl.FirstTime()
	require.True(t, ok)
	require.Equal(t, 3.0, first)
	require.Nil(t, tl.FirstEntry().Prev())

	tl.SetMaxEntries(1)
	require.Equal(t, 1, tl.NumEntries())
	last, _ := tl.LastTime()
	require.Equal(t, 5.0, last)
}

func TestGuaranteeSizeKeepsCursor(t *testing.T) {
	tl := newFloat(t, WithMaxEntries(2))
	require.NoError(t, tl.SetNow(10))
	tl.Insert(1, 1, true)
	tl.Insert(2, 2, true)
	prev, _ := tl.PrevTime()
	require.Equal(t, 2.0, prev)

	tl.Insert(20, 20, true)
	tl.Insert(30, 30, true)
	_, ok := tl.PrevTime()
	require.False(t, ok)
	next, ok := tl.NextTime()
	require.True(t, ok)
	require.Equal(t, 20.0, next)
}

func TestCursor(t *testing.T) {
	tl := newFloat(t)
	tl.Insert(-1, 5, true)
	tl.Insert(2, 7, true)
	prev, _ := tl.PrevValue()
	next, _ := tl.NextValue()
	require.Equal(t, 5.0, prev)
	require.Equal(t, 7.0, next)

	require.NoError(t, tl.SetNow(3))
	tl.Step()
	prev, _ = tl.PrevValue()
	require.Equal(t, 7.0, prev)
	require.Nil(t, tl.NextEntry())

	require.NoError(t, tl.SetNow(0))
	prev, _ = tl.PrevValue()
	require.Equal(t, 5.0, prev)
	require.InDelta(t, 5+2.0/3, tl.Value(), 1e-6)
}

func TestRangeQueries(t *testing.T) {
	tl := newFloat(t)
	for i := 1; i <= 5; i++ {
		tl.Insert(float64(i), float64(i), true)
	}
	require.NoError(t, tl.SetNow(3))
	tl.Step()

	times := func(entries []*Entry[float64]) []float64 {
		var out []float64
		for _, e := range entries {
			out = append(out, e.Time())
		}
		return out
	}
	require.Equal(t, []float64{2, 3}, times(tl.GetRange(2, true, 4, false, true)))
	require.Equal(t, []float64{3, 4}, times(tl.GetRange(2, false, 4, true, true)))
	require.Equal(t, []float64{2, 3, 4}, times(tl.GetRange(-1, true, 1, true, false)))
	require.Empty(t, tl.GetRange(6, true, 9, true, true))

	require.Zero(t, tl.RemoveRange(6, true, 9, true, true))
	require.Equal(t, 5, tl.NumEntries())

	require.Equal(t, 2, tl.RemoveRange(2, true, 4, false, true))
	require.Empty(t, tl.GetRange(2, true, 4, false, true))
	require.Equal(t, []float64{1, 4, 5}, times(tl.GetRange(0, true, 10, true, true)))
	require.Equal(t, 3, tl.NumEntries())

	prev, _ := tl.PrevTime()
	next, _ := tl.NextTime()
	require.Equal(t, 1.0, prev)
	require.Equal(t, 4.0, next)

	require.Equal(t, 3, tl.RemoveRange(0, true, 10, true, true))
	require.Nil(t, tl.FirstEntry())
	require.Nil(t, tl.LastEntry())
	require.Nil(t, tl.PrevEntry())
	require.Nil(t, tl.NextEntry())
}

func TestStepEvents(t *testing.T) {
	tl := newFloat(t)
	var events []string
	record := func(kind string) EntryHandler[float64] {
		return func(_ *Timeline[float64], e *Entry[float64]) {
			events = append(events, kind+":"+time.Duration(e.Time()*float64(time.Second)).String())
		}
	}
	tl.OnEntryInserted(record("inserted"))
	tl.OnEntryPassed(record("passed"))
	tl.OnEntryMet(record("met"))

	tl.Insert(1, 10, true)
	tl.Insert(-1, 5, true)
	require.Empty(t, events)

	tl.Step()
	require.Equal(t, []string{"inserted:1s", "inserted:-1s", "passed:-1s"}, events)

	events = nil
	require.NoError(t, tl.SetNow(2))
	tl.Step()
	require.Equal(t, []string{"passed:1s", "met:1s"}, events)

	events = nil
	tl.Step()
	require.Empty(t, events)

	tl.ClearHandlers()
	tl.Insert(0, 1, true)
	tl.Step()
	require.Empty(t, events)
}

func TestHandlerMayInsert(t *testing.T) {
	tl := newFloat(t)
	tl.OnEntryMet(func(tl *Timeline[float64], e *Entry[float64]) {
		tl.Insert(e.Time()+10, e.Value()+1, true)
	})
	tl.Insert(1, 1, true)
	require.NoError(t, tl.SetNow(1))
	tl.Step()
	require.Equal(t, 2, tl.NumEntries())
	require.Equal(t, 2.0, tl.Get(11, true))
}

func TestSetFilters(t *testing.T) {
	t.Run("inequality", func(t *testing.T) {
		tl := newFloat(t, WithGuaranteedSends(0))
		tl.AddSendFilter(BuildInequalityFilter[float64]())
		for i, v := range []float64{1, 1, 2} {
			require.NoError(t, tl.Set(float64(i), v, true))
		}
		var sent []bool
		for e := tl.FirstEntry(); e != nil; e = e.Next() {
			sent = append(sent, e.Sent())
		}
		require.Equal(t, []bool{true, false, true}, sent)
		require.Equal(t, 2.0, tl.LastSentEntry().Value())
		require.Equal(t, 0.0, tl.LastLastSentEntry().Time())
	})
	t.Run("guaranteed sends bypass filters", func(t *testing.T) {
		tl := newFloat(t, WithGuaranteedSends(2))
		tl.AddSendFilter(func(*Timeline[float64], *Entry[float64]) bool { return false })
		for i := range 3 {
			require.NoError(t, tl.Set(float64(i), float64(i), true))
		}
		require.Equal(t, 1.0, tl.LastSentEntry().Time())
		require.Zero(t, tl.GuaranteedSends())
		require.Equal(t, 3, tl.NumEntries())
	})
	t.Run("cleared", func(t *testing.T) {
		tl := newFloat(t, WithGuaranteedSends(0))
		tl.AddSendFilter(func(*Timeline[float64], *Entry[float64]) bool { return false })
		tl.ClearSendFilters()
		require.NoError(t, tl.Set(0, 1, true))
		require.NotNil(t, tl.LastSentEntry())
	})
}

func TestRateFilter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := newFloat(t, WithGuaranteedSends(0), WithClock(clock))
	tl.AddSendFilter(BuildRateFilter[float64](Constant(2)))

	require.NoError(t, tl.Set(0, 1, true))
	require.Equal(t, 0.0, tl.LastSentEntry().Time())
	require.Equal(t, clock.Now(), tl.LastSendTime())

	require.NoError(t, tl.Set(1, 2, true))
	require.Equal(t, 0.0, tl.LastSentEntry().Time())

	clock.Advance(500 * time.Millisecond)
	require.NoError(t, tl.Set(2, 3, true))
	require.Equal(t, 2.0, tl.LastSentEntry().Time())
}

func absDelta(a, b float64) float32 {
	if a > b {
		return float32(a - b)
	}
	return float32(b - a)
}

func TestDeltaFilter(t *testing.T) {
	tl := newFloat(t, WithGuaranteedSends(0))
	tl.AddSendFilter(BuildDeltaFilter(absDelta, Constant(1)))
	var sent []float64
	for i, v := range []float64{0, 0.5, 1, 1.5} {
		require.NoError(t, tl.Set(float64(i), v, true))
		sent = append(sent, tl.LastSentEntry().Value())
	}
	require.Equal(t, []float64{0, 0, 0, 1.5}, sent)
}

func TestExtrapolatedDeltaFilter(t *testing.T) {
	tl := newFloat(t, WithGuaranteedSends(0))
	add, scale := NumberOps[float64]()
	tl.SetFunctions(Functions[float64]{Extrapolate: BuildLinearExtrapolator(add, scale, Unbounded)})
	tl.AddSendFilter(BuildExtrapolatedDeltaFilter(absDelta, Constant(0.5)))

	var sent []float64
	for i, v := range []float64{0, 1, 2, 5} {
		require.NoError(t, tl.Set(float64(i), v, true))
		sent = append(sent, tl.LastSentEntry().Time())
	}
	// 2 at t=2 lies on the line through the first two sends.
	require.Equal(t, []float64{0, 1, 1, 3}, sent)
}

func TestDeltaRateFilter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := newFloat(t, WithGuaranteedSends(0), WithClock(clock))
	tl.AddSendFilter(BuildDeltaRateFilter(absDelta, Constant(10), Constant(1)))

	require.NoError(t, tl.Set(0, 0, true))
	require.Equal(t, 0.0, tl.LastSentEntry().Time())

	require.NoError(t, tl.Set(1, 0, true))
	require.Equal(t, 0.0, tl.LastSentEntry().Time())

	clock.Advance(time.Second)
	require.NoError(t, tl.Set(2, 0, true))
	require.Equal(t, 2.0, tl.LastSentEntry().Time())
}

func TestRemoteSet(t *testing.T) {
	encode := func(v float64) []byte {
		b, err := New[float64](nil).Functions().Encode(v)
		require.NoError(t, err)
		return b
	}

	for _, tc := range []struct {
		desc         string
		ignoreCached bool
		cached       bool
		events       int
	}{
		{desc: "live", events: 1},
		{desc: "cached", cached: true, events: 1},
		{desc: "cached ignored", ignoreCached: true, cached: true, events: 0},
		{desc: "live with ignore", ignoreCached: true, events: 1},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			tl := newFloat(t, WithIgnoreCachedEvents(tc.ignoreCached))
			var remote, inserted int
			tl.OnRemoteEntryInserted(func(_ *Timeline[float64], e *Entry[float64]) {
				require.Equal(t, tc.cached, e.Cached())
				remote++
			})
			tl.OnEntryInserted(func(*Timeline[float64], *Entry[float64]) { inserted++ })

			require.NoError(t, tl.RemoteSet(1, encode(4.5), true, tc.cached))
			tl.Step()
			require.Equal(t, 4.5, tl.Get(1, true))
			require.Equal(t, tc.events, remote)
			require.Equal(t, tc.events, inserted)
		})
	}

	t.Run("short value", func(t *testing.T) {
		tl := newFloat(t)
		require.ErrorIs(t, tl.RemoteSet(1, []byte{1, 2}, true, false), ErrShortValue)
		require.Zero(t, tl.NumEntries())
	})
}

func TestAttributes(t *testing.T) {
	tl := New[int32](NumericID(513), WithTags("b", "a"), WithCacheSize(7))
	id, ok := tl.NumericID()
	require.True(t, ok)
	require.EqualValues(t, 513, id)
	require.Equal(t, []byte{1, 2}, tl.ID())
	require.Equal(t, []string{"a", "b"}, tl.Tags())
	require.True(t, tl.HasTag("a"))
	require.False(t, tl.HasTag("c"))
	require.EqualValues(t, 7, tl.CacheSize())

	tl.AddTags("c")
	require.True(t, tl.HasTag("c"))

	owner := &struct{ name string }{"player"}
	tl.SetOwner(owner)
	require.Same(t, owner, tl.Owner())

	require.NoError(t, tl.SetStringID("pos"))
	require.Equal(t, "pos", tl.StringID())
	_, ok = tl.NumericID()
	require.False(t, ok)

	tl.SetTimestampMode(TimestampRelative)
	require.Equal(t, "relative", tl.TimestampMode().String())
}
