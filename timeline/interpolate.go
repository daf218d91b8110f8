package timeline

import "math"

type (
	// Add sums two values.
	Add[T any] func(a, b T) T
	// Scale multiplies a value by a factor.
	Scale[T any] func(v T, f float32) T
)

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func addNumber[N number](a, b N) N { return a + b }

func scaleNumber[N number](v N, f float32) N { return N(float64(v) * float64(f)) }

// NumberOps returns Add and Scale for a numeric type.
func NumberOps[N number]() (Add[N], Scale[N]) {
	return addNumber[N], scaleNumber[N]
}

// Stepping holds the previous value until the next one is reached.
func Stepping[T any](_ *Timeline[T], ctx *Context[T]) T {
	if ctx.Prev == nil {
		var zero T
		return zero
	}
	return ctx.Prev.value
}

func lerp[T any](add Add[T], scale Scale[T], a, b T, factorB float32) T {
	return add(scale(a, 1-factorB), scale(b, factorB))
}

// BuildLinearInterpolator interpolates linearly between the bracketing entries.
func BuildLinearInterpolator[T any](add Add[T], scale Scale[T]) Interpolator[T] {
	return func(_ *Timeline[T], ctx *Context[T]) T {
		tPrev, tNext := ctx.Prev.time, ctx.Next.time
		factorNext := float32((ctx.Time - tPrev) / (tNext - tPrev))
		return lerp(add, scale, ctx.Prev.value, ctx.Next.value, factorNext)
	}
}

// Unbounded disables the time jump limit of linear extrapolation.
const Unbounded = float32(math.MaxFloat32)

// BuildLinearExtrapolator projects the line through the two latest entries.
// The projection never reaches further than maxTimeJump past the latest entry.
func BuildLinearExtrapolator[T any](add Add[T], scale Scale[T], maxTimeJump float32) Extrapolator[T] {
	return func(_ *Timeline[T], ctx *Context[T]) T {
		prev, prevPrev := ctx.Prev, ctx.PrevPrev
		if prev == nil {
			var zero T
			return zero
		}
		if prevPrev == nil || prevPrev.time == prev.time {
			return prev.value
		}
		tPrevPrev, tPrev := prevPrev.time, prev.time
		jump := min(maxTimeJump, float32(ctx.Time-tPrev))
		t := tPrev + float64(jump)
		factorPrevPrev := float32((tPrev - t) / (tPrev - tPrevPrev))
		return add(scale(prevPrev.value, factorPrevPrev), scale(prev.value, 1-factorPrevPrev))
	}
}

// lagrange fits a parabola through three points and evaluates it at t.
func lagrange[T any](add Add[T], scale Scale[T], t float64, e0, e1, e2 *Entry[T]) T {
	t0, t1, t2 := e0.time, e1.time, e2.time
	l0 := float32(((t - t1) * (t - t2)) / ((t0 - t1) * (t0 - t2)))
	l1 := float32(((t - t0) * (t - t2)) / ((t1 - t0) * (t1 - t2)))
	l2 := float32(((t - t0) * (t - t1)) / ((t2 - t0) * (t2 - t1)))
	return add(scale(e0.value, l0), add(scale(e1.value, l1), scale(e2.value, l2)))
}

// BuildQuadraticInterpolator fits a parabola through the entry before
// ctx.Prev, ctx.Prev and ctx.Next. Entries sharing ctx.Prev's time are
// skipped; without such an entry it interpolates linearly.
func BuildQuadraticInterpolator[T any](add Add[T], scale Scale[T]) Interpolator[T] {
	return func(_ *Timeline[T], ctx *Context[T]) T {
		prevPrev := ctx.Prev.prev
		for prevPrev != nil && prevPrev.time >= ctx.Prev.time {
			prevPrev = prevPrev.prev
		}
		if prevPrev == nil {
			factorNext := float32((ctx.Time - ctx.Prev.time) / (ctx.Next.time - ctx.Prev.time))
			return lerp(add, scale, ctx.Prev.value, ctx.Next.value, factorNext)
		}
		return lagrange(add, scale, ctx.Time, prevPrev, ctx.Prev, ctx.Next)
	}
}

// BuildQuadraticExtrapolator fits a parabola through the three latest entries
// and degrades to linear, then to holding the value, when fewer distinct
// points exist.
func BuildQuadraticExtrapolator[T any](add Add[T], scale Scale[T]) Extrapolator[T] {
	return func(_ *Timeline[T], ctx *Context[T]) T {
		p := ctx.Prev
		if p == nil {
			var zero T
			return zero
		}
		pp := p.prev
		if pp == nil || pp.time == p.time {
			return p.value
		}
		ppp := pp.prev
		if ppp == nil || ppp.time == pp.time {
			factorPrevPrev := float32((p.time - ctx.Time) / (p.time - pp.time))
			return add(scale(pp.value, factorPrevPrev), scale(p.value, 1-factorPrevPrev))
		}
		return lagrange(add, scale, ctx.Time, ppp, pp, p)
	}
}
