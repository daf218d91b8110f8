package timeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-janus/geom"
)

func TestLinearExtrapolation(t *testing.T) {
	add, scale := NumberOps[float64]()
	for _, tc := range []struct {
		desc    string
		maxJump float32
		entries [][2]float64
		at      float64
		want    float64
	}{
		{desc: "single entry holds", maxJump: Unbounded, entries: [][2]float64{{1, 5}}, at: 3, want: 5},
		{desc: "line", maxJump: Unbounded, entries: [][2]float64{{0, 0}, {1, 2}}, at: 3, want: 6},
		{desc: "jump capped", maxJump: 1, entries: [][2]float64{{0, 0}, {1, 2}}, at: 10, want: 4},
		{desc: "same time holds", maxJump: Unbounded, entries: [][2]float64{{1, 1}, {1, 3}}, at: 2, want: 3},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			tl := newFloat(t)
			tl.SetFunctions(Functions[float64]{Extrapolate: BuildLinearExtrapolator(add, scale, tc.maxJump)})
			for _, e := range tc.entries {
				tl.Insert(e[0], e[1], true)
			}
			require.InDelta(t, tc.want, tl.Get(tc.at, true), 1e-6)
		})
	}
}

func TestQuadratic(t *testing.T) {
	add, scale := NumberOps[float64]()
	quadratic := Functions[float64]{
		Interpolate: BuildQuadraticInterpolator(add, scale),
		Extrapolate: BuildQuadraticExtrapolator(add, scale),
	}
	square := func(tl *Timeline[float64], times ...float64) {
		for _, tm := range times {
			tl.Insert(tm, tm*tm, true)
		}
	}

	t.Run("interpolate parabola", func(t *testing.T) {
		tl := newFloat(t)
		tl.SetFunctions(quadratic)
		square(tl, 0, 1, 2)
		require.InDelta(t, 2.25, tl.Get(1.5, true), 1e-6)
	})
	t.Run("interpolate skips entries sharing prev time", func(t *testing.T) {
		tl := newFloat(t)
		tl.SetFunctions(quadratic)
		square(tl, 0, 1, 1, 2)
		require.InDelta(t, 2.25, tl.Get(1.5, true), 1e-6)
	})
	t.Run("interpolate falls back to linear", func(t *testing.T) {
		tl := newFloat(t)
		tl.SetFunctions(quadratic)
		square(tl, 1, 1, 2)
		require.InDelta(t, 2.5, tl.Get(1.5, true), 1e-6)
	})
	t.Run("extrapolate parabola", func(t *testing.T) {
		tl := newFloat(t)
		tl.SetFunctions(quadratic)
		square(tl, 0, 1, 2)
		require.InDelta(t, 9, tl.Get(3, true), 1e-5)
	})
	t.Run("extrapolate degrades to linear", func(t *testing.T) {
		tl := newFloat(t)
		tl.SetFunctions(quadratic)
		square(tl, 1, 2)
		require.InDelta(t, 7, tl.Get(3, true), 1e-6)
	})
	t.Run("extrapolate holds single entry", func(t *testing.T) {
		tl := newFloat(t)
		tl.SetFunctions(quadratic)
		square(tl, 2)
		require.Equal(t, 4.0, tl.Get(3, true))
	})
}

func TestVectorTimeline(t *testing.T) {
	tl := New[geom.Vec3](StringID("pos"))
	tl.Insert(0, geom.Vec3{}, true)
	tl.Insert(1, geom.Vec3{X: 1, Y: 2}, true)

	mid := tl.Get(0.5, true)
	require.InDelta(t, 0.5, mid.X, 1e-6)
	require.InDelta(t, 1, mid.Y, 1e-6)

	ahead := tl.Get(3, true)
	require.InDelta(t, 3, ahead.X, 1e-5)
	require.InDelta(t, 6, ahead.Y, 1e-5)
}

func TestQuaternionTimeline(t *testing.T) {
	z := geom.Vec3{Z: 1}
	tl := New[geom.Quat](StringID("rot"))
	tl.Insert(0, geom.Identity, true)
	tl.Insert(1, geom.AngleAxis(30, z), true)

	require.InDelta(t, 15, tl.Get(0.5, true).AngleZ(), 1e-3)
	require.InDelta(t, 60, tl.Get(2, true).AngleZ(), 1e-3)
	require.InDelta(t, 90, tl.Get(3, true).AngleZ(), 1e-3)
}

func TestAngleTimeline(t *testing.T) {
	tl := New[float32](StringID("heading"))
	tl.SetFunctions(Functions[float32]{
		Interpolate: BuildSphericalInterpolator(AngleOps),
		Extrapolate: BuildSphericalExtrapolator(AngleOps),
	})
	tl.Insert(0, 170, true)
	tl.Insert(1, -150, true)

	require.InDelta(t, -170, tl.Get(0.5, true), 1e-3)
	require.InDelta(t, -110, tl.Get(2, true), 1e-3)
}

func TestDirectionTimeline(t *testing.T) {
	tl := New[geom.Vec3](StringID("dir"))
	tl.SetFunctions(Functions[geom.Vec3]{
		Interpolate: BuildSphericalInterpolator(DirectionOps),
		Extrapolate: BuildSphericalExtrapolator(DirectionOps),
	})
	tl.Insert(0, geom.Vec3{X: 1}, true)
	tl.Insert(1, geom.Vec3{Y: 1}, true)

	mid := tl.Get(0.5, true)
	require.InDelta(t, 1, mid.Len(), 1e-4)
	require.InDelta(t, mid.X, mid.Y, 1e-4)

	back := tl.Get(2, true)
	require.InDelta(t, -1, back.X, 1e-4)
	require.InDelta(t, 0, back.Y, 1e-4)
}
