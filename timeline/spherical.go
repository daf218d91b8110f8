package timeline

import "github.com/spacemeshos/go-janus/geom"

// Spherical describes a rotation-like value type.
type Spherical[T any] struct {
	// Slerp interpolates along a great circle. f may lie outside [0, 1].
	Slerp func(a, b T, f float32) T
	// Delta is the rotation that carries from onto to.
	Delta func(from, to T) geom.Quat
	// Apply rotates v by q.
	Apply func(q geom.Quat, v T) T
}

// BuildSphericalInterpolator interpolates proportionally along the great
// circle between the bracketing entries.
func BuildSphericalInterpolator[T any](s Spherical[T]) Interpolator[T] {
	return func(_ *Timeline[T], ctx *Context[T]) T {
		f := float32((ctx.Time - ctx.Prev.time) / (ctx.Next.time - ctx.Prev.time))
		return s.Slerp(ctx.Prev.value, ctx.Next.value, f)
	}
}

// BuildSphericalExtrapolator continues the rotation between the two latest
// entries at the same angular velocity.
func BuildSphericalExtrapolator[T any](s Spherical[T]) Extrapolator[T] {
	return func(_ *Timeline[T], ctx *Context[T]) T {
		prev, prevPrev := ctx.Prev, ctx.PrevPrev
		if prev == nil {
			var zero T
			return zero
		}
		if prevPrev == nil || prevPrev.time == prev.time {
			return prev.value
		}
		t12 := float32(prev.time - prevPrev.time)
		t13 := float32(ctx.Time - prevPrev.time)
		angle, axis := s.Delta(prevPrev.value, prev.value).ToAngleAxis()
		rot := geom.AngleAxis(angle/t12*t13, axis)
		return s.Apply(rot, prevPrev.value)
	}
}

// QuaternionOps treats values as orientations.
var QuaternionOps = Spherical[geom.Quat]{
	Slerp: geom.Slerp,
	Delta: func(from, to geom.Quat) geom.Quat {
		return to.Mul(from.Inverse())
	},
	Apply: func(q, v geom.Quat) geom.Quat {
		return q.Mul(v)
	},
}

// DirectionOps treats vectors as directions with a magnitude.
var DirectionOps = Spherical[geom.Vec3]{
	Slerp: geom.SlerpVec,
	Delta: geom.FromTo,
	Apply: func(q geom.Quat, v geom.Vec3) geom.Vec3 {
		return q.Rotate(v)
	},
}

// AngleOps treats values as planar angles in degrees.
var AngleOps = Spherical[float32]{
	Slerp: geom.SlerpAngle,
	Delta: func(from, to float32) geom.Quat {
		q1 := geom.EulerZ(geom.NormalizeAngle(from))
		q2 := geom.EulerZ(geom.NormalizeAngle(to))
		return q2.Mul(q1.Inverse())
	},
	Apply: func(q geom.Quat, v float32) float32 {
		return q.Mul(geom.EulerZ(geom.NormalizeAngle(v))).AngleZ()
	},
}

// RegisterGeometry registers vectors and quaternions into r. Vectors
// interpolate linearly; quaternions use the spherical functions.
func RegisterGeometry(r *Registry) {
	Register(r, Functions[geom.Vec3]{
		Encode: func(v geom.Vec3) ([]byte, error) {
			return appendFloat32s(nil, v.X, v.Y, v.Z), nil
		},
		Decode: func(b []byte) (geom.Vec3, error) {
			f, err := readFloat32s[geom.Vec3](b, 3)
			if err != nil {
				return geom.Vec3{}, err
			}
			return geom.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
		},
		Interpolate: BuildLinearInterpolator(addVec, scaleVec),
		Extrapolate: BuildLinearExtrapolator(addVec, scaleVec, Unbounded),
	})
	Register(r, Functions[geom.Quat]{
		Encode: func(q geom.Quat) ([]byte, error) {
			return appendFloat32s(nil, q.X, q.Y, q.Z, q.W), nil
		},
		Decode: func(b []byte) (geom.Quat, error) {
			f, err := readFloat32s[geom.Quat](b, 4)
			if err != nil {
				return geom.Quat{}, err
			}
			return geom.Quat{X: f[0], Y: f[1], Z: f[2], W: f[3]}, nil
		},
		Interpolate: BuildSphericalInterpolator(QuaternionOps),
		Extrapolate: BuildSphericalExtrapolator(QuaternionOps),
	})
}

func addVec(a, b geom.Vec3) geom.Vec3 { return a.Add(b) }

func scaleVec(v geom.Vec3, f float32) geom.Vec3 { return v.Scale(f) }
