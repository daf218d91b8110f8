package geom

import "math"

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float32
}

// Identity is the rotation that changes nothing.
var Identity = Quat{W: 1}

// AngleAxis is the rotation of angle degrees around axis.
func AngleAxis(angle float32, axis Vec3) Quat {
	axis = axis.Normalize()
	if axis == (Vec3{}) {
		return Identity
	}
	half := float64(angle) * deg2rad / 2
	s := float32(math.Sin(half))
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, float32(math.Cos(half))}
}

// EulerZ is the rotation of angle degrees around the Z axis.
func EulerZ(angle float32) Quat {
	return AngleAxis(angle, Vec3{Z: 1})
}

// FromTo is the shortest rotation carrying direction from onto direction to.
func FromTo(from, to Vec3) Quat {
	f, t := from.Normalize(), to.Normalize()
	if f == (Vec3{}) || t == (Vec3{}) {
		return Identity
	}
	d := f.Dot(t)
	if d >= 1-epsilon {
		return Identity
	}
	if d <= -1+epsilon {
		return AngleAxis(180, orthogonal(f))
	}
	c := f.Cross(t)
	return Quat{c.X, c.Y, c.Z, 1 + d}.Normalize()
}

func (q Quat) Dot(o Quat) float32 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

func (q Quat) Normalize() Quat {
	l := float32(math.Sqrt(float64(q.Dot(q))))
	if l < epsilon {
		return Identity
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Mul composes rotations: q.Mul(o) applies o first, then q.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y + q.Y*o.W + q.Z*o.X - q.X*o.Z,
		Z: q.W*o.Z + q.Z*o.W + q.X*o.Y - q.Y*o.X,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

func (q Quat) Inverse() Quat {
	n := q.Dot(q)
	if n < epsilon {
		return Identity
	}
	return Quat{-q.X / n, -q.Y / n, -q.Z / n, q.W / n}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// ToAngleAxis decomposes q into an angle in degrees and a unit axis.
func (q Quat) ToAngleAxis() (float32, Vec3) {
	q = q.Normalize()
	w := clamp(q.W, -1, 1)
	angle := 2 * float32(math.Acos(float64(w))) * rad2deg
	s := float32(math.Sqrt(float64(1 - w*w)))
	if s < epsilon {
		return angle, Vec3{X: 1}
	}
	return angle, Vec3{q.X / s, q.Y / s, q.Z / s}
}

// AngleZ is the rotation around Z of a quaternion that only rotates around Z,
// in (-180, 180] degrees.
func (q Quat) AngleZ() float32 {
	return NormalizeAngle(2 * float32(math.Atan2(float64(q.Z), float64(q.W))) * rad2deg)
}

// Slerp interpolates along the shorter great circle between a and b. t is not clamped.
func Slerp(a, b Quat, t float32) Quat {
	d := a.Dot(b)
	if d < 0 {
		b = Quat{-b.X, -b.Y, -b.Z, -b.W}
		d = -d
	}
	if d > dotLimit {
		return Quat{
			a.X + (b.X-a.X)*t,
			a.Y + (b.Y-a.Y)*t,
			a.Z + (b.Z-a.Z)*t,
			a.W + (b.W-a.W)*t,
		}.Normalize()
	}
	theta := math.Acos(float64(d))
	sin := math.Sin(theta)
	wa := float32(math.Sin((1-float64(t))*theta) / sin)
	wb := float32(math.Sin(float64(t)*theta) / sin)
	return Quat{
		a.X*wa + b.X*wb,
		a.Y*wa + b.Y*wb,
		a.Z*wa + b.Z*wb,
		a.W*wa + b.W*wb,
	}
}

// SlerpAngle interpolates between two angles in degrees around Z.
func SlerpAngle(a, b, t float32) float32 {
	return Slerp(EulerZ(NormalizeAngle(a)), EulerZ(NormalizeAngle(b)), t).AngleZ()
}
