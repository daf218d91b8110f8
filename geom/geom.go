// Package geom implements the small amount of 3D rotation math needed to
// interpolate orientation-like timeline values.
package geom

import "math"

const (
	epsilon  = 1e-6
	rad2deg  = 180 / math.Pi
	deg2rad  = math.Pi / 180
	dotLimit = 0.9995
)

// Vec3 is a three component vector.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(f float32) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Len() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns v scaled to unit length, or the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < epsilon {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Distance between two points.
func Distance(a, b Vec3) float32 {
	return a.Sub(b).Len()
}

// orthogonal returns some unit vector perpendicular to v.
func orthogonal(v Vec3) Vec3 {
	axis := Vec3{X: 1}.Cross(v)
	if axis.Len() < epsilon {
		axis = Vec3{Y: 1}.Cross(v)
	}
	return axis.Normalize()
}

// SlerpVec rotates a towards b by the fraction t of the angle between them
// while interpolating the magnitude linearly. t is not clamped.
func SlerpVec(a, b Vec3, t float32) Vec3 {
	la, lb := a.Len(), b.Len()
	if la < epsilon || lb < epsilon {
		return a.Add(b.Sub(a).Scale(t))
	}
	na, nb := a.Scale(1/la), b.Scale(1/lb)
	dot := clamp(na.Dot(nb), -1, 1)
	length := la + (lb-la)*t
	if dot > dotLimit {
		return na.Add(nb.Sub(na).Scale(t)).Normalize().Scale(length)
	}
	angle := float32(math.Acos(float64(dot)))
	var axis Vec3
	if dot < -dotLimit {
		axis = orthogonal(na)
	} else {
		axis = na.Cross(nb).Normalize()
	}
	return AngleAxis(angle*t*rad2deg, axis).Rotate(na).Scale(length)
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}

// NormalizeAngle maps a into (-180, 180] degrees.
func NormalizeAngle(a float32) float32 {
	for a > 180 {
		a -= 360
	}
	for a <= -180 {
		a += 360
	}
	return a
}
