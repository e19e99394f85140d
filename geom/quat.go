// Package geom provides the rotation and rigid-transform helpers used by the
// orbit, rotation and frame packages. Orientations are unit quaternions that
// rotate local vectors into the parent frame: v' = q v q*.
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the identity rotation.
var Identity = quat.Number{Real: 1}

var (
	XAxis = r3.Vec{X: 1}
	YAxis = r3.Vec{Y: 1}
	ZAxis = r3.Vec{Z: 1}
)

// AxisAngle returns the rotation of angle radians about axis.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	n := r3.Norm(axis)
	if n == 0 {
		return Identity
	}
	s, c := math.Sincos(angle / 2)
	k := s / n
	return quat.Number{Real: c, Imag: axis.X * k, Jmag: axis.Y * k, Kmag: axis.Z * k}
}

func XRotation(angle float64) quat.Number { return AxisAngle(XAxis, angle) }
func YRotation(angle float64) quat.Number { return AxisAngle(YAxis, angle) }
func ZRotation(angle float64) quat.Number { return AxisAngle(ZAxis, angle) }

// Mul composes rotations so that Mul(a, b) applies b first, then a.
func Mul(qs ...quat.Number) quat.Number {
	out := Identity
	for _, q := range qs {
		out = quat.Mul(out, q)
	}
	return out
}

// Rotate applies q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Normalize scales q to unit length. The zero quaternion maps to Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) {
		return Identity
	}
	return quat.Scale(1/n, q)
}

func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Slerp spherically interpolates from q0 to q1 by t in [0, 1], taking the
// shorter of the two arcs between them.
func Slerp(q0, q1 quat.Number, t float64) quat.Number {
	if quat.Abs(quat.Sub(q0, q1)) > quat.Abs(quat.Add(q0, q1)) {
		q1 = quat.Scale(-1, q1)
	}

	c := dot(q0, q1)
	if c > 1 {
		c = 1
	}
	if c > 0.9995 {
		return Normalize(quat.Add(q0, quat.Scale(t, quat.Sub(q1, q0))))
	}

	theta := math.Acos(c)
	s := math.Sin(theta)
	a := math.Sin((1-t)*theta) / s
	b := math.Sin(t*theta) / s
	return quat.Add(quat.Scale(a, q0), quat.Scale(b, q1))
}

// Angle returns the rotation angle separating two orientations, in [0, pi].
func Angle(q0, q1 quat.Number) float64 {
	c := math.Abs(dot(Normalize(q0), Normalize(q1)))
	if c > 1 {
		c = 1
	}
	return 2 * math.Acos(c)
}

// FromBasis returns the rotation whose columns are the orthonormal axes
// x, y and z expressed in the parent frame.
func FromBasis(x, y, z r3.Vec) quat.Number {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q quat.Number
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m21 - m12) * s, Jmag: (m02 - m20) * s, Kmag: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}
	return Normalize(q)
}

// LookAt returns the camera orientation at from that looks toward to with
// the given up hint. Cameras look down their local -Z axis with +Y up.
func LookAt(from, to, up r3.Vec) quat.Number {
	back := r3.Sub(from, to)
	if r3.Norm(back) == 0 {
		return Identity
	}
	z := r3.Unit(back)

	x := r3.Cross(up, z)
	if r3.Norm(x) < 1e-12 {
		// up is parallel to the view direction; pick any perpendicular.
		alt := YAxis
		if math.Abs(z.Y) > 0.9 {
			alt = XAxis
		}
		x = r3.Cross(alt, z)
	}
	x = r3.Unit(x)
	y := r3.Cross(z, x)
	return FromBasis(x, y, z)
}

// AngularVelocity returns the constant angular velocity, in the parent
// frame, that carries q0 to q1 over dt.
func AngularVelocity(q0, q1 quat.Number, dt float64) r3.Vec {
	if dt == 0 {
		return r3.Vec{}
	}
	d := quat.Mul(q1, quat.Conj(q0))
	if d.Real < 0 {
		d = quat.Scale(-1, d)
	}
	axis := r3.Vec{X: d.Imag, Y: d.Jmag, Z: d.Kmag}
	s := r3.Norm(axis)
	if s < 1e-15 {
		return r3.Vec{}
	}
	angle := 2 * math.Atan2(s, d.Real)
	return r3.Scale(angle/(s*dt), axis)
}

// Integrate advances orientation q by the parent-frame angular velocity w
// over dt.
func Integrate(q quat.Number, w r3.Vec, dt float64) quat.Number {
	rate := r3.Norm(w)
	if rate == 0 || dt == 0 {
		return q
	}
	return Normalize(quat.Mul(AxisAngle(w, rate*dt), q))
}
