package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-12

func vecNear(a, b r3.Vec, eps float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= eps
}

// sameRotation treats q and -q as equal.
func sameRotation(a, b quat.Number, eps float64) bool {
	return quat.Abs(quat.Sub(a, b)) <= eps || quat.Abs(quat.Add(a, b)) <= eps
}

func TestAxisRotations(t *testing.T) {
	cases := []struct {
		name string
		q    quat.Number
		in   r3.Vec
		want r3.Vec
	}{
		{"z quarter turn", ZRotation(math.Pi / 2), XAxis, YAxis},
		{"x quarter turn", XRotation(math.Pi / 2), YAxis, ZAxis},
		{"y quarter turn", YRotation(math.Pi / 2), ZAxis, XAxis},
		{"identity", Identity, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 1, Y: 2, Z: 3}},
		{"zero axis", AxisAngle(r3.Vec{}, 1), XAxis, XAxis},
	}
	for _, tc := range cases {
		if got := Rotate(tc.q, tc.in); !vecNear(got, tc.want, tol) {
			t.Fatalf("%s: Rotate = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMulOrder(t *testing.T) {
	// Mul(a, b) applies b first.
	q := Mul(ZRotation(math.Pi/2), XRotation(math.Pi/2))
	if got := Rotate(q, YAxis); !vecNear(got, r3.Vec{Z: 1}, tol) {
		t.Fatalf("Rotate(Rz*Rx, Y) = %v, want Z", got)
	}
	q = Mul(XRotation(math.Pi/2), ZRotation(math.Pi/2))
	if got := Rotate(q, XAxis); !vecNear(got, ZAxis, tol) {
		t.Fatalf("Rotate(Rx*Rz, X) = %v, want Z", got)
	}
}

func TestSlerpEndpointsAndShortestPath(t *testing.T) {
	q0 := ZRotation(0.2)
	q1 := ZRotation(1.4)
	if got := Slerp(q0, q1, 0); !sameRotation(got, q0, 1e-12) {
		t.Fatalf("Slerp(t=0) = %v, want %v", got, q0)
	}
	if got := Slerp(q0, q1, 1); !sameRotation(got, q1, 1e-12) {
		t.Fatalf("Slerp(t=1) = %v, want %v", got, q1)
	}
	mid := Slerp(q0, q1, 0.5)
	if !sameRotation(mid, ZRotation(0.8), 1e-12) {
		t.Fatalf("Slerp(t=0.5) = %v, want Rz(0.8)", mid)
	}

	// -q1 is the same rotation; interpolation must still take the short way.
	neg := quat.Scale(-1, q1)
	mid = Slerp(q0, neg, 0.5)
	if !sameRotation(mid, ZRotation(0.8), 1e-12) {
		t.Fatalf("Slerp with negated target = %v, want Rz(0.8)", mid)
	}
}

func TestSlerpNearlyParallel(t *testing.T) {
	q0 := ZRotation(1e-6)
	q1 := ZRotation(2e-6)
	got := Slerp(q0, q1, 0.5)
	if math.Abs(quat.Abs(got)-1) > 1e-12 {
		t.Fatalf("|Slerp| = %v, want 1", quat.Abs(got))
	}
}

func TestFromBasisRecoversRotation(t *testing.T) {
	q := Normalize(Mul(ZRotation(0.7), XRotation(-1.1), YRotation(2.3)))
	x := Rotate(q, XAxis)
	y := Rotate(q, YAxis)
	z := Rotate(q, ZAxis)
	if got := FromBasis(x, y, z); !sameRotation(got, q, 1e-9) {
		t.Fatalf("FromBasis = %v, want %v", got, q)
	}

	// Exercise the branch where the trace is negative.
	q = XRotation(math.Pi * 0.98)
	got := FromBasis(Rotate(q, XAxis), Rotate(q, YAxis), Rotate(q, ZAxis))
	if !sameRotation(got, q, 1e-9) {
		t.Fatalf("FromBasis(near pi) = %v, want %v", got, q)
	}
}

func TestLookAt(t *testing.T) {
	from := r3.Vec{X: 10}
	q := LookAt(from, r3.Vec{}, ZAxis)
	forward := Rotate(q, r3.Vec{Z: -1})
	if !vecNear(forward, r3.Vec{X: -1}, 1e-12) {
		t.Fatalf("camera forward = %v, want -X", forward)
	}
	up := Rotate(q, YAxis)
	if !vecNear(up, ZAxis, 1e-12) {
		t.Fatalf("camera up = %v, want +Z", up)
	}

	// Degenerate up hint still yields a unit quaternion looking at the target.
	q = LookAt(r3.Vec{Z: 5}, r3.Vec{}, ZAxis)
	if forward := Rotate(q, r3.Vec{Z: -1}); !vecNear(forward, r3.Vec{Z: -1}, 1e-12) {
		t.Fatalf("degenerate forward = %v, want -Z", forward)
	}
	if q := LookAt(from, from, ZAxis); q != Identity {
		t.Fatalf("LookAt(p, p) = %v, want identity", q)
	}
}

func TestAngularVelocityAndIntegrate(t *testing.T) {
	q0 := XRotation(0.3)
	w := r3.Vec{Z: 0.5}
	q1 := Integrate(q0, w, 2)
	if got := AngularVelocity(q0, q1, 2); !vecNear(got, w, 1e-12) {
		t.Fatalf("AngularVelocity = %v, want %v", got, w)
	}
	if got := AngularVelocity(q0, q0, 1); got != (r3.Vec{}) {
		t.Fatalf("AngularVelocity(q, q) = %v, want zero", got)
	}
	if a := Angle(q0, q1); math.Abs(a-1) > 1e-12 {
		t.Fatalf("Angle = %v, want 1", a)
	}
}

func TestTransformInverseAndThen(t *testing.T) {
	a := Transform{Rot: ZRotation(0.4), Trans: r3.Vec{X: 1, Y: 2, Z: 3}}
	b := Transform{Rot: XRotation(-1.2), Trans: r3.Vec{X: -5}}
	p := r3.Vec{X: 0.3, Y: -7, Z: 2}

	if got := a.Inverse().Apply(a.Apply(p)); !vecNear(got, p, 1e-12) {
		t.Fatalf("Inverse(Apply(p)) = %v, want %v", got, p)
	}
	if got, want := a.Then(b).Apply(p), b.Apply(a.Apply(p)); !vecNear(got, want, 1e-12) {
		t.Fatalf("Then = %v, want %v", got, want)
	}
	if got := IdentityTransform().Apply(p); got != p {
		t.Fatalf("identity Apply = %v", got)
	}
}
