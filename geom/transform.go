package geom

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a rigid transform in kilometers: p' = Rot p Rot* + Trans.
type Transform struct {
	Rot   quat.Number
	Trans r3.Vec
}

// IdentityTransform leaves points unchanged.
func IdentityTransform() Transform { return Transform{Rot: Identity} }

// Apply maps a local point into the parent frame.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(Rotate(t.Rot, p), t.Trans)
}

// ApplyVector rotates a direction without translating it.
func (t Transform) ApplyVector(v r3.Vec) r3.Vec {
	return Rotate(t.Rot, v)
}

// Then returns the transform that applies t and then outer.
func (t Transform) Then(outer Transform) Transform {
	return Transform{
		Rot:   quat.Mul(outer.Rot, t.Rot),
		Trans: outer.Apply(t.Trans),
	}
}

// Inverse returns the transform that undoes t.
func (t Transform) Inverse() Transform {
	inv := quat.Conj(t.Rot)
	return Transform{
		Rot:   inv,
		Trans: r3.Scale(-1, Rotate(inv, t.Trans)),
	}
}
