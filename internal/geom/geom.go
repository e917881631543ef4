// Package geom provides the small amount of 3D math the session core
// needs: unit vectors, unit quaternions, and bounded ray/plane
// intersection. World coordinates follow the sensing convention:
// X=right, Y=up, Z=back (towards the viewer).
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// UnitEpsilon is the minimum vector magnitude considered
	// normalisable. Below this a direction is treated as degenerate.
	UnitEpsilon = 1e-9

	// QuatEpsilon is the minimum quaternion magnitude considered
	// normalisable. Orientations below this are rejected as invalid.
	QuatEpsilon = 1e-6

	// unitTolerance is how far from 1.0 a magnitude may be while still
	// counting as already normalised. Inputs inside the tolerance are
	// passed through untouched so callers get their values back exactly.
	unitTolerance = 1e-9
)

// Identity returns the identity orientation.
func Identity() quat.Number {
	return quat.Number{Real: 1}
}

// Unitize normalises v. Returns false when the magnitude is below
// UnitEpsilon and no direction can be recovered.
func Unitize(v r3.Vec) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n < UnitEpsilon {
		return r3.Vec{}, false
	}
	if math.Abs(n-1) < unitTolerance {
		return v, true
	}
	return r3.Scale(1/n, v), true
}

// UnitQuat normalises q. Returns false when the magnitude is below
// QuatEpsilon. Already-unit quaternions are returned exactly as given.
func UnitQuat(q quat.Number) (quat.Number, bool) {
	n := quat.Abs(q)
	if n < QuatEpsilon {
		return quat.Number{}, false
	}
	if math.Abs(n-1) < unitTolerance {
		return q, true
	}
	return quat.Scale(1/n, q), true
}

// Rotate applies the rotation q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// AlignYTo returns the minimal rotation carrying the +Y axis onto the
// given unit normal. The degenerate antiparallel case (normal pointing
// straight down) rotates half a turn about X.
func AlignYTo(normal r3.Vec) quat.Number {
	up := r3.Vec{Y: 1}
	d := r3.Dot(up, normal)
	switch {
	case d > 1-UnitEpsilon:
		return Identity()
	case d < -1+UnitEpsilon:
		return quat.Number{Imag: 1} // 180° about X
	}
	axis, _ := Unitize(r3.Cross(up, normal))
	angle := math.Acos(d)
	return quat.Number(r3.NewRotation(angle, axis))
}

// PlaneBasis derives a deterministic orthonormal basis (u, v) spanning
// the plane with the given unit normal. The reference axis is chosen to
// avoid near-parallel cross products.
func PlaneBasis(normal r3.Vec) (u, v r3.Vec) {
	ref := r3.Vec{X: 1}
	if math.Abs(normal.X) > 0.9 {
		ref = r3.Vec{Z: 1}
	}
	u, _ = Unitize(r3.Cross(normal, ref))
	v = r3.Cross(normal, u)
	return u, v
}
