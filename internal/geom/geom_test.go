package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const testEps = 1e-12

func vecNear(a, b r3.Vec, eps float64) bool {
	return r3.Norm(r3.Sub(a, b)) < eps
}

func TestUnitize(t *testing.T) {
	v, ok := Unitize(r3.Vec{X: 3, Y: 4})
	if !ok {
		t.Fatal("expected a recoverable direction")
	}
	if !vecNear(v, r3.Vec{X: 0.6, Y: 0.8}, testEps) {
		t.Errorf("got %v, want (0.6, 0.8, 0)", v)
	}

	if _, ok := Unitize(r3.Vec{}); ok {
		t.Error("zero vector should not normalise")
	}
	if _, ok := Unitize(r3.Vec{X: 1e-12}); ok {
		t.Error("near-zero vector should not normalise")
	}
}

func TestUnitizePassthrough(t *testing.T) {
	// An already-unit vector must come back bit for bit.
	in := r3.Vec{X: 0.6, Y: 0.8}
	out, ok := Unitize(in)
	if !ok {
		t.Fatal("unit vector rejected")
	}
	if out != in {
		t.Errorf("unit input changed: got %v, want %v", out, in)
	}
}

func TestUnitQuat(t *testing.T) {
	q, ok := UnitQuat(quat.Number{Real: 2})
	if !ok {
		t.Fatal("expected a recoverable orientation")
	}
	if math.Abs(quat.Abs(q)-1) > testEps {
		t.Errorf("normalised magnitude = %v, want 1", quat.Abs(q))
	}

	if _, ok := UnitQuat(quat.Number{}); ok {
		t.Error("zero quaternion should not normalise")
	}
	if _, ok := UnitQuat(quat.Number{Real: 1e-9}); ok {
		t.Error("near-zero quaternion should not normalise")
	}
}

func TestUnitQuatPassthrough(t *testing.T) {
	s := math.Sqrt(0.5)
	in := quat.Number{Real: s, Jmag: s}
	out, ok := UnitQuat(in)
	if !ok {
		t.Fatal("unit quaternion rejected")
	}
	if out != in {
		t.Errorf("unit input changed: got %v, want %v", out, in)
	}
}

func TestAlignYTo(t *testing.T) {
	cases := []struct {
		name   string
		normal r3.Vec
	}{
		{"up", r3.Vec{Y: 1}},
		{"down", r3.Vec{Y: -1}},
		{"wall_x", r3.Vec{X: 1}},
		{"wall_z", r3.Vec{Z: -1}},
		{"tilted", r3.Vec{X: 0.6, Y: 0.8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := AlignYTo(tc.normal)
			if math.Abs(quat.Abs(q)-1) > 1e-9 {
				t.Fatalf("rotation not unit: |q| = %v", quat.Abs(q))
			}
			got := Rotate(q, r3.Vec{Y: 1})
			if !vecNear(got, tc.normal, 1e-9) {
				t.Errorf("rotated +Y = %v, want %v", got, tc.normal)
			}
		})
	}
}

func TestAlignYToIdentityForUp(t *testing.T) {
	if q := AlignYTo(r3.Vec{Y: 1}); q != Identity() {
		t.Errorf("got %v, want identity", q)
	}
}

func TestPlaneBasis(t *testing.T) {
	normals := []r3.Vec{
		{Y: 1},
		{Y: -1},
		{X: 1}, // exercises the alternate reference axis
		{X: 0.6, Y: 0.8},
	}
	for _, n := range normals {
		u, v := PlaneBasis(n)
		if math.Abs(r3.Norm(u)-1) > 1e-9 || math.Abs(r3.Norm(v)-1) > 1e-9 {
			t.Errorf("basis for %v not unit: |u|=%v |v|=%v", n, r3.Norm(u), r3.Norm(v))
		}
		if math.Abs(r3.Dot(u, v)) > 1e-9 || math.Abs(r3.Dot(u, n)) > 1e-9 || math.Abs(r3.Dot(v, n)) > 1e-9 {
			t.Errorf("basis for %v not orthogonal", n)
		}
	}
}

func TestIntersectRect(t *testing.T) {
	// Horizontal 2x2 rectangle at the origin, normal up.
	center := r3.Vec{}
	normal := r3.Vec{Y: 1}
	extent := [2]float64{1, 1}

	ray := Ray{Origin: r3.Vec{Y: 2}, Dir: r3.Vec{Y: -1}}
	hit, ok := IntersectRect(ray, center, normal, extent)
	if !ok {
		t.Fatal("straight-down ray should hit")
	}
	if !vecNear(hit.Point, r3.Vec{}, testEps) {
		t.Errorf("hit point = %v, want origin", hit.Point)
	}
	if math.Abs(hit.Distance-2) > testEps {
		t.Errorf("distance = %v, want 2", hit.Distance)
	}
}

func TestIntersectRectNonUnitDir(t *testing.T) {
	// Distance is in world units regardless of direction scaling.
	ray := Ray{Origin: r3.Vec{Y: 2}, Dir: r3.Vec{Y: -10}}
	hit, ok := IntersectRect(ray, r3.Vec{}, r3.Vec{Y: 1}, [2]float64{1, 1})
	if !ok {
		t.Fatal("scaled ray should hit")
	}
	if math.Abs(hit.Distance-2) > testEps {
		t.Errorf("distance = %v, want 2", hit.Distance)
	}
}

func TestIntersectRectOutsideExtent(t *testing.T) {
	ray := Ray{Origin: r3.Vec{X: 1.5, Y: 2}, Dir: r3.Vec{Y: -1}}
	if _, ok := IntersectRect(ray, r3.Vec{}, r3.Vec{Y: 1}, [2]float64{1, 1}); ok {
		t.Error("hit outside the rectangle bounds should miss")
	}
}

func TestIntersectRectParallel(t *testing.T) {
	ray := Ray{Origin: r3.Vec{Y: 2}, Dir: r3.Vec{X: 1}}
	if _, ok := IntersectRect(ray, r3.Vec{}, r3.Vec{Y: 1}, [2]float64{1, 1}); ok {
		t.Error("parallel ray should miss")
	}
}

func TestIntersectRectBehindOrigin(t *testing.T) {
	// Plane is behind the ray: pointing away must miss.
	ray := Ray{Origin: r3.Vec{Y: 2}, Dir: r3.Vec{Y: 1}}
	if _, ok := IntersectRect(ray, r3.Vec{}, r3.Vec{Y: 1}, [2]float64{1, 1}); ok {
		t.Error("plane behind the ray origin should miss")
	}
}
