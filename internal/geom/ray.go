package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ray is a half-line in world coordinates: a tap projected into the
// scene by the host, or any other pick query.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec // need not be unit length; only the direction matters
}

// RectHit describes a ray hitting a bounded plane rectangle.
type RectHit struct {
	Point    r3.Vec  // intersection point in world coordinates
	Distance float64 // distance from the ray origin, in world units
}

// IntersectRect intersects a ray with a plane rectangle described by
// its center, unit normal and half-extent along the plane's local
// axes. Only forward hits count: intersections behind the ray origin
// (or rays parallel to the plane) miss.
func IntersectRect(ray Ray, center, normal r3.Vec, extent [2]float64) (RectHit, bool) {
	denom := r3.Dot(normal, ray.Dir)
	if math.Abs(denom) < UnitEpsilon {
		return RectHit{}, false
	}

	t := r3.Dot(normal, r3.Sub(center, ray.Origin)) / denom
	if t < UnitEpsilon {
		return RectHit{}, false
	}

	point := r3.Add(ray.Origin, r3.Scale(t, ray.Dir))
	local := r3.Sub(point, center)

	u, v := PlaneBasis(normal)
	if math.Abs(r3.Dot(local, u)) > extent[0] || math.Abs(r3.Dot(local, v)) > extent[1] {
		return RectHit{}, false
	}

	// Distance reported in world units, not ray parameter units, so
	// nearest-hit comparisons are stable for non-unit directions.
	return RectHit{Point: point, Distance: t * r3.Norm(ray.Dir)}, true
}
