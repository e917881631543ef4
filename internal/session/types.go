// Package session implements the AR session core: the spatial anchor
// store that owns all scene state, the placement engine that decides
// where tap-requested objects land, and the bridge that connects both
// to the host sensing and rendering layers.
package session

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// PlaneID identifies a detected plane. The sensing layer assigns the
// id on first observation and keeps it stable across refinements of
// the same physical surface.
type PlaneID string

// ObjectID identifies a placed object. Assigned at creation, never
// reused.
type ObjectID string

// ObjectKind selects the primitive shape of a placed object.
type ObjectKind string

const (
	KindCube   ObjectKind = "cube"
	KindSphere ObjectKind = "sphere"
)

// ValidKind reports whether k names a known primitive.
func ValidKind(k ObjectKind) bool {
	return k == KindCube || k == KindSphere
}

// Pose is a position plus a unit-quaternion orientation in
// session-world coordinates.
type Pose struct {
	Position    r3.Vec
	Orientation quat.Number
}

// IdentityPose returns a pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// Plane is a detected flat surface. Center and Normal are in
// session-world coordinates; Extent is the half-size along the
// plane's local axes. Normal is always unit length and Extent
// components are never negative once stored.
type Plane struct {
	ID     PlaneID
	Center r3.Vec
	Extent [2]float64
	Normal r3.Vec
}

// PlacedObject is a user-requested primitive anchored to the scene.
// Geometry is immutable after creation; only the parent-plane
// reference changes, to orphaned, when the parent plane is removed.
type PlacedObject struct {
	ID   ObjectID
	Kind ObjectKind
	Size float64
	Pose Pose

	// ParentPlane is a back-reference to the plane the object was
	// placed on, for lookup only. Removing the plane orphans the
	// reference rather than deleting the object.
	ParentPlane    PlaneID
	ParentOrphaned bool
}

// PlaneObservation is one frame-level plane report from the sensing
// layer. Observations flagged Removed route to plane removal.
type PlaneObservation struct {
	StableID PlaneID
	Center   r3.Vec
	Extent   [2]float64
	Normal   r3.Vec
	Removed  bool
}

// SessionState is a read-only copy of everything the store owns.
// Objects keep placement order so replays are deterministic.
type SessionState struct {
	Planes  map[PlaneID]Plane
	Objects []PlacedObject
	Camera  Pose
}

// SessionStats summarises the session for debugging and the stats API.
type SessionStats struct {
	Planes              int     `json:"planes"`
	Objects             int     `json:"objects"`
	ObservationsApplied uint64  `json:"observations_applied"`
	ObservationsDropped uint64  `json:"observations_dropped"`
	PlanesRemoved       uint64  `json:"planes_removed"`
	ObjectsRemoved      uint64  `json:"objects_removed"`
	DeltasEmitted       uint64  `json:"deltas_emitted"`
	CameraTracking      bool    `json:"camera_tracking"`
	CameraX             float64 `json:"camera_x"`
	CameraY             float64 `json:"camera_y"`
	CameraZ             float64 `json:"camera_z"`
}
