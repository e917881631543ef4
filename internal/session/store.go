package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/strataxr/anchord/internal/geom"
)

// AnchorStore is the sole owner of SessionState. All reads and writes
// pass through it; mutations also append scene deltas so the renderer
// side can redraw incrementally instead of resending the whole scene.
//
// Mutating calls are expected to arrive from the session's owning
// goroutine (the bridge loop), but the store carries its own lock so
// DrainDeltas and Snapshot stay consistent when called concurrently
// from the renderer side.
type AnchorStore struct {
	mu      sync.Mutex
	planes  map[PlaneID]*Plane
	objects []*PlacedObject
	camera  Pose
	tracked bool // camera pose received at least once

	deltas []SceneDelta

	// Lifetime counters for Stats.
	observationsApplied uint64
	observationsDropped uint64
	planesRemoved       uint64
	objectsRemoved      uint64
	deltasEmitted       uint64
}

// NewAnchorStore creates an empty store.
func NewAnchorStore() *AnchorStore {
	return &AnchorStore{
		planes: make(map[PlaneID]*Plane),
	}
}

// UpsertPlane inserts a new plane or refines an existing one matched
// by the observation's stable id. The id never changes across
// refinements and a surface is never duplicated. An observation with
// no stable id is assigned a fresh one.
func (s *AnchorStore) UpsertPlane(obs PlaneObservation) (PlaneID, error) {
	normal, ok := geom.Unitize(obs.Normal)
	if !ok {
		s.countDropped()
		return "", fmt.Errorf("plane %q: %w: normal magnitude below epsilon", obs.StableID, ErrInvalidGeometry)
	}
	if obs.Extent[0] < 0 || obs.Extent[1] < 0 {
		s.countDropped()
		return "", fmt.Errorf("plane %q: %w: negative extent [%g %g]", obs.StableID, ErrInvalidGeometry, obs.Extent[0], obs.Extent[1])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := obs.StableID
	if id == "" {
		id = PlaneID(uuid.New().String())
	}

	if p, exists := s.planes[id]; exists {
		p.Center = obs.Center
		p.Extent = obs.Extent
		p.Normal = normal
		s.appendDelta(SceneDelta{Kind: DeltaPlaneUpdated, PlaneID: id, Plane: copyPlane(p)})
	} else {
		p := &Plane{ID: id, Center: obs.Center, Extent: obs.Extent, Normal: normal}
		s.planes[id] = p
		s.appendDelta(SceneDelta{Kind: DeltaPlaneAdded, PlaneID: id, Plane: copyPlane(p)})
	}
	s.observationsApplied++

	return id, nil
}

// RemovePlane deletes a plane. Unknown ids are a no-op so duplicate
// removal notifications from the sensing layer are tolerated. Objects
// placed on the plane are orphaned, not deleted.
func (s *AnchorStore) RemovePlane(id PlaneID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.planes[id]; !exists {
		return
	}
	delete(s.planes, id)
	for _, o := range s.objects {
		if o.ParentPlane == id {
			o.ParentOrphaned = true
		}
	}
	s.planesRemoved++
	s.appendDelta(SceneDelta{Kind: DeltaPlaneRemoved, PlaneID: id})
}

// AddObject appends a new placed object. The orientation must be
// normalisable; already-unit quaternions are stored exactly as given.
// A parent plane that is unknown at creation time is recorded as
// orphaned immediately so the back-reference invariant holds.
func (s *AnchorStore) AddObject(kind ObjectKind, size float64, pose Pose, parent PlaneID) (ObjectID, error) {
	orientation, ok := geom.UnitQuat(pose.Orientation)
	if !ok {
		return "", fmt.Errorf("object %s: %w: orientation magnitude below epsilon", kind, ErrInvalidPose)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := &PlacedObject{
		ID:          ObjectID(uuid.New().String()),
		Kind:        kind,
		Size:        size,
		Pose:        Pose{Position: pose.Position, Orientation: orientation},
		ParentPlane: parent,
	}
	if parent != "" {
		if _, exists := s.planes[parent]; !exists {
			o.ParentOrphaned = true
		}
	}
	s.objects = append(s.objects, o)
	s.appendDelta(SceneDelta{Kind: DeltaObjectAdded, ObjectID: o.ID, Object: copyObject(o)})

	return o.ID, nil
}

// RemoveObject deletes a placed object by id. Returns false when the
// id is unknown; duplicate removals are not an error.
func (s *AnchorStore) RemoveObject(id ObjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.objects {
		if o.ID == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			s.objectsRemoved++
			s.appendDelta(SceneDelta{Kind: DeltaObjectRemoved, ObjectID: id})
			return true
		}
	}
	return false
}

// SetCameraPose records the current device camera pose. Validation
// matches AddObject: a degenerate orientation is rejected.
func (s *AnchorStore) SetCameraPose(pose Pose) error {
	orientation, ok := geom.UnitQuat(pose.Orientation)
	if !ok {
		return fmt.Errorf("camera: %w: orientation magnitude below epsilon", ErrInvalidPose)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera = Pose{Position: pose.Position, Orientation: orientation}
	s.tracked = true
	return nil
}

// ObjectCount returns the number of placed objects.
func (s *AnchorStore) ObjectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Snapshot returns a deep copy of the current session state for the
// renderer-facing side. Mutating the copy never affects the store.
func (s *AnchorStore) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SessionState{
		Planes:  make(map[PlaneID]Plane, len(s.planes)),
		Objects: make([]PlacedObject, 0, len(s.objects)),
		Camera:  s.camera,
	}
	for id, p := range s.planes {
		state.Planes[id] = *p
	}
	for _, o := range s.objects {
		state.Objects = append(state.Objects, *o)
	}
	return state
}

// Stats returns lifetime session counters.
func (s *AnchorStore) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionStats{
		Planes:              len(s.planes),
		Objects:             len(s.objects),
		ObservationsApplied: s.observationsApplied,
		ObservationsDropped: s.observationsDropped,
		PlanesRemoved:       s.planesRemoved,
		ObjectsRemoved:      s.objectsRemoved,
		DeltasEmitted:       s.deltasEmitted,
		CameraTracking:      s.tracked,
		CameraX:             s.camera.Position.X,
		CameraY:             s.camera.Position.Y,
		CameraZ:             s.camera.Position.Z,
	}
}

// DrainDeltas returns the deltas accumulated since the previous drain
// and clears the buffer, atomically with respect to concurrent
// mutations. A second drain with no intervening mutation is empty.
func (s *AnchorStore) DrainDeltas() []SceneDelta {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.deltas
	s.deltas = nil
	return out
}

// appendDelta records a delta. Caller holds s.mu.
func (s *AnchorStore) appendDelta(d SceneDelta) {
	s.deltas = append(s.deltas, d)
	s.deltasEmitted++
}

// countDropped bumps the dropped-observation counter for validation
// failures that happen before s.mu is taken.
func (s *AnchorStore) countDropped() {
	s.mu.Lock()
	s.observationsDropped++
	s.mu.Unlock()
}

func copyPlane(p *Plane) *Plane {
	c := *p
	return &c
}

func copyObject(o *PlacedObject) *PlacedObject {
	c := *o
	return &c
}
