package session

// DeltaKind tags one incremental scene change.
type DeltaKind string

const (
	DeltaPlaneAdded    DeltaKind = "plane_added"
	DeltaPlaneUpdated  DeltaKind = "plane_updated"
	DeltaPlaneRemoved  DeltaKind = "plane_removed"
	DeltaObjectAdded   DeltaKind = "object_added"
	DeltaObjectRemoved DeltaKind = "object_removed"
)

// SceneDelta is one scene change since the last drain. Plane is set
// for plane add/update, Object for object add; removals carry only
// the id. Geometry is copied at mutation time, so a delta never
// aliases live store state.
type SceneDelta struct {
	Kind     DeltaKind
	PlaneID  PlaneID
	ObjectID ObjectID
	Plane    *Plane
	Object   *PlacedObject
}
