package api

import (
	"sort"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/strataxr/anchord/internal/session"
)

// Wire DTOs for the session API. Vectors are [x y z], quaternions
// [w x y z], matching the observation feed format so host-side codecs
// can be shared.

type PoseDTO struct {
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
}

type PlaneDTO struct {
	ID     string     `json:"id"`
	Center [3]float64 `json:"center"`
	Extent [2]float64 `json:"extent"`
	Normal [3]float64 `json:"normal"`
}

type ObjectDTO struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	Size           float64 `json:"size"`
	Pose           PoseDTO `json:"pose"`
	ParentPlaneID  string  `json:"parent_plane_id,omitempty"`
	ParentOrphaned bool    `json:"parent_orphaned,omitempty"`
}

type SnapshotDTO struct {
	Planes  []PlaneDTO  `json:"planes"`
	Objects []ObjectDTO `json:"objects"`
	Camera  PoseDTO     `json:"camera"`
}

type DeltaDTO struct {
	Kind     string     `json:"kind"`
	PlaneID  string     `json:"plane_id,omitempty"`
	ObjectID string     `json:"object_id,omitempty"`
	Plane    *PlaneDTO  `json:"plane,omitempty"`
	Object   *ObjectDTO `json:"object,omitempty"`
}

type TapRequest struct {
	Origin [3]float64 `json:"origin"`
	Dir    [3]float64 `json:"dir"`
	Kind   string     `json:"kind"`
	Size   float64    `json:"size,omitempty"`
}

type TapResponse struct {
	Outcome  string   `json:"outcome"`
	ObjectID string   `json:"object_id,omitempty"`
	PlaneID  string   `json:"plane_id,omitempty"`
	Pose     *PoseDTO `json:"pose,omitempty"`
}

func vecDTO(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func quatDTO(q quat.Number) [4]float64 {
	return [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

func poseDTO(p session.Pose) PoseDTO {
	return PoseDTO{Position: vecDTO(p.Position), Orientation: quatDTO(p.Orientation)}
}

func planeDTO(p session.Plane) PlaneDTO {
	return PlaneDTO{
		ID:     string(p.ID),
		Center: vecDTO(p.Center),
		Extent: p.Extent,
		Normal: vecDTO(p.Normal),
	}
}

func objectDTO(o session.PlacedObject) ObjectDTO {
	return ObjectDTO{
		ID:             string(o.ID),
		Kind:           string(o.Kind),
		Size:           o.Size,
		Pose:           poseDTO(o.Pose),
		ParentPlaneID:  string(o.ParentPlane),
		ParentOrphaned: o.ParentOrphaned,
	}
}

// SnapshotToDTO converts a state copy for JSON responses. Planes are
// ordered by id so responses are stable for diffing.
func SnapshotToDTO(state session.SessionState) SnapshotDTO {
	dto := SnapshotDTO{
		Planes:  make([]PlaneDTO, 0, len(state.Planes)),
		Objects: make([]ObjectDTO, 0, len(state.Objects)),
		Camera:  poseDTO(state.Camera),
	}
	for _, p := range state.Planes {
		dto.Planes = append(dto.Planes, planeDTO(p))
	}
	sort.Slice(dto.Planes, func(i, j int) bool { return dto.Planes[i].ID < dto.Planes[j].ID })
	for _, o := range state.Objects {
		dto.Objects = append(dto.Objects, objectDTO(o))
	}
	return dto
}

// DeltasToDTO converts one drained batch for broadcast.
func DeltasToDTO(deltas []session.SceneDelta) []DeltaDTO {
	out := make([]DeltaDTO, 0, len(deltas))
	for _, d := range deltas {
		dto := DeltaDTO{
			Kind:     string(d.Kind),
			PlaneID:  string(d.PlaneID),
			ObjectID: string(d.ObjectID),
		}
		if d.Plane != nil {
			p := planeDTO(*d.Plane)
			dto.Plane = &p
		}
		if d.Object != nil {
			o := objectDTO(*d.Object)
			dto.Object = &o
		}
		out = append(out, dto)
	}
	return out
}
