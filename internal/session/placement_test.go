package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/strataxr/anchord/internal/geom"
)

func newTestEngine(t *testing.T, store *AnchorStore, maxObjects int) *Engine {
	t.Helper()
	engine, err := NewEngine(store, EngineConfig{MaxObjects: maxObjects, DefaultObjectSize: 0.1})
	require.NoError(t, err)
	return engine
}

func downRay() geom.Ray {
	return geom.Ray{Origin: r3.Vec{Y: 2}, Dir: r3.Vec{Y: -1}}
}

func TestNewEngineRejectsNegativeCap(t *testing.T) {
	_, err := NewEngine(NewAnchorStore(), EngineConfig{MaxObjects: -1})
	assert.Error(t, err)
}

func TestPlacementOnFloor(t *testing.T) {
	store := NewAnchorStore()
	engine := newTestEngine(t, store, 1)

	_, err := store.UpsertPlane(floorObs("floor"))
	require.NoError(t, err)

	result := engine.RequestPlacement(downRay(), KindCube, 0.1)
	require.Equal(t, PlacementPlaced, result.Outcome)
	assert.Equal(t, PlaneID("floor"), result.PlaneID)
	assert.NotEmpty(t, result.ObjectID)

	// The cube rests on the surface: lifted half its size off the plane.
	assert.InDelta(t, 0.05, result.Pose.Position.Y, 1e-12)
	assert.InDelta(t, 0, result.Pose.Position.X, 1e-12)
	assert.InDelta(t, 0, result.Pose.Position.Z, 1e-12)

	// A second tap, any ray, reports the cap.
	second := engine.RequestPlacement(downRay(), KindSphere, 0.1)
	assert.Equal(t, PlacementLimitReached, second.Outcome)
	third := engine.RequestPlacement(geom.Ray{Origin: r3.Vec{X: 50}, Dir: r3.Vec{Z: 1}}, KindCube, 0.1)
	assert.Equal(t, PlacementLimitReached, third.Outcome)

	assert.Equal(t, 1, store.ObjectCount())
}

func TestPlacementNoSurface(t *testing.T) {
	store := NewAnchorStore()
	engine := newTestEngine(t, store, 4)

	result := engine.RequestPlacement(downRay(), KindCube, 0.1)
	assert.Equal(t, PlacementNoSurface, result.Outcome)

	// A miss outside the plane extent is also no surface.
	_, err := store.UpsertPlane(floorObs("floor"))
	require.NoError(t, err)
	miss := engine.RequestPlacement(geom.Ray{Origin: r3.Vec{X: 5, Y: 2}, Dir: r3.Vec{Y: -1}}, KindCube, 0.1)
	assert.Equal(t, PlacementNoSurface, miss.Outcome)

	assert.Zero(t, store.ObjectCount(), "a miss must leave the session unchanged")
	for _, d := range store.DrainDeltas() {
		assert.NotEqual(t, DeltaObjectAdded, d.Kind, "a miss must not emit object deltas")
	}
}

func TestPlacementNearestPlaneWins(t *testing.T) {
	store := NewAnchorStore()
	engine := newTestEngine(t, store, 4)

	// Floor at y=0 and a table at y=1; the ray from above crosses both.
	_, err := store.UpsertPlane(floorObs("floor"))
	require.NoError(t, err)
	table := floorObs("table")
	table.Center = r3.Vec{Y: 1}
	_, err = store.UpsertPlane(table)
	require.NoError(t, err)

	result := engine.RequestPlacement(downRay(), KindCube, 0.1)
	require.Equal(t, PlacementPlaced, result.Outcome)
	assert.Equal(t, PlaneID("table"), result.PlaneID)
	assert.InDelta(t, 1.05, result.Pose.Position.Y, 1e-12)
}

func TestPlacementTieBreaksOnPlaneID(t *testing.T) {
	store := NewAnchorStore()
	engine := newTestEngine(t, store, 4)

	// Two coincident planes: the lower id wins, so replays agree.
	_, err := store.UpsertPlane(floorObs("b-floor"))
	require.NoError(t, err)
	_, err = store.UpsertPlane(floorObs("a-floor"))
	require.NoError(t, err)

	result := engine.RequestPlacement(downRay(), KindCube, 0.1)
	require.Equal(t, PlacementPlaced, result.Outcome)
	assert.Equal(t, PlaneID("a-floor"), result.PlaneID)
}

func TestPlacementDefaultSize(t *testing.T) {
	store := NewAnchorStore()
	engine := newTestEngine(t, store, 4)
	_, err := store.UpsertPlane(floorObs("floor"))
	require.NoError(t, err)

	result := engine.RequestPlacement(downRay(), KindCube, 0)
	require.Equal(t, PlacementPlaced, result.Outcome)
	assert.InDelta(t, 0.05, result.Pose.Position.Y, 1e-12)
	assert.Equal(t, 0.1, store.Snapshot().Objects[0].Size)
}

func TestPlacementUncappedWhenZero(t *testing.T) {
	store := NewAnchorStore()
	engine := newTestEngine(t, store, 0)
	_, err := store.UpsertPlane(floorObs("floor"))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		result := engine.RequestPlacement(downRay(), KindCube, 0.1)
		require.Equal(t, PlacementPlaced, result.Outcome)
	}
	assert.Equal(t, 100, store.ObjectCount())
}

func TestPlacementOnWallAlignsOrientation(t *testing.T) {
	store := NewAnchorStore()
	engine := newTestEngine(t, store, 4)

	wall := PlaneObservation{
		StableID: "wall",
		Center:   r3.Vec{Z: -2},
		Extent:   [2]float64{1, 1},
		Normal:   r3.Vec{Z: 1},
	}
	_, err := store.UpsertPlane(wall)
	require.NoError(t, err)

	ray := geom.Ray{Origin: r3.Vec{}, Dir: r3.Vec{Z: -1}}
	result := engine.RequestPlacement(ray, KindCube, 0.2)
	require.Equal(t, PlacementPlaced, result.Outcome)

	// Offset along the wall normal, not world up.
	assert.InDelta(t, -1.9, result.Pose.Position.Z, 1e-12)
	assert.InDelta(t, 0, result.Pose.Position.Y, 1e-12)

	// The object's up axis follows the surface normal.
	up := geom.Rotate(result.Pose.Orientation, r3.Vec{Y: 1})
	assert.InDelta(t, 0, r3.Norm(r3.Sub(up, r3.Vec{Z: 1})), 1e-9)
}
