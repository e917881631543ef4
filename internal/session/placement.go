package session

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/strataxr/anchord/internal/geom"
	"github.com/strataxr/anchord/internal/monitoring"
)

// PlacementOutcome classifies the result of a placement request.
// NoSurface and LimitReached are expected user-facing outcomes, not
// errors: the UI shows feedback and lets the user retry.
type PlacementOutcome string

const (
	PlacementPlaced       PlacementOutcome = "placed"
	PlacementNoSurface    PlacementOutcome = "no_surface"
	PlacementLimitReached PlacementOutcome = "limit_reached"
)

// PlacementResult reports what a placement request produced. ObjectID,
// Pose and PlaneID are only meaningful when Outcome is PlacementPlaced.
type PlacementResult struct {
	Outcome  PlacementOutcome
	ObjectID ObjectID
	Pose     Pose
	PlaneID  PlaneID
}

// EngineConfig holds placement policy parameters.
type EngineConfig struct {
	// MaxObjects caps the number of placed objects. Zero means
	// uncapped; negative is a configuration error.
	MaxObjects int

	// DefaultObjectSize is used when a tap does not carry an explicit
	// size (metres).
	DefaultObjectSize float64
}

// DefaultEngineConfig returns production-default placement parameters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxObjects:        64,
		DefaultObjectSize: 0.1,
	}
}

// Engine decides whether and where a requested object is placed,
// given current plane knowledge. All placement policy lives here so
// it can be tested without any sensing or rendering dependency.
type Engine struct {
	store  *AnchorStore
	config EngineConfig
}

// NewEngine creates a placement engine over the given store. A
// negative MaxObjects is a programmer error, fatal at startup.
func NewEngine(store *AnchorStore, config EngineConfig) (*Engine, error) {
	if config.MaxObjects < 0 {
		return nil, fmt.Errorf("placement engine: max objects must be non-negative, got %d", config.MaxObjects)
	}
	if config.DefaultObjectSize <= 0 {
		config.DefaultObjectSize = DefaultEngineConfig().DefaultObjectSize
	}
	return &Engine{store: store, config: config}, nil
}

// RequestPlacement resolves a tap ray against the known planes and,
// on a hit, creates an object resting on the surface. Among
// intersecting planes the smallest positive distance along the ray
// wins; equal distances tie-break on plane id so replays are
// deterministic. The placement cap is checked first, so a full
// session reports LimitReached for any ray. A size of zero or less
// selects the configured default.
func (e *Engine) RequestPlacement(ray geom.Ray, kind ObjectKind, size float64) PlacementResult {
	if e.config.MaxObjects > 0 && e.store.ObjectCount() >= e.config.MaxObjects {
		return PlacementResult{Outcome: PlacementLimitReached}
	}
	if size <= 0 {
		size = e.config.DefaultObjectSize
	}

	planes := e.store.planesSnapshot()

	var (
		best      geom.RectHit
		bestPlane Plane
		bestSeen  bool
	)
	for _, p := range planes {
		hit, ok := geom.IntersectRect(ray, p.Center, p.Normal, p.Extent)
		if !ok {
			continue
		}
		if !bestSeen || hit.Distance < best.Distance ||
			(hit.Distance == best.Distance && p.ID < bestPlane.ID) {
			best = hit
			bestPlane = p
			bestSeen = true
		}
	}
	if !bestSeen {
		return PlacementResult{Outcome: PlacementNoSurface}
	}
	plane := bestPlane

	// Rest the object on the surface: offset half its size along the
	// plane normal, and align its up axis with the normal.
	pose := Pose{
		Position:    r3.Add(best.Point, r3.Scale(size/2, plane.Normal)),
		Orientation: geom.AlignYTo(plane.Normal),
	}

	id, err := e.store.AddObject(kind, size, pose, plane.ID)
	if err != nil {
		// The engine computed the pose itself, so a store rejection
		// means corrupted plane data slipped through. Drop and report
		// no surface rather than tearing down the session.
		monitoring.Logf("placement dropped: %v", err)
		return PlacementResult{Outcome: PlacementNoSurface}
	}

	return PlacementResult{
		Outcome:  PlacementPlaced,
		ObjectID: id,
		Pose:     pose,
		PlaneID:  plane.ID,
	}
}

// planesSnapshot returns a copy of the current planes for policy
// evaluation outside the store lock.
func (s *AnchorStore) planesSnapshot() []Plane {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Plane, 0, len(s.planes))
	for _, p := range s.planes {
		out = append(out, *p)
	}
	return out
}
