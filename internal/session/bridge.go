package session

import (
	"context"

	"github.com/strataxr/anchord/internal/geom"
	"github.com/strataxr/anchord/internal/monitoring"
)

// BridgeConfig sizes the bridge's submission queues.
type BridgeConfig struct {
	// TapQueueSize bounds pending tap requests from the UI side.
	TapQueueSize int

	// ObservationQueueSize bounds pending observation batches from the
	// sensing side.
	ObservationQueueSize int
}

// DefaultBridgeConfig returns production-default queue sizes.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		TapQueueSize:         8,
		ObservationQueueSize: 32,
	}
}

type tapRequest struct {
	ray   geom.Ray
	kind  ObjectKind
	size  float64
	reply chan PlacementResult
}

type cameraUpdate struct {
	pose Pose
}

// Bridge is the single seam between the host sensing/rendering layers
// and the session core. Plane observations, camera updates and tap
// events are marshalled onto one owning goroutine (Run), so every
// placement decision sees synchronised plane data. Deltas flow the
// other way through DrainDeltas.
type Bridge struct {
	store  *AnchorStore
	engine *Engine

	observations chan []PlaneObservation
	cameras      chan cameraUpdate
	taps         chan tapRequest
}

// NewBridge creates a bridge over the given store and engine. Run must
// be started before IngestTap or IngestPlaneObservations are called.
func NewBridge(store *AnchorStore, engine *Engine, config BridgeConfig) *Bridge {
	if config.TapQueueSize <= 0 {
		config.TapQueueSize = DefaultBridgeConfig().TapQueueSize
	}
	if config.ObservationQueueSize <= 0 {
		config.ObservationQueueSize = DefaultBridgeConfig().ObservationQueueSize
	}
	return &Bridge{
		store:        store,
		engine:       engine,
		observations: make(chan []PlaneObservation, config.ObservationQueueSize),
		cameras:      make(chan cameraUpdate, config.ObservationQueueSize),
		taps:         make(chan tapRequest, config.TapQueueSize),
	}
}

// Run owns all session mutation. It processes queued observation
// batches, camera updates and tap requests until the context is
// cancelled. Every piece of work is in-memory and bounded; nothing in
// the loop blocks on I/O.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch := <-b.observations:
			b.applyObservations(batch)
		case cam := <-b.cameras:
			if err := b.store.SetCameraPose(cam.pose); err != nil {
				monitoring.Logf("dropping camera update: %v", err)
			}
		case req := <-b.taps:
			result := b.engine.RequestPlacement(req.ray, req.kind, req.size)
			monitoring.TapsServed.WithLabelValues(string(result.Outcome)).Inc()
			req.reply <- result
		}
	}
}

// IngestPlaneObservations queues one frame's plane observations for
// the session loop. Observations flagged removed route to plane
// removal. Blocks only when the observation queue is full.
func (b *Bridge) IngestPlaneObservations(ctx context.Context, batch []PlaneObservation) error {
	if len(batch) == 0 {
		return nil
	}
	select {
	case b.observations <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateCameraPose queues a device camera pose update.
func (b *Bridge) UpdateCameraPose(ctx context.Context, pose Pose) error {
	select {
	case b.cameras <- cameraUpdate{pose: pose}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IngestTap submits a tap from the UI side and blocks until the
// session loop produces a PlacementResult, giving the caller
// immediate feedback to surface.
func (b *Bridge) IngestTap(ctx context.Context, ray geom.Ray, kind ObjectKind, size float64) (PlacementResult, error) {
	req := tapRequest{
		ray:   ray,
		kind:  kind,
		size:  size,
		reply: make(chan PlacementResult, 1),
	}
	select {
	case b.taps <- req:
	case <-ctx.Done():
		return PlacementResult{}, ctx.Err()
	}
	select {
	case result := <-req.reply:
		return result, nil
	case <-ctx.Done():
		return PlacementResult{}, ctx.Err()
	}
}

// DrainDeltas returns the scene deltas accumulated since the last
// drain. The batch is finite and non-restartable: once drained, the
// same deltas are never seen again.
func (b *Bridge) DrainDeltas() []SceneDelta {
	deltas := b.store.DrainDeltas()
	if n := len(deltas); n > 0 {
		monitoring.DeltasDrained.Add(float64(n))
	}
	return deltas
}

// Snapshot exposes the store's read-only state copy for the API layer.
func (b *Bridge) Snapshot() SessionState {
	return b.store.Snapshot()
}

// Stats exposes the store's lifetime counters for the API layer.
func (b *Bridge) Stats() SessionStats {
	return b.store.Stats()
}

func (b *Bridge) applyObservations(batch []PlaneObservation) {
	for _, obs := range batch {
		if obs.Removed {
			b.store.RemovePlane(obs.StableID)
			monitoring.ObservationsIngested.WithLabelValues("removed").Inc()
			continue
		}
		if _, err := b.store.UpsertPlane(obs); err != nil {
			// Malformed sensing data: drop the observation, keep the
			// session alive.
			monitoring.Logf("dropping plane observation: %v", err)
			monitoring.ObservationsIngested.WithLabelValues("dropped").Inc()
			continue
		}
		monitoring.ObservationsIngested.WithLabelValues("applied").Inc()
	}
}
