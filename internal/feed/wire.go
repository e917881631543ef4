// Package feed receives the host sensing layer's observation stream
// and forwards it into the session bridge. The wire format is one
// JSON message per UDP datagram (or per line in fixture files), small
// enough to stay under typical MTU for a frame's worth of planes.
package feed

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/strataxr/anchord/internal/geom"
	"github.com/strataxr/anchord/internal/session"
)

// Message types on the wire.
const (
	TypePlanes = "planes"
	TypeCamera = "camera"
	TypeTap    = "tap"
)

// Message is one datagram from the host sensing layer.
type Message struct {
	Type   string      `json:"type"`
	Planes []PlaneWire `json:"planes,omitempty"`
	Camera *PoseWire   `json:"camera,omitempty"`
	Tap    *TapWire    `json:"tap,omitempty"`
}

// PlaneWire carries one plane observation.
type PlaneWire struct {
	StableID string     `json:"stable_id"`
	Center   [3]float64 `json:"center"`
	Extent   [2]float64 `json:"extent"`
	Normal   [3]float64 `json:"normal"`
	Removed  bool       `json:"removed,omitempty"`
}

// PoseWire carries a pose; orientation is [w x y z].
type PoseWire struct {
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
}

// TapWire carries one tap event projected into world space by the
// host.
type TapWire struct {
	Origin [3]float64 `json:"origin"`
	Dir    [3]float64 `json:"dir"`
	Kind   string     `json:"kind"`
	Size   float64    `json:"size,omitempty"`
}

// ParseMessage decodes and validates one datagram.
func ParseMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode feed message: %w", err)
	}
	switch m.Type {
	case TypePlanes:
		if len(m.Planes) == 0 {
			return Message{}, fmt.Errorf("planes message with no planes")
		}
	case TypeCamera:
		if m.Camera == nil {
			return Message{}, fmt.Errorf("camera message with no pose")
		}
	case TypeTap:
		if m.Tap == nil {
			return Message{}, fmt.Errorf("tap message with no tap")
		}
		if !session.ValidKind(session.ObjectKind(m.Tap.Kind)) {
			return Message{}, fmt.Errorf("tap message with unknown kind %q", m.Tap.Kind)
		}
	default:
		return Message{}, fmt.Errorf("unknown feed message type %q", m.Type)
	}
	return m, nil
}

// Observations converts a planes message into session observations.
func (m Message) Observations() []session.PlaneObservation {
	out := make([]session.PlaneObservation, 0, len(m.Planes))
	for _, p := range m.Planes {
		out = append(out, session.PlaneObservation{
			StableID: session.PlaneID(p.StableID),
			Center:   vec3(p.Center),
			Extent:   p.Extent,
			Normal:   vec3(p.Normal),
			Removed:  p.Removed,
		})
	}
	return out
}

// Pose converts a camera message into a session pose.
func (m Message) Pose() session.Pose {
	return session.Pose{
		Position:    vec3(m.Camera.Position),
		Orientation: quatWire(m.Camera.Orientation),
	}
}

// Ray converts a tap message into a pick ray.
func (m Message) Ray() geom.Ray {
	return geom.Ray{Origin: vec3(m.Tap.Origin), Dir: vec3(m.Tap.Dir)}
}

func vec3(v [3]float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func quatWire(q [4]float64) quat.Number {
	return quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
}
