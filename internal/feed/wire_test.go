package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/strataxr/anchord/internal/session"
)

func TestParsePlanesMessage(t *testing.T) {
	data := []byte(`{
		"type": "planes",
		"planes": [
			{"stable_id": "floor", "center": [0, 0, 0], "extent": [1, 1], "normal": [0, 1, 0]},
			{"stable_id": "old-wall", "removed": true}
		]
	}`)

	m, err := ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, TypePlanes, m.Type)

	obs := m.Observations()
	require.Len(t, obs, 2)
	assert.Equal(t, session.PlaneID("floor"), obs[0].StableID)
	assert.Equal(t, r3.Vec{Y: 1}, obs[0].Normal)
	assert.Equal(t, [2]float64{1, 1}, obs[0].Extent)
	assert.False(t, obs[0].Removed)
	assert.True(t, obs[1].Removed)
}

func TestParseCameraMessage(t *testing.T) {
	data := []byte(`{
		"type": "camera",
		"camera": {"position": [0.5, 1.4, -2], "orientation": [1, 0, 0, 0]}
	}`)

	m, err := ParseMessage(data)
	require.NoError(t, err)

	pose := m.Pose()
	assert.Equal(t, r3.Vec{X: 0.5, Y: 1.4, Z: -2}, pose.Position)
	assert.Equal(t, quat.Number{Real: 1}, pose.Orientation)
}

func TestParseTapMessage(t *testing.T) {
	data := []byte(`{
		"type": "tap",
		"tap": {"origin": [0, 2, 0], "dir": [0, -1, 0], "kind": "cube", "size": 0.2}
	}`)

	m, err := ParseMessage(data)
	require.NoError(t, err)

	ray := m.Ray()
	assert.Equal(t, r3.Vec{Y: 2}, ray.Origin)
	assert.Equal(t, r3.Vec{Y: -1}, ray.Dir)
	assert.Equal(t, "cube", m.Tap.Kind)
	assert.Equal(t, 0.2, m.Tap.Size)
}

func TestParseMessageRejects(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"garbage", `not json`},
		{"unknown_type", `{"type": "lidar"}`},
		{"empty_planes", `{"type": "planes", "planes": []}`},
		{"camera_without_pose", `{"type": "camera"}`},
		{"tap_without_body", `{"type": "tap"}`},
		{"tap_unknown_kind", `{"type": "tap", "tap": {"kind": "teapot"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestOrientationWireOrder(t *testing.T) {
	// Wire quaternions are [w x y z].
	data := []byte(`{
		"type": "camera",
		"camera": {"position": [0, 0, 0], "orientation": [0.5, 0.5, 0.5, 0.5]}
	}`)
	m, err := ParseMessage(data)
	require.NoError(t, err)

	q := m.Pose().Orientation
	assert.Equal(t, quat.Number{Real: 0.5, Imag: 0.5, Jmag: 0.5, Kmag: 0.5}, q)
}
