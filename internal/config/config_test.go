package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := EmptySessionConfig()
	assert.Equal(t, 64, cfg.GetMaxObjects())
	assert.Equal(t, 0.1, cfg.GetDefaultObjectSize())
	assert.Equal(t, 8, cfg.GetTapQueueSize())
	assert.Equal(t, 32, cfg.GetObservationQueueSize())
	assert.Equal(t, 33*time.Millisecond, cfg.GetDrainInterval())
	assert.Equal(t, ":9601", cfg.GetFeedAddress())
	assert.Equal(t, 50*time.Millisecond, cfg.GetFixtureInterval())
}

func TestLoadSessionConfig(t *testing.T) {
	path := writeConfig(t, "session.json", `{
		"max_objects": 16,
		"default_object_size": 0.25,
		"drain_interval": "100ms",
		"feed_address": ":9700"
	}`)

	cfg, err := LoadSessionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.GetMaxObjects())
	assert.Equal(t, 0.25, cfg.GetDefaultObjectSize())
	assert.Equal(t, 100*time.Millisecond, cfg.GetDrainInterval())
	assert.Equal(t, ":9700", cfg.GetFeedAddress())

	// Omitted fields keep their defaults.
	assert.Equal(t, 8, cfg.GetTapQueueSize())
}

func TestLoadSessionConfigPartial(t *testing.T) {
	path := writeConfig(t, "partial.json", `{}`)
	cfg, err := LoadSessionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.GetMaxObjects())
}

func TestLoadSessionConfigZeroMaxObjects(t *testing.T) {
	// Zero is a valid setting: it disables the placement cap.
	path := writeConfig(t, "uncapped.json", `{"max_objects": 0}`)
	cfg, err := LoadSessionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.GetMaxObjects())
}

func TestLoadSessionConfigRejects(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
	}{
		{"wrong_extension", "session.yaml", `{}`},
		{"bad_json", "bad.json", `{`},
		{"negative_max_objects", "neg.json", `{"max_objects": -1}`},
		{"zero_object_size", "size.json", `{"default_object_size": 0}`},
		{"zero_tap_queue", "tapq.json", `{"tap_queue_size": 0}`},
		{"bad_drain_interval", "drain.json", `{"drain_interval": "fast"}`},
		{"bad_fixture_interval", "fix.json", `{"fixture_interval": "later"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.file, tc.content)
			_, err := LoadSessionConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadSessionConfigMissingFile(t *testing.T) {
	_, err := LoadSessionConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
