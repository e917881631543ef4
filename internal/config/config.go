// Package config loads the daemon's tuning file. The schema uses
// pointer-typed optional fields so partial configs are safe: anything
// omitted from the JSON falls back to the Get* defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionConfig holds tunable session parameters.
type SessionConfig struct {
	// Placement params
	MaxObjects        *int     `json:"max_objects,omitempty"`
	DefaultObjectSize *float64 `json:"default_object_size,omitempty"`

	// Bridge queue params
	TapQueueSize         *int `json:"tap_queue_size,omitempty"`
	ObservationQueueSize *int `json:"observation_queue_size,omitempty"`

	// Delta pump params
	DrainInterval *string `json:"drain_interval,omitempty"` // duration string like "33ms"

	// Feed params
	FeedAddress     *string `json:"feed_address,omitempty"`
	FixtureInterval *string `json:"fixture_interval,omitempty"`
}

// EmptySessionConfig returns a SessionConfig with all fields unset.
func EmptySessionConfig() *SessionConfig {
	return &SessionConfig{}
}

// LoadSessionConfig loads a SessionConfig from a JSON file. Fields
// omitted from the file retain their defaults, so partial configs are
// safe.
func LoadSessionConfig(path string) (*SessionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySessionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *SessionConfig) Validate() error {
	if c.MaxObjects != nil && *c.MaxObjects < 0 {
		return fmt.Errorf("max_objects must be non-negative, got %d", *c.MaxObjects)
	}
	if c.DefaultObjectSize != nil && *c.DefaultObjectSize <= 0 {
		return fmt.Errorf("default_object_size must be positive, got %f", *c.DefaultObjectSize)
	}
	if c.TapQueueSize != nil && *c.TapQueueSize <= 0 {
		return fmt.Errorf("tap_queue_size must be positive, got %d", *c.TapQueueSize)
	}
	if c.ObservationQueueSize != nil && *c.ObservationQueueSize <= 0 {
		return fmt.Errorf("observation_queue_size must be positive, got %d", *c.ObservationQueueSize)
	}
	if c.DrainInterval != nil && *c.DrainInterval != "" {
		if _, err := time.ParseDuration(*c.DrainInterval); err != nil {
			return fmt.Errorf("invalid drain_interval '%s': %w", *c.DrainInterval, err)
		}
	}
	if c.FixtureInterval != nil && *c.FixtureInterval != "" {
		if _, err := time.ParseDuration(*c.FixtureInterval); err != nil {
			return fmt.Errorf("invalid fixture_interval '%s': %w", *c.FixtureInterval, err)
		}
	}
	return nil
}

// GetMaxObjects returns the max_objects value or the default.
func (c *SessionConfig) GetMaxObjects() int {
	if c.MaxObjects == nil {
		return 64
	}
	return *c.MaxObjects
}

// GetDefaultObjectSize returns the default_object_size value (metres)
// or the default.
func (c *SessionConfig) GetDefaultObjectSize() float64 {
	if c.DefaultObjectSize == nil {
		return 0.1
	}
	return *c.DefaultObjectSize
}

// GetTapQueueSize returns the tap_queue_size value or the default.
func (c *SessionConfig) GetTapQueueSize() int {
	if c.TapQueueSize == nil {
		return 8
	}
	return *c.TapQueueSize
}

// GetObservationQueueSize returns the observation_queue_size value or
// the default.
func (c *SessionConfig) GetObservationQueueSize() int {
	if c.ObservationQueueSize == nil {
		return 32
	}
	return *c.ObservationQueueSize
}

// GetDrainInterval parses and returns the DrainInterval as a
// time.Duration. The default tracks a 30Hz renderer.
func (c *SessionConfig) GetDrainInterval() time.Duration {
	if c.DrainInterval == nil || *c.DrainInterval == "" {
		return 33 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.DrainInterval)
	if err != nil {
		return 33 * time.Millisecond
	}
	return d
}

// GetFeedAddress returns the feed_address value or the default.
func (c *SessionConfig) GetFeedAddress() string {
	if c.FeedAddress == nil || *c.FeedAddress == "" {
		return ":9601"
	}
	return *c.FeedAddress
}

// GetFixtureInterval parses and returns the FixtureInterval as a
// time.Duration.
func (c *SessionConfig) GetFixtureInterval() time.Duration {
	if c.FixtureInterval == nil || *c.FixtureInterval == "" {
		return 50 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.FixtureInterval)
	if err != nil {
		return 50 * time.Millisecond
	}
	return d
}
