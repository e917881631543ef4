package session

import "errors"

// Sentinel errors for malformed sensing-layer data. Both are
// recoverable: the offending observation is dropped and logged, the
// session keeps running.
var (
	// ErrInvalidGeometry marks a plane observation whose normal cannot
	// be normalised or whose extent has a negative component.
	ErrInvalidGeometry = errors.New("invalid plane geometry")

	// ErrInvalidPose marks a pose whose orientation quaternion has
	// near-zero magnitude and cannot be normalised.
	ErrInvalidPose = errors.New("invalid pose")
)
