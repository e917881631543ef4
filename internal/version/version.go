// Package version carries build metadata, injected at link time via
// -ldflags by the release build.
package version

var (
	// Version is the daemon version.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
