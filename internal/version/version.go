// Package version carries build identity injected at link time, e.g.
//
//	go build -ldflags "-X .../internal/version.Version=v0.3.0"
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
