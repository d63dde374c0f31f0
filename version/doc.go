// Package version reports the build of a lifescope host.
//
// Version, commit and build time are set at link time and fall back to the
// VCS stamp the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/lifescope/version.Version=1.2.0" ./cmd/arena
package version
