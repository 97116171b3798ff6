// Package version exposes ssecast build information.
//
// Version, commit, branch and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/ssecast/version.Version=1.2.0 \
//	  -X github.com/kbukum/ssecast/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When they are left empty the VCS stamps embedded by the Go toolchain are
// used instead.
package version
