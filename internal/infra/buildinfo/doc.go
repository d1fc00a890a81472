// Package buildinfo reports which build of the syncx tools is running.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/syncx-go/internal/infra/buildinfo.Version=v0.3.0"
//
// Anything not injected is filled from the module and VCS data the Go
// toolchain embeds in the binary.
package buildinfo
