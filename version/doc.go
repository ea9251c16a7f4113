// Package version reports the build version of pullstream binaries.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/pullstream/version.Version=1.0.0"
//
// Unset values fall back to the VCS stamp embedded by the Go toolchain.
package version
