// Package version resolves the build identity reported by the /version
// endpoint and the version CLI subcommand.
//
// Release builds inject the identity with -ldflags:
//
//	go build -ldflags "-X github.com/skillsenselab/vbdiar/version.Version=1.2.0"
//
// Anything not injected is recovered from the VCS metadata Go embeds in
// the binary.
package version
