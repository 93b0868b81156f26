// Package version holds the build version. Release builds set it with
//
//	go build -ldflags "-X dronesim/pkg/version.Version=v1.2.3"
package version

// Version is "dev" for local builds.
var Version = "dev"

// UserAgent identifies the simulator in HTTP responses.
func UserAgent() string {
	return "dronesim/" + Version
}
