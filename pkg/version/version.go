// Package version exposes build information stamped via ldflags.
package version

// Set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns formatted version information.
func Info() string {
	return "Version: " + Version + "\nCommit: " + Commit + "\nBuild Date: " + Date
}

// UserAgent returns the application identifier sent with ARM requests.
func UserAgent() string {
	return "vmshift/" + Version
}
