package version

import (
	"runtime"
	"time"
)

// Set with -ldflags "-X github.com/sitefleet/platform/internal/version.Version=..."
var (
	Name      = "sitefleet"
	Version   = "dev"                           // ex: v0.4.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-03-02T09:12:00Z
	GoVersion = runtime.Version()
)

// String is the one-line build description used by logs and the CLI.
func String() string {
	return Name + " " + Version + " (commit=" + Commit + ", built=" + BuildDate + ", " + GoVersion + ")"
}
