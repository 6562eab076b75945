package handlers

import (
	"net/http"
	"time"

	"github.com/sitefleet/platform/internal/httpserver/deps"
	"github.com/sitefleet/platform/internal/version"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	Service       string    `json:"service"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Build         buildInfo `json:"build"`
}

// Healthz is the liveness probe. It never looks at the plan or at Redis:
// a missing plan is a readiness concern.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Service:       version.Name,
			UptimeSeconds: int64(time.Since(d.StartTime).Seconds()),
			Build:         build,
		})
	}
}
