package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sitefleet/platform/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	SitesLoaded *int   `json:"sites_loaded,omitempty"`
	Source      string `json:"source,omitempty"`
	LastReload  string `json:"last_reload,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Status reports the plan snapshot and the Redis connection.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sites := d.PlanIndex.Count()
		lastReload := d.PlanIndex.GetLastReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.UTC().Format(time.RFC3339)
		}
		_, loaded := d.PlanIndex.Plan()

		components := map[string]componentStatus{
			"plan": {
				OK:          loaded,
				SitesLoaded: &sites,
				Source:      d.PlanIndex.Source(),
				LastReload:  lastReloadStr,
			},
			"redis": checkRedis(r.Context(), d),
		}

		writeJSON(w, http.StatusOK, statusResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if plan, ok := components["plan"]; ok && !plan.OK {
		return "critical"
	}
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "degraded"
	}
	return "operational"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{
			OK:     false,
			Mode:   "memory-only",
			Impact: "snapshot-not-persisted",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "memory-only",
			Impact: "snapshot-not-persisted",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "persisted",
		Impact: "none",
	}
}
