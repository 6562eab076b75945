package handlers

import (
	"net/http"

	"github.com/sitefleet/platform/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz is ready once a plan snapshot is in memory.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := d.PlanIndex.Plan(); !ok {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Reason: "no plan loaded"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
