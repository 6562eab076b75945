package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/sitefleet/platform/internal/httpserver/deps"
	"github.com/sitefleet/platform/internal/httpserver/handlers"
	"github.com/sitefleet/platform/internal/httpserver/mw"
)

func init() { Register(registerProbes) }

// registerProbes mounts the kubelet probes. Liveness is open to everyone,
// readiness only to the allowed networks.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Get("/readyz", handlers.Readyz(d))
}
