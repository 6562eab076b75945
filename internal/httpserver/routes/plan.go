package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/sitefleet/platform/internal/httpserver/deps"
	"github.com/sitefleet/platform/internal/httpserver/handlers"
	"github.com/sitefleet/platform/internal/httpserver/mw"
)

func init() { Register(registerPlan) }

func registerPlan(r chi.Router, d deps.Deps) {
	r.Route("/api/plan", func(api chi.Router) {
		api.Use(
			mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
			mw.EnforceHost(d.AllowedHosts, d.Logger),
			mw.RateLimit(mw.RateLimitConfig{
				Burst:             d.RateLimitBurst,
				RefillPerIPPerMin: d.RateLimitPerMin,
				MaxEntries:        10000,
				TrustProxy:        d.TrustProxy,
			}),
		)
		api.Get("/", handlers.PlanSummary(d))
		api.Get("/domains", handlers.Domains(d))
		api.Get("/certificates", handlers.Certificates(d))
		api.Get("/sites", handlers.Sites(d))
		api.Get("/sites/{name}", handlers.Site(d))
		api.Get("/replication", handlers.Replication(d))
	})
}
