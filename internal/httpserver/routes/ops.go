package routes

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sitefleet/platform/internal/httpserver/deps"
	"github.com/sitefleet/platform/internal/httpserver/handlers"
	"github.com/sitefleet/platform/internal/httpserver/mw"
	"github.com/sitefleet/platform/internal/logger"
)

func init() { Register(registerOps) }

// registerOps mounts the operator endpoints: status, manual reload and
// metrics. All of them sit behind the CIDR allowlist; reload also checks
// the Host header since it changes state.
func registerOps(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))

		r.Get("/status", handlers.Status(d))
		r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))

		if d.Gatherer != nil {
			r.Method("GET", "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{
				ErrorLog: promErrorLog{d.Logger},
			}))
		}
	})
}

// promErrorLog routes promhttp encoding errors to the access logger.
type promErrorLog struct {
	log logger.Logger
}

func (p promErrorLog) Println(v ...interface{}) {
	if p.log != nil {
		p.log.Error(fmt.Sprint(v...))
	}
}
