package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sitefleet/platform/internal/index"
)

// NewRegistry returns a registry holding the runtime collectors and the
// plan collector. A dedicated registry keeps tests free of global state.
func NewRegistry(idx *index.PlanIndex) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewPlanCollector(idx),
	)
	return reg
}
