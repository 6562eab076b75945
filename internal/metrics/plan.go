package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sitefleet/platform/internal/index"
)

const namespace = "sitefleet"

// PlanCollector exports the shape of the current plan snapshot.
type PlanCollector struct {
	index *index.PlanIndex

	loaded       *prometheus.Desc
	lastReload   *prometheus.Desc
	domains      *prometheus.Desc
	certificates *prometheus.Desc
	backends     *prometheus.Desc
	sites        *prometheus.Desc
	tasks        *prometheus.Desc
	pending      *prometheus.Desc
}

// NewPlanCollector creates a collector reading from idx on every scrape.
func NewPlanCollector(idx *index.PlanIndex) *PlanCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "plan", name), help, labels, nil)
	}
	return &PlanCollector{
		index:        idx,
		loaded:       desc("loaded", "1 when a plan snapshot is held in memory.", "source"),
		lastReload:   desc("last_reload_timestamp_seconds", "Unix time of the last snapshot swap."),
		domains:      desc("domains", "Registered domains in the current plan."),
		certificates: desc("certificate_groups", "Certificate groups in the current plan."),
		backends:     desc("backends", "Database backends in the current plan.", "shared"),
		sites:        desc("sites", "Sites assigned to a database backend."),
		tasks:        desc("replication_tasks", "Planned replication tasks."),
		pending:      desc("replication_pending_sites", "Legacy sites without a target backend."),
	}
}

// Describe implements prometheus.Collector.
func (c *PlanCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.loaded
	ch <- c.lastReload
	ch <- c.domains
	ch <- c.certificates
	ch <- c.backends
	ch <- c.sites
	ch <- c.tasks
	ch <- c.pending
}

// Collect implements prometheus.Collector.
func (c *PlanCollector) Collect(ch chan<- prometheus.Metric) {
	plan, ok := c.index.Plan()
	if !ok {
		ch <- prometheus.MustNewConstMetric(c.loaded, prometheus.GaugeValue, 0, "")
		return
	}

	ch <- prometheus.MustNewConstMetric(c.loaded, prometheus.GaugeValue, 1, c.index.Source())
	ch <- prometheus.MustNewConstMetric(c.lastReload, prometheus.GaugeValue, float64(c.index.GetLastReload().Unix()))
	ch <- prometheus.MustNewConstMetric(c.domains, prometheus.GaugeValue, float64(len(plan.Domains)))
	ch <- prometheus.MustNewConstMetric(c.certificates, prometheus.GaugeValue, float64(len(plan.Certificates.Groups)))
	ch <- prometheus.MustNewConstMetric(c.sites, prometheus.GaugeValue, float64(len(plan.Assignment.Sites)))

	shared, dedicated := 0, 0
	for _, b := range plan.Assignment.Backends {
		if b.Shared {
			shared++
		} else {
			dedicated++
		}
	}
	ch <- prometheus.MustNewConstMetric(c.backends, prometheus.GaugeValue, float64(shared), "true")
	ch <- prometheus.MustNewConstMetric(c.backends, prometheus.GaugeValue, float64(dedicated), "false")

	tasks, pending := 0, 0
	if plan.Replication != nil {
		tasks = len(plan.Replication.Tasks)
		pending = len(plan.Replication.Pending)
	}
	ch <- prometheus.MustNewConstMetric(c.tasks, prometheus.GaugeValue, float64(tasks))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(pending))
}
