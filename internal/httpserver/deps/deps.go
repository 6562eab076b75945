package deps

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sitefleet/platform/internal/domain"
	"github.com/sitefleet/platform/internal/index"
	"github.com/sitefleet/platform/internal/logger"
	"github.com/sitefleet/platform/internal/metrics"
)

// SiteStore is the Redis side the handlers read from.
type SiteStore interface {
	Ping(ctx context.Context) error
	GetSite(ctx context.Context, name string) (*domain.SiteBinding, error)
}

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	AllowedHosts    []string            // Host headers allowed to access the plan API
	AllowedCIDRS    []string            // IPs allowed to access readyz/status/reload/metrics
	TrustProxy      bool                // true if running behind a trusted reverse proxy
	RateLimitBurst  int                 // requests allowed in a burst per client IP
	RateLimitPerMin int                 // sustained requests per minute per client IP
	Store           SiteStore           // nil when Redis is unavailable
	PlanIndex       *index.PlanIndex    // In-memory plan snapshot
	ReloadTrigger   chan struct{}       // Channel to trigger a manual plan rebuild
	HTTPMetrics     *metrics.HTTP       // request collectors, nil disables instrumentation
	Gatherer        prometheus.Gatherer // served on /metrics, nil disables the route
	RequestTimeout  time.Duration       // per-request timeout, defaults to 2s
}
