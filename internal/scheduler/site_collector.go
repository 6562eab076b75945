package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sitefleet/platform/internal/index"
	"github.com/sitefleet/platform/internal/logger"
)

// SiteCollector removes Redis bindings of sites that left the current plan
type SiteCollector struct {
	store    PlanStore
	index    *index.PlanIndex
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSiteCollector creates a new site collector
func NewSiteCollector(
	store PlanStore,
	idx *index.PlanIndex,
	log logger.Logger,
	interval time.Duration,
) *SiteCollector {
	return &SiteCollector{
		store:    store,
		index:    idx,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection
func (sc *SiteCollector) Start(ctx context.Context) error {
	if _, err := sc.Collect(ctx); err != nil {
		sc.logger.Warn("initial site collection failed", logger.Error(err))
	}

	ticker := time.NewTicker(sc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := sc.Collect(ctx); err != nil {
					sc.logger.Error("site collection failed", logger.Error(err))
				}
			case <-sc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the collector
func (sc *SiteCollector) Stop() {
	close(sc.stopCh)
}

// Collect deletes stored sites missing from the current plan and returns
// their names. Without a plan in memory nothing is deleted.
func (sc *SiteCollector) Collect(ctx context.Context) ([]string, error) {
	if sc.store == nil {
		return nil, nil
	}
	if _, ok := sc.index.Plan(); !ok {
		sc.logger.Debug("no plan loaded, skipping site collection")
		return nil, nil
	}

	stored, err := sc.store.ListSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored sites: %w", err)
	}

	current := make(map[string]bool, sc.index.Count())
	for _, name := range sc.index.SiteNames() {
		current[name] = true
	}

	var removed []string
	for _, name := range stored {
		if current[name] {
			continue
		}
		if err := sc.store.DeleteSite(ctx, name); err != nil {
			sc.logger.Warn("failed to delete site from redis",
				logger.String("site", name),
				logger.Error(err))
			continue
		}
		sc.logger.Info("collected stale site", logger.String("site", name))
		removed = append(removed, name)
	}

	if len(removed) == 0 {
		sc.logger.Debug("no stale sites to collect")
	}
	return removed, nil
}
