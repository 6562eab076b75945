package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sitefleet/platform/internal/index"
	"github.com/sitefleet/platform/internal/logger"
	"github.com/sitefleet/platform/internal/sources/platform"
)

// PlanReloader periodically rebuilds the plan from the platform file
type PlanReloader struct {
	loader        *platform.Loader
	opts          platform.Options
	store         PlanStore
	index         *index.PlanIndex
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewPlanReloader creates a new plan reloader. store may be nil.
func NewPlanReloader(
	platformFile string,
	opts platform.Options,
	store PlanStore,
	idx *index.PlanIndex,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *PlanReloader {
	return &PlanReloader{
		loader:        platform.NewLoader(platformFile),
		opts:          opts,
		store:         store,
		index:         idx,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start builds the plan once, then keeps reloading on the ticker or on demand
func (pr *PlanReloader) Start(ctx context.Context) error {
	if err := pr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(pr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := pr.Reload(ctx); err != nil {
					pr.logger.Error("failed to reload plan", logger.Error(err))
				}
			case <-pr.manualTrigger:
				pr.logger.Info("manual reload triggered")
				if err := pr.Reload(ctx); err != nil {
					pr.logger.Error("failed to reload plan", logger.Error(err))
				}
			case <-pr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (pr *PlanReloader) Stop() {
	close(pr.stopCh)
}

// Reload builds a fresh plan and swaps it in. A failed build keeps the
// previous snapshot in place.
func (pr *PlanReloader) Reload(ctx context.Context) error {
	pr.logger.Info("reloading plan", logger.String("source", pr.loader.Source()))

	plan, err := platform.BuildPlan(pr.loader, pr.opts)
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}

	pr.index.Update(plan, pr.loader.Source())

	fields := []logger.Field{
		logger.String("environment", plan.Environment),
		logger.Int("domains", len(plan.Domains)),
		logger.Int("certificates", len(plan.Certificates.Groups)),
		logger.Int("backends", len(plan.Assignment.Backends)),
	}
	if plan.Replication != nil {
		fields = append(fields,
			logger.Int("replication_tasks", len(plan.Replication.Tasks)),
			logger.Strings("pending_sites", plan.Replication.Pending))
	}
	pr.logger.Info("plan built", fields...)

	// Redis is best effort, the memory index is the primary source
	if pr.store != nil {
		if err := pr.store.SavePlan(ctx, plan); err != nil {
			pr.logger.Warn("failed to save plan to redis", logger.Error(err))
		} else {
			pr.logger.Debug("plan saved to redis")
		}
	}

	return nil
}
