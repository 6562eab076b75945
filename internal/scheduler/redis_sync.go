package scheduler

import (
	"context"
	"errors"

	"github.com/sitefleet/platform/internal/index"
	"github.com/sitefleet/platform/internal/logger"
	redisstore "github.com/sitefleet/platform/internal/store/redis"
)

// RedisSyncer warms the memory index from the last stored snapshot on startup
type RedisSyncer struct {
	store  PlanStore
	index  *index.PlanIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store PlanStore,
	idx *index.PlanIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads the snapshot from Redis into the memory index
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing plan from redis to memory")

	plan, err := rs.store.GetPlan(ctx)
	if errors.Is(err, redisstore.ErrNotFound) {
		rs.logger.Info("no plan found in redis")
		return nil
	}
	if err != nil {
		return err
	}

	rs.index.Update(plan, "redis")

	rs.logger.Info("synced plan from redis",
		logger.Int("sites", rs.index.Count()),
		logger.String("built_at", plan.BuiltAt.String()))

	return nil
}
