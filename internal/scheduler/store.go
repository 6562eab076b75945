package scheduler

import (
	"context"

	"github.com/sitefleet/platform/internal/domain"
)

// PlanStore is the persistence the scheduler jobs need.
// *redisstore.Store satisfies it.
type PlanStore interface {
	SavePlan(ctx context.Context, plan *domain.Plan) error
	GetPlan(ctx context.Context) (*domain.Plan, error)
	ListSites(ctx context.Context) ([]string, error)
	DeleteSite(ctx context.Context, name string) error
}
