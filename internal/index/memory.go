package index

import (
	"sort"
	"sync"
	"time"

	"github.com/sitefleet/platform/internal/domain"
)

// PlanIndex holds the current plan snapshot in memory.
// It acts as a fallback when Redis is unavailable
type PlanIndex struct {
	mu         sync.RWMutex
	plan       *domain.Plan
	source     string    // where the plan came from ("embedded", a path, "redis")
	lastReload time.Time // Timestamp of last swap
}

// NewPlanIndex creates an empty index
func NewPlanIndex() *PlanIndex {
	return &PlanIndex{}
}

// Update swaps the current plan. Plans are never mutated after BuildPlan,
// so readers may keep the previous pointer.
func (idx *PlanIndex) Update(plan *domain.Plan, source string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.plan = plan
	idx.source = source
	idx.lastReload = time.Now()
}

// Plan returns the current snapshot, if any
func (idx *PlanIndex) Plan() (*domain.Plan, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.plan, idx.plan != nil
}

// Site retrieves a site binding by name
func (idx *PlanIndex) Site(name string) (domain.SiteBinding, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.plan == nil || idx.plan.Assignment == nil {
		return domain.SiteBinding{}, false
	}
	binding, ok := idx.plan.Assignment.Sites[name]
	return binding, ok
}

// SiteNames returns the assigned site names, sorted
func (idx *PlanIndex) SiteNames() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.plan == nil || idx.plan.Assignment == nil {
		return nil
	}
	names := idx.plan.SiteNames()
	sort.Strings(names)
	return names
}

// Count returns the number of sites in the snapshot
func (idx *PlanIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.plan == nil || idx.plan.Assignment == nil {
		return 0
	}
	return len(idx.plan.Assignment.Sites)
}

// Source returns where the current plan was loaded from
func (idx *PlanIndex) Source() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.source
}

// GetLastReload returns the timestamp of the last swap
func (idx *PlanIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
