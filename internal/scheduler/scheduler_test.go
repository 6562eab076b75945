package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sitefleet/platform/internal/domain"
	"github.com/sitefleet/platform/internal/index"
	"github.com/sitefleet/platform/internal/logger"
	"github.com/sitefleet/platform/internal/sources/platform"
	redisstore "github.com/sitefleet/platform/internal/store/redis"
)

// fakeStore keeps plans and site names in memory.
type fakeStore struct {
	mu      sync.Mutex
	plan    *domain.Plan
	sites   map[string]bool
	saveErr error
}

func newFakeStore(sites ...string) *fakeStore {
	fs := &fakeStore{sites: map[string]bool{}}
	for _, s := range sites {
		fs.sites[s] = true
	}
	return fs
}

func (f *fakeStore) SavePlan(_ context.Context, plan *domain.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.plan = plan
	for name := range plan.Assignment.Sites {
		f.sites[name] = true
	}
	return nil
}

func (f *fakeStore) GetPlan(context.Context) (*domain.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.plan == nil {
		return nil, fmt.Errorf("plan snapshot: %w", redisstore.ErrNotFound)
	}
	return f.plan, nil
}

func (f *fakeStore) ListSites(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.sites))
	for n := range f.sites {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeStore) DeleteSite(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sites, name)
	return nil
}

const smallPlatform = `
websiteDomains:
  - name: amorelink.com
    zoneId: Z1
  - name: datewave.net
    zoneId: Z2
adminDomains: []
siteBundles:
  - - id: "1"
      name: amorelink
    - id: "2"
      name: datewave
`

func writePlatform(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "platform.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write platform file: %v", err)
	}
	return path
}

func TestPlanReloaderReload(t *testing.T) {
	log := logger.New("error", false)
	idx := index.NewPlanIndex()
	store := newFakeStore()
	path := writePlatform(t, smallPlatform)

	pr := NewPlanReloader(path, platform.Options{Environment: "staging"}, store, idx, log, time.Hour, nil)
	if err := pr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if diff := cmp.Diff([]string{"amorelink", "datewave"}, idx.SiteNames()); diff != "" {
		t.Errorf("index sites mismatch (-want +got):\n%s", diff)
	}
	if idx.Source() != path {
		t.Errorf("Source() = %q, want %q", idx.Source(), path)
	}
	if store.plan == nil {
		t.Error("plan was not saved to the store")
	}
}

func TestPlanReloaderKeepsPreviousPlanOnError(t *testing.T) {
	log := logger.New("error", false)
	idx := index.NewPlanIndex()
	path := writePlatform(t, smallPlatform)

	pr := NewPlanReloader(path, platform.Options{Environment: "staging"}, nil, idx, log, time.Hour, nil)
	if err := pr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	before, _ := idx.Plan()

	// a site declared twice makes the next build fail
	broken := smallPlatform + `
  - - id: "3"
      name: amorelink
`
	if err := os.WriteFile(path, []byte(broken), 0o600); err != nil {
		t.Fatalf("rewrite platform file: %v", err)
	}
	if err := pr.Reload(context.Background()); err == nil {
		t.Fatal("Reload() should fail on a duplicate site")
	}

	after, _ := idx.Plan()
	if after != before {
		t.Error("failed reload replaced the previous plan")
	}
}

func TestPlanReloaderStoreFailureIsNotFatal(t *testing.T) {
	log := logger.New("error", false)
	idx := index.NewPlanIndex()
	store := newFakeStore()
	store.saveErr = errors.New("connection refused")

	pr := NewPlanReloader(writePlatform(t, smallPlatform), platform.Options{Environment: "staging"}, store, idx, log, time.Hour, nil)
	if err := pr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v, want nil when only redis fails", err)
	}
	if idx.Count() != 2 {
		t.Errorf("Count() = %d, want 2", idx.Count())
	}
}

func TestPlanReloaderManualTrigger(t *testing.T) {
	log := logger.New("error", false)
	idx := index.NewPlanIndex()
	trigger := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr := NewPlanReloader(writePlatform(t, smallPlatform), platform.Options{Environment: "staging"}, nil, idx, log, time.Hour, trigger)
	if err := pr.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer pr.Stop()

	first := idx.GetLastReload()
	time.Sleep(5 * time.Millisecond)
	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for !idx.GetLastReload().After(first) {
		if time.Now().After(deadline) {
			t.Fatal("manual trigger did not reload the plan")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRedisSyncer(t *testing.T) {
	log := logger.New("error", false)

	t.Run("empty store", func(t *testing.T) {
		idx := index.NewPlanIndex()
		if err := NewRedisSyncer(newFakeStore(), idx, log).Sync(context.Background()); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if _, ok := idx.Plan(); ok {
			t.Error("Sync() loaded a plan from an empty store")
		}
	})

	t.Run("stored snapshot", func(t *testing.T) {
		plan, err := domain.BuildPlan(domain.PlanInput{
			Environment: "staging",
			Domains:     []domain.Domain{{ZoneID: "Z1", Name: "amorelink.com"}},
			Bundles:     [][]domain.Site{{{Name: "amorelink"}}},
		})
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		store := newFakeStore()
		store.plan = plan

		idx := index.NewPlanIndex()
		if err := NewRedisSyncer(store, idx, log).Sync(context.Background()); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if idx.Source() != "redis" || idx.Count() != 1 {
			t.Errorf("index source = %q, count = %d", idx.Source(), idx.Count())
		}
	})
}

func TestSiteCollectorCollect(t *testing.T) {
	log := logger.New("error", false)
	idx := index.NewPlanIndex()
	store := newFakeStore("amorelink", "datewave", "oldsite", "retired")

	sc := NewSiteCollector(store, idx, log, time.Hour)

	// no plan loaded yet: nothing is touched
	removed, err := sc.Collect(context.Background())
	if err != nil || removed != nil {
		t.Fatalf("Collect() without plan = %v, %v", removed, err)
	}

	pr := NewPlanReloader(writePlatform(t, smallPlatform), platform.Options{Environment: "staging"}, nil, idx, log, time.Hour, nil)
	if err := pr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	removed, err = sc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if diff := cmp.Diff([]string{"oldsite", "retired"}, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}

	left, _ := store.ListSites(context.Background())
	if diff := cmp.Diff([]string{"amorelink", "datewave"}, left); diff != "" {
		t.Errorf("remaining sites mismatch (-want +got):\n%s", diff)
	}
}

func TestSiteCollectorNilStore(t *testing.T) {
	sc := NewSiteCollector(nil, index.NewPlanIndex(), logger.New("error", false), time.Hour)
	if removed, err := sc.Collect(context.Background()); err != nil || removed != nil {
		t.Errorf("Collect() with nil store = %v, %v", removed, err)
	}
}
