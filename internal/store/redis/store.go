package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sitefleet/platform/internal/domain"
)

// DefaultSiteTTL bounds how long a binding survives without a reload.
const DefaultSiteTTL = 7 * 24 * time.Hour

// ErrNotFound is returned when a key is missing.
var ErrNotFound = errors.New("not found")

// Store persists plan snapshots and site bindings in Redis
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks that Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SavePlan writes the snapshot and one key per site binding in a single pipeline.
func (s *Store) SavePlan(ctx context.Context, plan *domain.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, PlanKey(), data, 0)

	for name, binding := range plan.Assignment.Sites {
		raw, err := json.Marshal(binding)
		if err != nil {
			return fmt.Errorf("failed to marshal site %s: %w", name, err)
		}
		pipe.Set(ctx, SiteKey(name), raw, DefaultSiteTTL)
		pipe.SAdd(ctx, AllSitesKey(), name)
	}
	pipe.Expire(ctx, AllSitesKey(), DefaultSiteTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// GetPlan returns the last saved snapshot.
func (s *Store) GetPlan(ctx context.Context) (*domain.Plan, error) {
	data, err := s.client.Get(ctx, PlanKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("plan snapshot: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	var plan domain.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &plan, nil
}

// GetSite retrieves one site binding by name
func (s *Store) GetSite(ctx context.Context, name string) (*domain.SiteBinding, error) {
	data, err := s.client.Get(ctx, SiteKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("site %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	var binding domain.SiteBinding
	if err := json.Unmarshal(data, &binding); err != nil {
		return nil, fmt.Errorf("failed to unmarshal site: %w", err)
	}
	return &binding, nil
}

// ListSites returns the stored site names, sorted. Members whose binding
// key has expired are dropped from the set and not returned.
func (s *Store) ListSites(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, AllSitesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	if len(names) == 0 {
		return names, nil
	}

	pipe := s.client.Pipeline()
	exists := make([]*redis.IntCmd, len(names))
	for i, name := range names {
		exists[i] = pipe.Exists(ctx, SiteKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to check site keys: %w", err)
	}

	live := make([]string, 0, len(names))
	var stale []interface{}
	for i, name := range names {
		if exists[i].Val() == 0 {
			stale = append(stale, name)
			continue
		}
		live = append(live, name)
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, AllSitesKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to drop expired sites: %w", err)
		}
	}

	sort.Strings(live)
	return live, nil
}

// DeleteSite removes a site binding and its set membership
func (s *Store) DeleteSite(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, SiteKey(name))
	pipe.SRem(ctx, AllSitesKey(), name)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete site %s: %w", name, err)
	}
	return nil
}
