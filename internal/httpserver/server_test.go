package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sitefleet/platform/internal/domain"
	"github.com/sitefleet/platform/internal/httpserver/deps"
	"github.com/sitefleet/platform/internal/index"
	"github.com/sitefleet/platform/internal/logger"
	"github.com/sitefleet/platform/internal/metrics"
	"github.com/sitefleet/platform/internal/sources/platform"
	redisstore "github.com/sitefleet/platform/internal/store/redis"
)

type fakeSiteStore struct {
	sites   map[string]domain.SiteBinding
	pingErr error
}

func (f *fakeSiteStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeSiteStore) GetSite(_ context.Context, name string) (*domain.SiteBinding, error) {
	b, ok := f.sites[name]
	if !ok {
		return nil, fmt.Errorf("site %s: %w", name, redisstore.ErrNotFound)
	}
	return &b, nil
}

func testDeps(t *testing.T, loaded bool) deps.Deps {
	t.Helper()
	idx := index.NewPlanIndex()
	if loaded {
		plan, err := platform.BuildPlan(platform.NewLoader(""), platform.Options{
			Environment:       "prod",
			LegacyReplication: true,
		})
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		idx.Update(plan, "embedded")
	}

	reg := prometheus.NewRegistry()
	return deps.Deps{
		Logger:          logger.NewNop(),
		StartTime:       time.Now(),
		Version:         "test",
		RateLimitBurst:  100,
		RateLimitPerMin: 600,
		PlanIndex:       idx,
		ReloadTrigger:   make(chan struct{}, 1),
		HTTPMetrics:     metrics.NewHTTP(reg),
		Gatherer:        reg,
	}
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, NewRouter(testDeps(t, false)), http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Build   struct {
			Version string `json:"version"`
		} `json:"build"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Service != "sitefleet" || body.Build.Version != "test" {
		t.Errorf("body = %+v", body)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name   string
		loaded bool
		want   int
	}{
		{name: "no plan", loaded: false, want: http.StatusServiceUnavailable},
		{name: "plan loaded", loaded: true, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, NewRouter(testDeps(t, tt.loaded)), http.MethodGet, "/readyz")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPlanEndpoints(t *testing.T) {
	router := NewRouter(testDeps(t, true))

	t.Run("domains", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/plan/domains")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Domains   []domain.Domain    `json:"domains"`
			Hostnames []string           `json:"hostnames"`
			DNS       []domain.DNSRecord `json:"dns"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Domains) != 44 || len(body.Hostnames) != 44 || len(body.DNS) != 44 {
			t.Errorf("domains = %d, hostnames = %d, dns = %d, want 44 each",
				len(body.Domains), len(body.Hostnames), len(body.DNS))
		}
	})

	t.Run("certificates", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/plan/certificates")
		var groups []domain.CertificateGroup
		if err := json.NewDecoder(rec.Body).Decode(&groups); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(groups) != 9 {
			t.Errorf("groups = %d, want 9", len(groups))
		}
	})

	t.Run("sites sorted", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/plan/sites")
		var bindings []domain.SiteBinding
		if err := json.NewDecoder(rec.Body).Decode(&bindings); err != nil {
			t.Fatalf("decode: %v", err)
		}
		for i := 1; i < len(bindings); i++ {
			if bindings[i-1].Site.Name > bindings[i].Site.Name {
				t.Fatalf("sites not sorted at %d: %s > %s", i, bindings[i-1].Site.Name, bindings[i].Site.Name)
			}
		}
	})

	t.Run("one site", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/plan/sites/amorelink")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"source":"memory"`) {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/plan/sites/nosuchsite")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("replication", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/plan/replication")
		var plan domain.ReplicationPlan
		if err := json.NewDecoder(rec.Body).Decode(&plan); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(plan.Pending) != 1 || plan.Pending[0] != "classicdates" {
			t.Errorf("pending = %v, want [classicdates]", plan.Pending)
		}
	})
}

func TestPlanEndpointsWithoutPlan(t *testing.T) {
	router := NewRouter(testDeps(t, false))
	for _, path := range []string{"/api/plan/", "/api/plan/domains", "/api/plan/certificates", "/api/plan/sites", "/api/plan/replication"} {
		if rec := do(t, router, http.MethodGet, path); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", path, rec.Code)
		}
	}
}

func TestSiteFallsBackToRedis(t *testing.T) {
	d := testDeps(t, false)
	d.Store = &fakeSiteStore{sites: map[string]domain.SiteBinding{
		"amorelink": {Site: domain.Site{Name: "amorelink"}, BackendIdentifier: "shared-db-0"},
	}}
	router := NewRouter(d)

	rec := do(t, router, http.MethodGet, "/api/plan/sites/amorelink")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"source":"redis"`) {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, router, http.MethodGet, "/api/plan/sites/other"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown site status = %d, want 404", rec.Code)
	}
}

func TestReplicationNotPlanned(t *testing.T) {
	d := testDeps(t, false)
	plan, err := platform.BuildPlan(platform.NewLoader(""), platform.Options{Environment: "staging", LegacyReplication: true})
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	d.PlanIndex.Update(plan, "embedded")

	if rec := do(t, NewRouter(d), http.MethodGet, "/api/plan/replication"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 outside prod", rec.Code)
	}
}

func TestReload(t *testing.T) {
	d := testDeps(t, true)
	router := NewRouter(d)

	if rec := do(t, router, http.MethodPost, "/reload"); rec.Code != http.StatusAccepted {
		t.Fatalf("first reload status = %d, want 202", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/reload"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second reload status = %d, want 429 while one is pending", rec.Code)
	}
	<-d.ReloadTrigger
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name     string
		loaded   bool
		store    deps.SiteStore
		wantMode string
	}{
		{name: "no plan", loaded: false, wantMode: "critical"},
		{name: "no redis", loaded: true, wantMode: "degraded"},
		{name: "redis down", loaded: true, store: &fakeSiteStore{pingErr: errors.New("refused")}, wantMode: "degraded"},
		{name: "all up", loaded: true, store: &fakeSiteStore{}, wantMode: "operational"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDeps(t, tt.loaded)
			d.Store = tt.store
			rec := do(t, NewRouter(d), http.MethodGet, "/status")
			var body struct {
				Mode string `json:"mode"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", body.Mode, tt.wantMode)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(testDeps(t, true))
	do(t, router, http.MethodGet, "/healthz")

	rec := do(t, router, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `sitefleet_http_requests_total{code="200",method="GET",route="/healthz"} 1`) {
		t.Errorf("healthz request not counted:\n%s", rec.Body.String())
	}
}
