package handlers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitefleet/platform/internal/domain"
	"github.com/sitefleet/platform/internal/httpserver/deps"
	"github.com/sitefleet/platform/internal/logger"
	redisstore "github.com/sitefleet/platform/internal/store/redis"
)

type planSummary struct {
	Environment       string    `json:"environment"`
	BuiltAt           time.Time `json:"built_at"`
	Domains           int       `json:"domains"`
	CertificateGroups int       `json:"certificate_groups"`
	Backends          int       `json:"backends"`
	Sites             int       `json:"sites"`
	Replication       bool      `json:"replication"`
}

type domainsResponse struct {
	Domains   []domain.Domain    `json:"domains"`
	Hostnames []string           `json:"hostnames"`
	DNS       []domain.DNSRecord `json:"dns"`
}

type siteResponse struct {
	domain.SiteBinding
	Source string `json:"source"`
}

// currentPlan writes a 503 and returns false when no snapshot is loaded.
func currentPlan(w http.ResponseWriter, d deps.Deps) (*domain.Plan, bool) {
	plan, ok := d.PlanIndex.Plan()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no plan loaded")
		return nil, false
	}
	return plan, true
}

// PlanSummary returns counts for the current plan.
func PlanSummary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := currentPlan(w, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, planSummary{
			Environment:       plan.Environment,
			BuiltAt:           plan.BuiltAt,
			Domains:           len(plan.Domains),
			CertificateGroups: len(plan.Certificates.Groups),
			Backends:          len(plan.Assignment.Backends),
			Sites:             len(plan.Assignment.Sites),
			Replication:       plan.Replication != nil,
		})
	}
}

// Domains returns the flattened domain list and its DNS bindings.
func Domains(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := currentPlan(w, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, domainsResponse{
			Domains:   plan.Domains,
			Hostnames: plan.Certificates.Hostnames,
			DNS:       plan.DNS,
		})
	}
}

// Certificates returns the certificate groups.
func Certificates(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := currentPlan(w, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, plan.Certificates.Groups)
	}
}

// Sites returns every site binding, sorted by site name.
func Sites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := currentPlan(w, d)
		if !ok {
			return
		}
		bindings := make([]domain.SiteBinding, 0, len(plan.Assignment.Sites))
		for _, b := range plan.Assignment.Sites {
			bindings = append(bindings, b)
		}
		sort.Slice(bindings, func(i, j int) bool {
			return bindings[i].Site.Name < bindings[j].Site.Name
		})
		writeJSON(w, http.StatusOK, bindings)
	}
}

// Site returns one binding. The memory index answers first; Redis is only
// asked while no plan is loaded yet.
func Site(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		if binding, ok := d.PlanIndex.Site(name); ok {
			writeJSON(w, http.StatusOK, siteResponse{SiteBinding: binding, Source: "memory"})
			return
		}
		if _, loaded := d.PlanIndex.Plan(); loaded || d.Store == nil {
			writeError(w, http.StatusNotFound, "unknown site: "+name)
			return
		}

		binding, err := d.Store.GetSite(r.Context(), name)
		switch {
		case errors.Is(err, redisstore.ErrNotFound):
			writeError(w, http.StatusNotFound, "unknown site: "+name)
		case err != nil:
			d.Logger.Warn("failed to read site from redis",
				logger.String("site", name),
				logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "no plan loaded")
		default:
			writeJSON(w, http.StatusOK, siteResponse{SiteBinding: *binding, Source: "redis"})
		}
	}
}

// Replication returns the replication plan, 404 when it is not planned
// for this environment.
func Replication(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, ok := currentPlan(w, d)
		if !ok {
			return
		}
		if plan.Replication == nil {
			writeError(w, http.StatusNotFound, "replication is not planned for "+plan.Environment)
			return
		}
		writeJSON(w, http.StatusOK, plan.Replication)
	}
}
