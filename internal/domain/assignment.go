package domain

import (
	"fmt"
	"strings"
)

// Site is a tenant's public-facing identity.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// TargetGroup is the index of the bundle the site was declared in.
	TargetGroup int `json:"target_group"`
}

// Backend is one database endpoint, shared by a bundle or dedicated to a site.
// Its connection info only exists once the database is provisioned, so the
// planner carries the identifier and leaves the values to the provisioning layer.
type Backend struct {
	Identifier string `json:"identifier"`
	Sites      []Site `json:"sites"`
	Shared     bool   `json:"shared"`
}

// SiteBinding is the per-site view of the assignment handed to namespace and
// secret-sync automation.
type SiteBinding struct {
	Site              Site   `json:"site"`
	BackendIdentifier string `json:"backend_identifier"`
	SecretName        string `json:"secret_name"`

	// SecurityGroupKey names the security group guarding the backend. It is
	// the backend identifier; the provider-assigned id is resolved later.
	SecurityGroupKey string `json:"security_group_key"`
}

// TargetMapping is the replication-mapping entry for a site: where a migrated
// site's data must land.
type TargetMapping struct {
	BackendIdentifier string `json:"backend_identifier"`
	DatabaseName      string `json:"database_name"`
	SecretName        string `json:"secret_name"`
	SecurityGroupKey  string `json:"security_group_key"`
}

// Assignment maps every site to exactly one backend.
type Assignment struct {
	// Backends in first-seen order, one per distinct identifier.
	Backends []Backend `json:"backends"`

	// Sites is keyed by site name.
	Sites map[string]SiteBinding `json:"sites"`

	// Targets is keyed by site name and consumed by PlanReplication.
	Targets map[string]TargetMapping `json:"targets"`
}

// SharedBackendIdentifier is the identifier of the shared database of bundle i.
func SharedBackendIdentifier(bundle int) string {
	return fmt.Sprintf("shared-db-%d", bundle)
}

// SecretName is the name of the secret holding a backend's connection info.
// Sites on the same backend share it.
func SecretName(env, backendIdentifier string) string {
	return fmt.Sprintf("%s/%s/database", env, backendIdentifier)
}

// DatabaseName converts a site name into the schema created for it on its backend.
// Example: "amore-link" -> "amore_link"
func DatabaseName(site string) string {
	return strings.ReplaceAll(site, "-", "_")
}

// AssignBackends resolves the database backend of every site.
//
// With dedicated set, each site gets its own backend named after the site.
// Otherwise every bundle shares one backend named after its index, except a
// bundle of exactly one site, which always uses the site name. Secret names
// depend on that asymmetry and must not change.
func AssignBackends(bundles [][]Site, dedicated bool, env string) (*Assignment, error) {
	if env == "" {
		return nil, ErrUnknownEnvironment
	}

	a := &Assignment{
		Sites:   make(map[string]SiteBinding),
		Targets: make(map[string]TargetMapping),
	}
	owners := make(map[string]int) // backend identifier -> bundle index

	addBackend := func(id string, bundle int, sites []Site, shared bool) error {
		if prev, taken := owners[id]; taken {
			return fmt.Errorf("backend %q (bundles %d and %d): %w", id, prev, bundle, ErrBackendCollision)
		}
		owners[id] = bundle
		a.Backends = append(a.Backends, Backend{Identifier: id, Sites: sites, Shared: shared})
		return nil
	}

	for i, bundle := range bundles {
		if len(bundle) == 0 {
			return nil, fmt.Errorf("bundle %d: %w", i, ErrEmptyBundle)
		}

		sites := make([]Site, 0, len(bundle))
		for _, s := range bundle {
			if s.Name == "" {
				return nil, fmt.Errorf("bundle %d, site %q: %w", i, s.ID, ErrEmptySiteName)
			}
			if _, dup := a.Sites[s.Name]; dup {
				return nil, fmt.Errorf("site %q: %w", s.Name, ErrDuplicateSite)
			}
			s.TargetGroup = i
			sites = append(sites, s)
			// reserve the name so duplicates inside one bundle are caught too
			a.Sites[s.Name] = SiteBinding{Site: s}
		}

		switch {
		case dedicated || len(sites) == 1:
			for _, s := range sites {
				if err := addBackend(s.Name, i, []Site{s}, false); err != nil {
					return nil, err
				}
				a.bind(env, s, s.Name)
			}
		default:
			id := SharedBackendIdentifier(i)
			if err := addBackend(id, i, sites, true); err != nil {
				return nil, err
			}
			for _, s := range sites {
				a.bind(env, s, id)
			}
		}
	}

	return a, nil
}

func (a *Assignment) bind(env string, s Site, backend string) {
	secret := SecretName(env, backend)
	a.Sites[s.Name] = SiteBinding{
		Site:              s,
		BackendIdentifier: backend,
		SecretName:        secret,
		SecurityGroupKey:  backend,
	}
	a.Targets[s.Name] = TargetMapping{
		BackendIdentifier: backend,
		DatabaseName:      DatabaseName(s.Name),
		SecretName:        secret,
		SecurityGroupKey:  backend,
	}
}

// Backend returns the backend with the given identifier.
func (a *Assignment) Backend(id string) (Backend, bool) {
	for _, b := range a.Backends {
		if b.Identifier == id {
			return b, true
		}
	}
	return Backend{}, false
}
