package platform

import (
	"fmt"

	"github.com/sitefleet/platform/internal/domain"
)

// Mapper converts the platform file into planner input.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// Options are the deployment choices that are not part of the data table.
type Options struct {
	Environment       string
	Subdomain         string
	Dedicated         bool
	LegacyReplication bool
}

// Domains returns website domains followed by admin domains.
func (m *Mapper) Domains(file *File) []domain.Domain {
	out := make([]domain.Domain, 0, len(file.WebsiteDomains)+len(file.AdminDomains))
	for _, d := range file.WebsiteDomains {
		out = append(out, domain.Domain{ZoneID: d.ZoneID, Name: d.Name})
	}
	for _, d := range file.AdminDomains {
		out = append(out, domain.Domain{ZoneID: d.ZoneID, Name: d.Name})
	}
	return out
}

// Bundles converts site bundles; TargetGroup is the bundle index.
func (m *Mapper) Bundles(file *File) [][]domain.Site {
	out := make([][]domain.Site, 0, len(file.SiteBundles))
	for i, bundle := range file.SiteBundles {
		sites := make([]domain.Site, 0, len(bundle))
		for _, s := range bundle {
			sites = append(sites, domain.Site{ID: s.ID, Name: s.Name, TargetGroup: i})
		}
		out = append(out, sites)
	}
	return out
}

// LegacySources converts the legacy replication sources.
func (m *Mapper) LegacySources(file *File) ([]domain.LegacySource, error) {
	out := make([]domain.LegacySource, 0, len(file.LegacySources))
	for i, src := range file.LegacySources {
		if src.Identifier == "" {
			return nil, fmt.Errorf("legacy source #%d: missing identifier", i)
		}
		if src.Host == "" {
			return nil, fmt.Errorf("legacy source %q: missing host", src.Identifier)
		}
		if src.PasswordKey == "" {
			return nil, fmt.Errorf("legacy source %q: missing passwordKey", src.Identifier)
		}

		engine := src.Engine
		if engine == "" {
			engine = "mysql"
		}
		port := src.Port
		if port == 0 {
			port = 3306
		}

		sites := make([]domain.LegacySite, 0, len(src.Sites))
		for _, s := range src.Sites {
			sites = append(sites, domain.LegacySite{Name: s.Name, Schema: s.Schema})
		}

		out = append(out, domain.LegacySource{
			Identifier:  src.Identifier,
			Engine:      engine,
			Host:        src.Host,
			Port:        port,
			Username:    src.Username,
			PasswordKey: src.PasswordKey,
			Sites:       sites,
		})
	}
	return out, nil
}

// PlanInput assembles the complete planner input.
func (m *Mapper) PlanInput(file *File, opts Options) (domain.PlanInput, error) {
	legacy, err := m.LegacySources(file)
	if err != nil {
		return domain.PlanInput{}, err
	}

	return domain.PlanInput{
		Environment:       opts.Environment,
		Domains:           m.Domains(file),
		Subdomain:         opts.Subdomain,
		Bundles:           m.Bundles(file),
		Dedicated:         opts.Dedicated,
		LegacySources:     legacy,
		LegacyReplication: opts.LegacyReplication,
	}, nil
}

// BuildPlan loads the platform file and runs the planners.
func BuildPlan(loader *Loader, opts Options) (*domain.Plan, error) {
	file, err := loader.Load()
	if err != nil {
		return nil, err
	}

	in, err := NewMapper().PlanInput(file, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to map platform file: %w", err)
	}

	plan, err := domain.BuildPlan(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build plan: %w", err)
	}
	return plan, nil
}
