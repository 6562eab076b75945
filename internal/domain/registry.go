package domain

import (
	"fmt"
	"strings"
)

// Domain is a tenant domain and the Route 53 hosted zone that owns its records.
//
// Domains are defined at deploy time and never mutated afterwards.
type Domain struct {
	// ZoneID identifies the DNS routing zone (hosted zone id).
	ZoneID string `json:"zone_id" yaml:"zoneId"`

	// Name is the apex domain name, unique across the registry.
	// Example: amorelink.com
	Name string `json:"name" yaml:"name"`
}

// Registry is the read-only table of tenant domains.
type Registry struct {
	domains []Domain
	zones   map[string]string // name -> zone id
}

// NewRegistry validates the domain list and builds the name -> zone lookup.
// Order is preserved; it drives certificate chunking downstream.
func NewRegistry(domains []Domain) (*Registry, error) {
	r := &Registry{
		domains: make([]Domain, 0, len(domains)),
		zones:   make(map[string]string, len(domains)),
	}

	for i, d := range domains {
		name := strings.ToLower(strings.TrimSpace(d.Name))
		if name == "" {
			return nil, fmt.Errorf("domain #%d: %w", i, ErrEmptyDomainName)
		}
		if strings.TrimSpace(d.ZoneID) == "" {
			return nil, fmt.Errorf("domain %q: %w", name, ErrMissingZone)
		}
		if _, exists := r.zones[name]; exists {
			return nil, fmt.Errorf("domain %q: %w", name, ErrDuplicateDomain)
		}

		r.zones[name] = d.ZoneID
		r.domains = append(r.domains, Domain{ZoneID: d.ZoneID, Name: name})
	}

	return r, nil
}

// Domains returns the full ordered domain list.
func (r *Registry) Domains() []Domain {
	out := make([]Domain, len(r.domains))
	copy(out, r.domains)
	return out
}

// ZoneFor returns the hosted zone id owning name.
func (r *Registry) ZoneFor(name string) (string, error) {
	zone, ok := r.zones[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("domain %q: %w", name, ErrUnknownDomain)
	}
	return zone, nil
}
