package domain

import (
	"fmt"
	"time"
)

// ProductionEnvironment is the only environment legacy replication runs in.
const ProductionEnvironment = "prod"

// PlanInput is the static configuration a plan is built from.
type PlanInput struct {
	Environment string
	Domains     []Domain
	Subdomain   string

	// Bundles groups sites that share a database unless Dedicated is set.
	Bundles   [][]Site
	Dedicated bool

	LegacySources     []LegacySource
	LegacyReplication bool

	// ChunkSize defaults to CertificateChunkSize.
	ChunkSize int
}

// DNSRecord routes one hostname to the ingress.
type DNSRecord struct {
	Hostname string `json:"hostname"`
	ZoneID   string `json:"zone_id"`
}

// Plan is the write-once result of one planning pass. Every downstream
// consumer reads it; nothing mutates it after BuildPlan returns.
type Plan struct {
	Environment  string            `json:"environment"`
	Domains      []Domain          `json:"domains"`
	Certificates *CertificateBatch `json:"certificates"`
	DNS          []DNSRecord       `json:"dns"`
	Assignment   *Assignment       `json:"assignment"`

	// Replication is nil unless legacy replication is enabled for prod.
	Replication *ReplicationPlan `json:"replication,omitempty"`

	BuiltAt time.Time `json:"built_at"`
}

// ReplicationEnabled reports whether legacy replication applies to env.
func ReplicationEnabled(env string, flag bool) bool {
	return flag && env == ProductionEnvironment
}

// BuildPlan runs the planners in a single synchronous pass. Any lookup or
// configuration error aborts the pass before a plan is returned, so nothing
// is declared from a partial plan.
func BuildPlan(in PlanInput) (*Plan, error) {
	if in.Environment == "" {
		return nil, ErrUnknownEnvironment
	}

	registry, err := NewRegistry(in.Domains)
	if err != nil {
		return nil, fmt.Errorf("domain registry: %w", err)
	}

	chunk := in.ChunkSize
	if chunk == 0 {
		chunk = CertificateChunkSize
	}

	domains := registry.Domains()
	batch, err := BatchCertificates(domains, in.Subdomain, chunk)
	if err != nil {
		return nil, fmt.Errorf("certificates: %w", err)
	}

	records := make([]DNSRecord, 0, len(batch.Hostnames))
	for _, group := range batch.Groups {
		for _, d := range group.Domains {
			zone, err := registry.ZoneFor(d.Name)
			if err != nil {
				return nil, fmt.Errorf("dns: %w", err)
			}
			records = append(records, DNSRecord{
				Hostname: Hostname(in.Subdomain, d.Name),
				ZoneID:   zone,
			})
		}
	}

	assignment, err := AssignBackends(in.Bundles, in.Dedicated, in.Environment)
	if err != nil {
		return nil, fmt.Errorf("database assignment: %w", err)
	}

	plan := &Plan{
		Environment:  in.Environment,
		Domains:      domains,
		Certificates: batch,
		DNS:          records,
		Assignment:   assignment,
		BuiltAt:      time.Now().UTC(),
	}

	if ReplicationEnabled(in.Environment, in.LegacyReplication) {
		plan.Replication, err = PlanReplication(in.LegacySources, assignment.Targets)
		if err != nil {
			return nil, fmt.Errorf("replication: %w", err)
		}
	}

	return plan, nil
}

// SiteNames returns the assigned site names in backend order.
func (p *Plan) SiteNames() []string {
	names := make([]string, 0, len(p.Assignment.Sites))
	for _, b := range p.Assignment.Backends {
		for _, s := range b.Sites {
			names = append(names, s.Name)
		}
	}
	return names
}
