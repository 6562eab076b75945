package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LiveSchemaSuffix is appended to every schema on the legacy servers and
// stripped when the data lands on the new backends.
const LiveSchemaSuffix = "_live"

// LegacySource is one legacy database server and the sites it hosts.
type LegacySource struct {
	Identifier string `json:"identifier"`
	Engine     string `json:"engine"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`

	// PasswordKey is the key of the operator-supplied secret holding the password.
	PasswordKey string       `json:"password_key"`
	Sites       []LegacySite `json:"sites"`
}

// LegacySite is a site living on a legacy server.
type LegacySite struct {
	Name string `json:"name"`

	// Schema defaults to <name>_live.
	Schema string `json:"schema"`
}

// SourceSchema returns the schema the site's data is read from.
func (s LegacySite) SourceSchema() string {
	if s.Schema != "" {
		return s.Schema
	}
	return DatabaseName(s.Name) + LiveSchemaSuffix
}

// SourceEndpoint reads one site's schema from a legacy server.
type SourceEndpoint struct {
	Name         string `json:"name"`
	Site         string `json:"site"`
	Source       string `json:"source"`
	DatabaseName string `json:"database_name"`
}

// TargetEndpoint writes one site's data to its new backend.
type TargetEndpoint struct {
	Name    string        `json:"name"`
	Site    string        `json:"site"`
	Mapping TargetMapping `json:"mapping"`
}

// IngressRule lets the replication instance reach a target backend.
type IngressRule struct {
	Name             string `json:"name"`
	SecurityGroupKey string `json:"security_group_key"`

	// Site is the site whose task first needed the rule.
	Site string `json:"site"`
}

// ReplicationTask binds a source and a target endpoint.
type ReplicationTask struct {
	Name           string `json:"name"`
	Site           string `json:"site"`
	SourceEndpoint string `json:"source_endpoint"`
	TargetEndpoint string `json:"target_endpoint"`
	TableMappings  string `json:"table_mappings"`
}

// ReplicationPlan lists every replication resource to declare, in iteration order.
type ReplicationPlan struct {
	// Servers are the legacy sources the endpoints read from.
	Servers []LegacySource `json:"servers"`

	Sources      []SourceEndpoint  `json:"sources"`
	Targets      []TargetEndpoint  `json:"targets"`
	IngressRules []IngressRule     `json:"ingress_rules"`
	Tasks        []ReplicationTask `json:"tasks"`

	// Pending lists legacy sites with no target yet (not migrated).
	Pending []string `json:"pending"`
}

// PlanReplication walks every (legacy source, site) pair in order.
//
// A source endpoint is always planned. Sites without a target mapping stop
// there. Otherwise a target endpoint and a task are planned, and an ingress
// rule is added only the first time a target security group is seen, so
// sites sharing a backend never produce duplicate rules. A site listed twice,
// under one source or two, is a configuration error.
func PlanReplication(sources []LegacySource, targets map[string]TargetMapping) (*ReplicationPlan, error) {
	plan := &ReplicationPlan{Servers: append([]LegacySource(nil), sources...)}
	used := make(map[string]struct{})
	owner := make(map[string]string)

	for _, src := range sources {
		for _, site := range src.Sites {
			if prev, dup := owner[site.Name]; dup {
				return nil, fmt.Errorf("site %q listed by %s and %s: %w",
					site.Name, prev, src.Identifier, ErrDuplicateLegacySite)
			}
			owner[site.Name] = src.Identifier

			schema := site.SourceSchema()
			source := SourceEndpoint{
				Name:         "source-" + site.Name,
				Site:         site.Name,
				Source:       src.Identifier,
				DatabaseName: schema,
			}
			plan.Sources = append(plan.Sources, source)

			target, ok := targets[site.Name]
			if !ok {
				plan.Pending = append(plan.Pending, site.Name)
				continue
			}

			te := TargetEndpoint{
				Name:    "target-" + site.Name,
				Site:    site.Name,
				Mapping: target,
			}
			plan.Targets = append(plan.Targets, te)

			if _, seen := used[target.SecurityGroupKey]; !seen {
				plan.IngressRules = append(plan.IngressRules, IngressRule{
					Name:             "dms-to-" + target.SecurityGroupKey,
					SecurityGroupKey: target.SecurityGroupKey,
					Site:             site.Name,
				})
				used[target.SecurityGroupKey] = struct{}{}
			}

			mappings, err := TableMappings(schema)
			if err != nil {
				return nil, fmt.Errorf("site %q: %w", site.Name, err)
			}
			plan.Tasks = append(plan.Tasks, ReplicationTask{
				Name:           "replicate-" + site.Name,
				Site:           site.Name,
				SourceEndpoint: source.Name,
				TargetEndpoint: te.Name,
				TableMappings:  mappings,
			})
		}
	}

	return plan, nil
}

// Server returns the legacy source with the given identifier.
func (p *ReplicationPlan) Server(identifier string) (LegacySource, bool) {
	for _, s := range p.Servers {
		if s.Identifier == identifier {
			return s, true
		}
	}
	return LegacySource{}, false
}

type objectLocator struct {
	SchemaName string `json:"schema-name"`
	TableName  string `json:"table-name,omitempty"`
}

type mappingRule struct {
	RuleType      string        `json:"rule-type"`
	RuleID        string        `json:"rule-id"`
	RuleName      string        `json:"rule-name"`
	RuleTarget    string        `json:"rule-target,omitempty"`
	ObjectLocator objectLocator `json:"object-locator"`
	RuleAction    string        `json:"rule-action"`
	Value         string        `json:"value,omitempty"`
}

// TableMappings returns the DMS table-mapping document for a source schema:
// strip the live suffix from the schema name, then include every table.
func TableMappings(schema string) (string, error) {
	if schema == "" {
		return "", fmt.Errorf("table mappings: empty schema")
	}

	doc := struct {
		Rules []mappingRule `json:"rules"`
	}{
		Rules: []mappingRule{
			{
				RuleType:      "transformation",
				RuleID:        "1",
				RuleName:      "strip-live-suffix",
				RuleTarget:    "schema",
				ObjectLocator: objectLocator{SchemaName: schema},
				RuleAction:    "remove-suffix",
				Value:         LiveSchemaSuffix,
			},
			{
				RuleType:      "selection",
				RuleID:        "2",
				RuleName:      "include-all-tables",
				ObjectLocator: objectLocator{SchemaName: schema, TableName: "%"},
				RuleAction:    "include",
			},
		},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal table mappings: %w", err)
	}
	return string(data), nil
}

// TargetSchema is the schema name on the target once the live suffix is removed.
func TargetSchema(schema string) string {
	return strings.TrimSuffix(schema, LiveSchemaSuffix)
}
