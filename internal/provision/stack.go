package provision

import (
	"errors"
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/sitefleet/platform/internal/domain"
	"github.com/sitefleet/platform/internal/sources/platform"
)

// ConfigNamespace is the Pulumi config namespace of every stack key.
const ConfigNamespace = "sitefleet"

const (
	defaultDBInstanceClass  = "db.t3.medium"
	defaultDMSInstanceClass = "dms.t3.medium"
)

// SecretReader resolves a secret config key. Missing keys are errors.
type SecretReader func(key string) (pulumi.StringOutput, error)

// StackConfig is everything the declarations need besides the plan.
type StackConfig struct {
	VpcID                  string
	DBSubnetGroup          string
	ReplicationSubnetGroup string
	IngressHostname        string // load balancer DNS name the alias records point at
	IngressZoneID          string // hosted zone of the load balancer
	DBInstanceClass        string
	DMSInstanceClass       string

	Planning     platform.Options
	PlatformFile string

	// LegacyPassword is only called when replication is planned.
	LegacyPassword SecretReader
}

// Validate reports the first missing required value.
func (c StackConfig) Validate() error {
	required := []struct {
		key, value string
	}{
		{"vpcId", c.VpcID},
		{"dbSubnetGroup", c.DBSubnetGroup},
		{"ingressHostname", c.IngressHostname},
		{"ingressZoneId", c.IngressZoneID},
		{"environment", c.Planning.Environment},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required config %s:%s", ConfigNamespace, r.key)
		}
	}
	if domain.ReplicationEnabled(c.Planning.Environment, c.Planning.LegacyReplication) && c.ReplicationSubnetGroup == "" {
		return fmt.Errorf("missing required config %s:replicationSubnetGroup (replication is planned for %s)",
			ConfigNamespace, c.Planning.Environment)
	}
	return nil
}

// LoadStackConfig reads the stack configuration. The environment defaults to
// the stack name.
func LoadStackConfig(ctx *pulumi.Context) (StackConfig, error) {
	cfg := config.New(ctx, ConfigNamespace)

	var errs []error
	require := func(key string) string {
		v, err := cfg.Try(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("missing required config %s:%s", ConfigNamespace, key))
		}
		return v
	}
	orDefault := func(key, def string) string {
		if v := cfg.Get(key); v != "" {
			return v
		}
		return def
	}

	sc := StackConfig{
		VpcID:                  require("vpcId"),
		DBSubnetGroup:          require("dbSubnetGroup"),
		ReplicationSubnetGroup: cfg.Get("replicationSubnetGroup"),
		IngressHostname:        require("ingressHostname"),
		IngressZoneID:          require("ingressZoneId"),
		DBInstanceClass:        orDefault("dbInstanceClass", defaultDBInstanceClass),
		DMSInstanceClass:       orDefault("dmsInstanceClass", defaultDMSInstanceClass),
		PlatformFile:           cfg.Get("platformFile"),
		Planning: platform.Options{
			Environment:       orDefault("environment", ctx.Stack()),
			Subdomain:         cfg.Get("subdomain"),
			Dedicated:         cfg.GetBool("dedicatedDatabases"),
			LegacyReplication: cfg.GetBool("legacyReplication"),
		},
		LegacyPassword: func(key string) (pulumi.StringOutput, error) {
			v, err := cfg.TrySecret(key)
			if err != nil {
				return pulumi.StringOutput{}, fmt.Errorf("missing secret config %s:%s", ConfigNamespace, key)
			}
			return v, nil
		},
	}
	if err := errors.Join(errs...); err != nil {
		return StackConfig{}, err
	}
	if err := sc.Validate(); err != nil {
		return StackConfig{}, err
	}
	return sc, nil
}
