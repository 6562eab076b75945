package provision

import (
	"fmt"
	"sort"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/sitefleet/platform/internal/domain"
	"github.com/sitefleet/platform/internal/logger"
	"github.com/sitefleet/platform/internal/sources/platform"
	"github.com/sitefleet/platform/internal/version"
)

// Program returns the Pulumi program: load the stack config, build the plan
// and declare it.
func Program(base logger.Logger) pulumi.RunFunc {
	return func(ctx *pulumi.Context) error {
		log := base.With(
			logger.String("project", ctx.Project()),
			logger.String("stack", ctx.Stack()),
		)

		cfg, err := LoadStackConfig(ctx)
		if err != nil {
			return err
		}

		loader := platform.NewLoader(cfg.PlatformFile)
		plan, err := platform.BuildPlan(loader, cfg.Planning)
		if err != nil {
			return err
		}
		log.Info("plan built",
			logger.String("source", loader.Source()),
			logger.String("environment", plan.Environment),
			logger.Int("domains", len(plan.Domains)),
			logger.Int("backends", len(plan.Assignment.Backends)),
			logger.Bool("replication", plan.Replication != nil),
		)

		return Deploy(ctx, plan, cfg, log)
	}
}

// Deploy declares every resource of the plan and exports the stack outputs.
func Deploy(ctx *pulumi.Context, plan *domain.Plan, cfg StackConfig, log logger.Logger) error {
	outputs, err := Declare(ctx, plan, cfg, log)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctx.Export(k, outputs[k])
	}
	return nil
}

// Declare registers the resources in plan order (certificates, DNS,
// databases, then replication) and returns the stack outputs by name:
// domains, certificateArns, sites, and for replicated stacks
// replicationMapping and pendingSites.
func Declare(ctx *pulumi.Context, plan *domain.Plan, cfg StackConfig, log logger.Logger) (pulumi.Map, error) {
	tags := pulumi.StringMap{
		"Environment": pulumi.String(plan.Environment),
		"ManagedBy":   pulumi.String(version.Name),
	}

	certs, err := Certificates(ctx, plan.Certificates, tags)
	if err != nil {
		return nil, err
	}
	log.Debug("certificates declared", logger.Int("count", len(certs)))

	if _, err := DNS(ctx, plan.DNS, cfg); err != nil {
		return nil, err
	}
	log.Debug("dns records declared", logger.Int("count", len(plan.DNS)))

	dbs, err := Databases(ctx, plan.Assignment, cfg, tags)
	if err != nil {
		return nil, err
	}
	log.Debug("databases declared", logger.Int("count", len(dbs)))

	outputs := pulumi.Map{
		"domains":         pulumi.ToStringArray(plan.Certificates.Hostnames),
		"certificateArns": certificateArns(certs),
		"sites":           siteExports(plan.Assignment, dbs),
	}

	if plan.Replication == nil {
		return outputs, nil
	}
	if cfg.LegacyPassword == nil {
		return nil, fmt.Errorf("replication planned but no legacy password reader configured")
	}

	repl, err := DeclareReplication(ctx, plan.Replication, dbs, cfg, tags)
	if err != nil {
		return nil, err
	}
	if len(plan.Replication.Pending) > 0 {
		log.Warn("legacy sites without a target",
			logger.Strings("sites", plan.Replication.Pending))
	}
	log.Info("replication declared",
		logger.Int("tasks", len(repl.Tasks)),
		logger.Int("ingress_rules", len(repl.Rules)),
	)

	outputs["replicationMapping"] = replicationExports(plan.Replication, repl, dbs)
	outputs["pendingSites"] = pulumi.ToStringArray(plan.Replication.Pending)
	return outputs, nil
}
