package cli

import (
	"github.com/spf13/cobra"

	"github.com/sitefleet/platform/internal/config"
	"github.com/sitefleet/platform/internal/sources/platform"
	"github.com/sitefleet/platform/internal/version"
)

// globalOptions are the planning flags shared by every subcommand.
// Defaults come from the SITEFLEET_* environment.
type globalOptions struct {
	planning config.Planning
}

func (o *globalOptions) platformOptions() platform.Options {
	return platform.Options{
		Environment:       o.planning.Environment,
		Subdomain:         o.planning.Subdomain,
		Dedicated:         o.planning.DedicatedDatabases,
		LegacyReplication: o.planning.LegacyReplication,
	}
}

// NewRootCommand builds the sitefleet command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{planning: config.LoadPlanning()}

	cmd := &cobra.Command{
		Use:   "sitefleet",
		Short: "Plan and serve the infrastructure of the dating site fleet",
		Long: `sitefleet turns the platform table (domains, site bundles, legacy servers)
into a deployment plan: certificate batches, DNS records, database
assignments and legacy replication tasks.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(version.String() + "\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.planning.PlatformFile, "platform-file", opts.planning.PlatformFile, "platform YAML file (default: embedded table)")
	pf.StringVar(&opts.planning.Environment, "env", opts.planning.Environment, "deployment environment (prod, staging, dev...)")
	pf.StringVar(&opts.planning.Subdomain, "subdomain", opts.planning.Subdomain, "prefix added to every hostname")
	pf.BoolVar(&opts.planning.DedicatedDatabases, "dedicated", opts.planning.DedicatedDatabases, "one database per site instead of one per bundle")
	pf.BoolVar(&opts.planning.LegacyReplication, "legacy-replication", opts.planning.LegacyReplication, "plan replication from the legacy servers (prod only)")
	pf.StringVar(&opts.planning.LogLevel, "log-level", opts.planning.LogLevel, "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newPlanCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}
