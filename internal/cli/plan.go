package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sitefleet/platform/internal/domain"
	"github.com/sitefleet/platform/internal/sources/platform"
)

type planOptions struct {
	*globalOptions
	json bool
}

func (o *planOptions) build() (*domain.Plan, error) {
	return platform.BuildPlan(platform.NewLoader(o.planning.PlatformFile), o.platformOptions())
}

// planCommand wraps a printer into a subcommand that builds the plan first.
func (o *planOptions) planCommand(use, short string, print func(cmd *cobra.Command, plan *domain.Plan) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := o.build()
			if err != nil {
				return err
			}
			return print(cmd, plan)
		},
	}
}

func newPlanCommand(global *globalOptions) *cobra.Command {
	o := &planOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build the plan and print one of its parts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := o.build()
			if err != nil {
				return err
			}
			if o.json {
				return writeJSON(cmd.OutOrStdout(), plan)
			}
			return printSummary(cmd, plan)
		},
	}
	cmd.PersistentFlags().BoolVar(&o.json, "json", false, "print JSON instead of a table")

	cmd.AddCommand(
		o.planCommand("domains", "List the hostnames and their hosted zones", o.printDomains),
		o.planCommand("certificates", "List the certificate groups", o.printCertificates),
		o.planCommand("sites", "List the site to database assignment", o.printSites),
		o.planCommand("replication", "List the legacy replication tasks (prod only)", o.printReplication),
	)
	return cmd
}

func printSummary(cmd *cobra.Command, plan *domain.Plan) error {
	rows := [][]string{
		{"environment", plan.Environment},
		{"domains", strconv.Itoa(len(plan.Domains))},
		{"certificates", strconv.Itoa(len(plan.Certificates.Groups))},
		{"backends", strconv.Itoa(len(plan.Assignment.Backends))},
		{"sites", strconv.Itoa(len(plan.Assignment.Sites))},
		{"replication", strconv.FormatBool(plan.Replication != nil)},
	}
	renderTable(cmd.OutOrStdout(), []string{"Item", "Value"}, rows)
	return nil
}

func (o *planOptions) printDomains(cmd *cobra.Command, plan *domain.Plan) error {
	if o.json {
		return writeJSON(cmd.OutOrStdout(), plan.DNS)
	}
	rows := make([][]string, 0, len(plan.DNS))
	for _, rec := range plan.DNS {
		rows = append(rows, []string{rec.Hostname, rec.ZoneID})
	}
	renderTable(cmd.OutOrStdout(), []string{"Hostname", "Zone"}, rows)
	return nil
}

func (o *planOptions) printCertificates(cmd *cobra.Command, plan *domain.Plan) error {
	if o.json {
		return writeJSON(cmd.OutOrStdout(), plan.Certificates.Groups)
	}
	rows := make([][]string, 0, len(plan.Certificates.Groups))
	for _, g := range plan.Certificates.Groups {
		rows = append(rows, []string{
			strconv.Itoa(g.Index),
			g.Subject,
			strconv.Itoa(len(g.AlternativeNames) + 1),
			strings.Join(g.AlternativeNames, "\n"),
		})
	}
	renderTable(cmd.OutOrStdout(), []string{"Group", "Subject", "Names", "Alternative names"}, rows)
	return nil
}

func (o *planOptions) printSites(cmd *cobra.Command, plan *domain.Plan) error {
	names := make([]string, 0, len(plan.Assignment.Sites))
	for name := range plan.Assignment.Sites {
		names = append(names, name)
	}
	sort.Strings(names)

	if o.json {
		bindings := make([]domain.SiteBinding, 0, len(names))
		for _, name := range names {
			bindings = append(bindings, plan.Assignment.Sites[name])
		}
		return writeJSON(cmd.OutOrStdout(), bindings)
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		b := plan.Assignment.Sites[name]
		rows = append(rows, []string{name, b.BackendIdentifier, b.SecretName, strconv.Itoa(b.Site.TargetGroup)})
	}
	renderTable(cmd.OutOrStdout(), []string{"Site", "Backend", "Secret", "Bundle"}, rows)
	return nil
}

func (o *planOptions) printReplication(cmd *cobra.Command, plan *domain.Plan) error {
	if plan.Replication == nil {
		return fmt.Errorf("replication is not planned for environment %q (needs %s and --legacy-replication)",
			plan.Environment, domain.ProductionEnvironment)
	}
	repl := plan.Replication
	if o.json {
		return writeJSON(cmd.OutOrStdout(), repl)
	}

	sourceOf := make(map[string]domain.SourceEndpoint, len(repl.Sources))
	for _, s := range repl.Sources {
		sourceOf[s.Site] = s
	}
	rows := make([][]string, 0, len(repl.Targets)+len(repl.Pending))
	for _, t := range repl.Targets {
		src := sourceOf[t.Site]
		rows = append(rows, []string{
			t.Site,
			src.Source + "/" + src.DatabaseName,
			t.Mapping.BackendIdentifier + "/" + domain.TargetSchema(src.DatabaseName),
			"replicate-" + t.Site,
		})
	}
	for _, site := range repl.Pending {
		src := sourceOf[site]
		rows = append(rows, []string{site, src.Source + "/" + src.DatabaseName, "-", "pending"})
	}
	renderTable(cmd.OutOrStdout(), []string{"Site", "Source", "Target", "Task"}, rows)

	fmt.Fprintf(cmd.OutOrStdout(), "%d tasks, %d ingress rules, %d pending\n",
		len(repl.Tasks), len(repl.IngressRules), len(repl.Pending))
	return nil
}
