package cli

import (
	"github.com/spf13/cobra"

	"github.com/sitefleet/platform/internal/app"
	"github.com/sitefleet/platform/internal/config"
	"github.com/sitefleet/platform/internal/logger"
)

func newServeCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the plan server",
		Long: `Run the plan server: rebuild the plan on a schedule, keep a snapshot in
Redis and serve it over HTTP. Server settings are read from SITEFLEET_*
environment variables; the planning flags override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			cfg.Planning = global.planning

			log := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = log.Sync() }()

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
