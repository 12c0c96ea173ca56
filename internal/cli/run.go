package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func runCmd(opts *rootOptions) *cobra.Command {
	var (
		whitelisted  bool
		maxTimeout   int
		maxIdlePolls int
		streamPath   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bootstrap the platform and forward alerts until interrupted",
		Example: `  # Replay recorded alerts without rate limiting
  $ finkbridge run --whitelisted --stream alerts.jsonl

  # Read alerts from stdin and stop after ten idle polls
  $ finkbridge run --stream - --max-idle-polls 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.loadConfig()
			if whitelisted {
				cfg.SkyPortal.Whitelisted = true
			}
			if maxTimeout > 0 {
				cfg.Stream.MaxTimeout = time.Duration(maxTimeout) * time.Second
			}
			if cmd.Flags().Changed("max-idle-polls") {
				cfg.Stream.MaxIdlePolls = maxIdlePolls
			}
			if streamPath != "" {
				cfg.Stream.Path = streamPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			application, err := opts.newApplication(cmd, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&whitelisted, "whitelisted", false, "Skip the delay between submissions")
	cmd.Flags().IntVar(&maxTimeout, "max-timeout", 0, "Seconds to wait for an alert per poll")
	cmd.Flags().IntVar(&maxIdlePolls, "max-idle-polls", 0, "Stop after this many consecutive empty polls (0 never stops)")
	cmd.Flags().StringVar(&streamPath, "stream", "", `Replay file to read alerts from ("-" for stdin)`)

	return cmd
}
