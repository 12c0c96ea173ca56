// Package cli is the finkbridge command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"FinkBridge/internal/app"
	"FinkBridge/internal/config"
	"FinkBridge/internal/logging"
)

var version = "dev"

type rootOptions struct {
	configPath string
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the finkbridge command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "finkbridge",
		Short: "Forward Fink alerts to a SkyPortal instance",
		Long: `finkbridge consumes classified transient alerts and upserts them into SkyPortal
as sources, candidates, photometry and classifications.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config (defaults to $FINKBRIDGE_CONFIG)")

	rootCmd.AddCommand(runCmd(opts))
	rootCmd.AddCommand(initCmd(opts))
	rootCmd.AddCommand(resolveCmd(opts))
	rootCmd.AddCommand(historyCmd(opts))

	return rootCmd
}

func (o *rootOptions) loadConfig() config.Config {
	return config.Load(o.configPath)
}

// newApplication logs to the command's stderr so that stdout stays machine readable.
func (o *rootOptions) newApplication(cmd *cobra.Command, cfg config.Config) (*app.Application, error) {
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	return app.New(cmd.Context(), cfg, logger, app.Options{Stdin: cmd.InOrStdin()})
}
