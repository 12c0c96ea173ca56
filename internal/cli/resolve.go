package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func resolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <label>",
		Short: "Match a classification label against the platform taxonomy",
		Example: `  $ finkbridge resolve "(SIMBAD) RRLyr"
  $ finkbridge resolve "SN candidate"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.newApplication(cmd, opts.loadConfig())
			if err != nil {
				return err
			}
			defer application.Close()

			label := strings.Join(args, " ")
			result, err := application.Resolve(cmd.Context(), label)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}
}
