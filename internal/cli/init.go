package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or look up the group, stream, filter and taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := opts.newApplication(cmd, opts.loadConfig())
			if err != nil {
				return err
			}
			defer application.Close()

			pc, err := application.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "group:    %d\n", pc.GroupID)
			fmt.Fprintf(out, "stream:   %d\n", pc.StreamID)
			fmt.Fprintf(out, "filter:   %d\n", pc.FilterID)
			if pc.HasTaxonomy() {
				fmt.Fprintf(out, "taxonomy: %d\n", pc.TaxonomyID)
			} else {
				fmt.Fprintln(out, "taxonomy: none (classifications disabled)")
			}
			return nil
		},
	}
}
