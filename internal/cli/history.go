package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func historyCmd(opts *rootOptions) *cobra.Command {
	var limit uint64

	cmd := &cobra.Command{
		Use:   "history [object-id]",
		Short: "Show recorded submissions, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.newApplication(cmd, opts.loadConfig())
			if err != nil {
				return err
			}
			defer application.Close()

			var objectID string
			if len(args) > 0 {
				objectID = args[0]
			}

			entries, err := application.History(cmd.Context(), objectID, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No submissions recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SUBMITTED\tOBJECT\tSTATUS\tSTEPS")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					e.SubmittedAt.UTC().Format(time.RFC3339),
					e.ObjectID,
					e.Status,
					strings.Join(e.Steps, " "))
			}
			return w.Flush()
		},
	}

	cmd.Flags().Uint64Var(&limit, "limit", 20, "Maximum number of entries")
	return cmd
}
