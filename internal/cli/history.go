package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/folio/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history --db <file.db> [page]",
		Short: "List the render log",
		Long: `List renders recorded by "folio render --db", oldest first. With a page
argument only that page's renders are listed.`,
		Args: rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := ""
			if len(args) == 1 {
				page = args[0]
			}
			return runHistory(cmd, opts, page)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite content store (required)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, page string) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.DB == "" {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--db is required", nil)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	renders, err := st.ListRenders(cmd.Context(), page)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(renders)
	}
	if len(renders) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No renders recorded")
		return nil
	}
	return writeHistoryTable(cmd, renders)
}

func writeHistoryTable(cmd *cobra.Command, renders []store.Render) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tPAGE\tTOKEN\tPASSES\tSTABLE\tBYTES\tFINGERPRINT\tERROR")
	for _, r := range renders {
		status := "-"
		if r.Error != "" {
			status = failMark() + " " + truncate(r.Error, 48)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%t\t%d\t%s\t%s\n",
			r.Seq, r.Page, r.Token, r.Passes, r.Stable, r.Size, truncate(r.Fingerprint, 12), status)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
