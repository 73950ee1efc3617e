package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/folio/internal/store"
	"github.com/roach88/folio/internal/vfs"
)

// PutOptions holds flags for the put command.
type PutOptions struct {
	*RootOptions
	DB string
}

// PutResult is the JSON payload of the put command.
type PutResult struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
	Seq   int64  `json:"seq"`
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "put --db <file.db> <vpath> <file>",
		Short: "Store a file in the content store",
		Long: `Store the contents of <file> (- for stdin) at <vpath> in the SQLite
content store. Renders using --db read stored files before falling back
to the site directory.

Examples:
  folio put --db folio.db footer.txt footer-prod.txt
  echo "draft" | folio put --db folio.db banner.txt -`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite content store (required)")

	return cmd
}

func runPut(cmd *cobra.Command, opts *PutOptions, vpath, file string) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.DB == "" {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--db is required", nil)
	}

	data, err := readFileOrStdin(file, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, err.Error(), nil)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	path := vfs.NewPath(vpath)
	seq, err := st.PutFile(cmd.Context(), path, data)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(PutResult{Path: path.String(), Bytes: len(data), Seq: seq})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d bytes, seq %d)\n", path, len(data), seq)
	return nil
}
