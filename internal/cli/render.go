package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/folio/internal/compiler"
	"github.com/roach88/folio/internal/engine"
	"github.com/roach88/folio/internal/export"
	"github.com/roach88/folio/internal/memo"
	"github.com/roach88/folio/internal/site"
	"github.com/roach88/folio/internal/store"
	"github.com/roach88/folio/internal/vfs"
	"github.com/roach88/folio/internal/world"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Data     string
	Set      []string
	Exporter string
	Output   string
	DB       string
	Repeat   int
	Metrics  bool
}

// RenderSummary is the JSON payload of a successful render.
type RenderSummary struct {
	Page     string               `json:"page"`
	Token    string               `json:"token"`
	Seq      int64                `json:"seq"`
	Passes   int                  `json:"passes"`
	Stable   bool                 `json:"stable"`
	Bytes    int                  `json:"bytes"`
	Output   string               `json:"output,omitempty"`
	Artifact string               `json:"artifact,omitempty"`
	Warnings compiler.Diagnostics `json:"warnings,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <site-dir> <page>",
		Short: "Render one page of a site",
		Long: `Render a page defined in <site-dir>/site.cue and write the artifact to
stdout, or to the file given with -o.

Examples:
  folio render ./site home
  folio render ./site report --data report.csv -o report.txt
  folio render ./site home --set footer.txt=footer-dev.txt --repeat 3 --metrics
  folio render ./site home --db folio.db`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "file written to the page's data input (- for stdin)")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "override an input: vpath=file (repeatable)")
	cmd.Flags().StringVar(&opts.Exporter, "exporter", "text", "artifact format (text|json)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the artifact to this file instead of stdout")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite content store consulted before the site directory")
	cmd.Flags().IntVar(&opts.Repeat, "repeat", 1, "render this many times in one process")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "dump prometheus metrics to stderr when done")

	return cmd
}

func runRender(cmd *cobra.Command, opts *RenderOptions, siteDir, page string) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Repeat < 1 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("--repeat must be at least 1, got %d", opts.Repeat), nil)
	}
	exp, err := export.ByName(opts.Exporter)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	s, err := site.Load(siteDir)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSiteLoad, err.Error(), nil)
	}
	p, ok := s.Pages[page]
	if !ok {
		return formatter.Fail(ExitCommandError, ErrCodeUnknownPage,
			fmt.Sprintf("page %q is not defined", page),
			map[string]any{"available": s.PageNames()})
	}

	reg := prometheus.NewRegistry()
	clock := engine.NewClock()
	worldOpts := []world.Option{
		world.WithExporter(exp),
		world.WithLogger(logger),
		world.WithMetrics(world.NewMetrics().MustRegister(reg)),
	}

	var st *store.Store
	if opts.DB != "" {
		st, err = store.Open(opts.DB)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		defer st.Close()

		seq, err := st.LastSeq(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		clock = engine.NewClockAt(seq)
		worldOpts = append(worldOpts, world.WithProvider(vfs.Chain{st, vfs.NewDir(s.Dir)}))
		formatter.VerboseLog("Using content store %s (last seq %d)", opts.DB, seq)
	}

	driver := s.Driver(
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics().MustRegister(reg)),
		engine.WithClock(clock),
	)
	worldOpts = append(worldOpts, world.WithDriver(driver))

	w, err := s.World(p, worldOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, err.Error(), nil)
	}
	inputs, err := readInputs(opts, w.DataPath(), cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, err.Error(), nil)
	}

	var out []byte
	for i := range opts.Repeat {
		out, err = w.RenderInputs(ctx, inputs...)
		if st != nil {
			if recErr := recordRender(ctx, st, w, page, clock.Current(), out, err); recErr != nil {
				return formatter.Fail(ExitFailure, ErrCodeStore, recErr.Error(), nil)
			}
		}
		if err != nil {
			break
		}
		formatter.VerboseLog("Render %d/%d: %d bytes", i+1, opts.Repeat, len(out))
	}
	if opts.Metrics {
		defer dumpMetrics(cmd.ErrOrStderr(), reg, logger)
	}

	if err != nil {
		ds := engine.DiagnosticsOf(err)
		if !formatter.JSON() {
			printDiagnostics(cmd.ErrOrStderr(), "", ds)
		}
		_ = formatter.Error(ErrCodeBuildFailed, err.Error(), ds)
		return reported(WrapExitError(ExitFailure, "render failed", err))
	}

	res := w.LastBuild()
	if !formatter.JSON() {
		printDiagnostics(cmd.ErrOrStderr(), "", res.Warnings)
	}

	summary := RenderSummary{
		Page:     page,
		Token:    res.Token,
		Seq:      res.Seq,
		Passes:   res.Passes,
		Stable:   res.Stable(),
		Bytes:    len(out),
		Output:   opts.Output,
		Warnings: res.Warnings,
	}
	if opts.Output != "" {
		if err := atomic.WriteFile(opts.Output, bytes.NewReader(out)); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeWriteFailed, err.Error(), nil)
		}
	}

	if formatter.JSON() {
		if opts.Output == "" {
			summary.Artifact = string(out)
		}
		return formatter.Success(summary)
	}
	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(out)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s (%d %s, build=%s)\n",
		len(out), opts.Output, res.Passes, plural(res.Passes, "pass", "passes"), res.Token)
	return nil
}

// readInputs turns --data and --set into World inputs. Files are read
// once, before the first render.
func readInputs(opts *RenderOptions, dataPath vfs.VirtualPath, stdin io.Reader) ([]world.Input, error) {
	var inputs []world.Input
	if opts.Data != "" {
		data, err := readFileOrStdin(opts.Data, stdin)
		if err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
		inputs = append(inputs, world.Input{Path: dataPath.String(), Data: data})
	}

	for _, kv := range opts.Set {
		vpath, file, ok := strings.Cut(kv, "=")
		if !ok || vpath == "" || file == "" {
			return nil, fmt.Errorf("invalid --set %q: want vpath=file", kv)
		}
		data, err := readFileOrStdin(file, stdin)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", vpath, err)
		}
		inputs = append(inputs, world.Input{
			Path:   vpath,
			Data:   data,
			Source: vfs.NewPath(vpath).Ext() == world.SourceExt,
		})
	}
	return inputs, nil
}

func readFileOrStdin(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

// recordRender appends one render to the log. seq is the logical time of
// the build that just ran.
func recordRender(ctx context.Context, st *store.Store, w *world.World, page string, seq int64, out []byte, renderErr error) error {
	r := store.Render{
		Page:        page,
		Seq:         seq,
		Size:        len(out),
		Fingerprint: memo.Of(out, renderErr).String(),
	}

	var buildErr *engine.BuildError
	switch {
	case errors.As(renderErr, &buildErr):
		r.Token = buildErr.Token
		r.Passes = buildErr.Passes
		r.Error = renderErr.Error()
	default:
		// Success, or an export failure after a successful build.
		if res := w.LastBuild(); res != nil && res.Seq == seq {
			r.Token = res.Token
			r.Passes = res.Passes
			r.Stable = res.Stable()
		}
		if renderErr != nil {
			r.Error = renderErr.Error()
		}
	}
	if r.Token == "" {
		r.Token = fmt.Sprintf("seq-%d", seq)
	}
	return st.RecordRender(ctx, r)
}

// dumpMetrics writes every gathered metric family in the prometheus text
// format.
func dumpMetrics(w io.Writer, reg *prometheus.Registry, logger *slog.Logger) {
	families, err := reg.Gather()
	if err != nil {
		logger.Error("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			logger.Error("write metrics", "error", err)
			return
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
