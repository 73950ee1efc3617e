package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/roach88/folio/internal/compiler"
	"github.com/roach88/folio/internal/engine"
	"github.com/roach88/folio/internal/pages"
	"github.com/roach88/folio/internal/site"
	"github.com/roach88/folio/internal/world"
)

// FallbackPageName labels the fallback template in check output.
const FallbackPageName = "(fallback)"

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
}

// PageCheck is the outcome of compiling one page.
type PageCheck struct {
	Name        string               `json:"name"`
	OK          bool                 `json:"ok"`
	Passes      int                  `json:"passes,omitempty"`
	Stable      bool                 `json:"stable"`
	Diagnostics compiler.Diagnostics `json:"diagnostics,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Pages  []PageCheck `json:"pages"`
	Passed int         `json:"passed"`
	Failed int         `json:"failed"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <site-dir>",
		Short: "Compile every page of a site and report diagnostics",
		Long: `Load <site-dir>/site.cue and compile every page, plus the fallback
template if one is defined. Nothing is exported or written.

Exit code 1 if any page fails to compile. Warnings, such as layout that
did not settle within the pass budget, do not fail the check.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args[0])
		},
	}

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions, siteDir string) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	s, err := site.Load(siteDir)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSiteLoad, err.Error(), nil)
	}

	type target struct {
		name string
		page site.Page
		data []byte
	}
	var targets []target
	for _, name := range s.PageNames() {
		targets = append(targets, target{name: name, page: s.Pages[name]})
	}
	if s.Fallback != nil {
		// Checked the way it is served: with the data of a 500.
		targets = append(targets, target{
			name: FallbackPageName,
			page: *s.Fallback,
			data: pages.FallbackData(http.StatusInternalServerError),
		})
	}

	result := CheckResult{Pages: make([]PageCheck, 0, len(targets))}
	for _, t := range targets {
		pc := PageCheck{Name: t.name}

		w, err := s.World(t.page,
			world.WithLogger(logger),
			world.WithDriver(s.Driver(engine.WithLogger(logger))),
		)
		if err == nil && t.data != nil {
			w.Write(w.DataPath().String(), t.data)
		}
		if err == nil {
			var res *engine.Result
			res, err = w.Compile(ctx)
			if err == nil {
				pc.OK = true
				pc.Passes = res.Passes
				pc.Stable = res.Stable()
				pc.Diagnostics = res.Warnings
			}
		}
		if err != nil {
			pc.Diagnostics = engine.DiagnosticsOf(err)
			if pc.Diagnostics == nil {
				pc.Error = err.Error()
			}
		}

		if pc.OK {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Pages = append(result.Pages, pc)
		logger.Debug("page checked", "page", t.name, "ok", pc.OK, "passes", pc.Passes)
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputCheckText(cmd, result)
	}

	if result.Failed > 0 {
		return reported(NewExitError(ExitFailure,
			fmt.Sprintf("%d of %d pages failed", result.Failed, len(result.Pages))))
	}
	return nil
}

func outputCheckText(cmd *cobra.Command, result CheckResult) {
	out := cmd.OutOrStdout()
	for _, pc := range result.Pages {
		if pc.OK {
			fmt.Fprintf(out, "%s %s (%d %s)\n", okMark(), pc.Name, pc.Passes, plural(pc.Passes, "pass", "passes"))
		} else {
			fmt.Fprintf(out, "%s %s\n", failMark(), pc.Name)
		}
		printDiagnostics(out, "    ", pc.Diagnostics)
		if pc.Error != "" {
			fmt.Fprintf(out, "    %s\n", pc.Error)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Checked %d %s: %d ok, %d failed\n",
		len(result.Pages), plural(len(result.Pages), "page", "pages"), result.Passed, result.Failed)
}
