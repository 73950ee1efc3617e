package harness

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/folio/internal/compiler"
	"github.com/roach88/folio/internal/engine"
	"github.com/roach88/folio/internal/export"
	"github.com/roach88/folio/internal/testutil"
	"github.com/roach88/folio/internal/world"
)

// DefaultMain is the entry source used when a scenario names none.
const DefaultMain = "main" + world.SourceExt

// Harness runs the steps of one scenario against one World.
type Harness struct {
	world    *world.World
	provider *testutil.CountingProvider
	logger   *slog.Logger

	prev     []byte
	rendered bool
}

// Run executes a scenario and returns the result.
//
// Each scenario gets a fresh World. The document date and build tokens are
// fixed so that artifacts can be compared byte for byte.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step := &scenario.Steps[i]
		sr := h.execute(ctx, i, step)
		for _, msg := range h.check(i, step.Expect, &sr) {
			result.AddError(msg)
		}
		result.Steps = append(result.Steps, sr)
		if sr.Action == ActionRender && sr.Err == "" {
			result.Artifact = sr.Output
		}
	}
	result.Stats = h.world.Stats()

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"steps", len(result.Steps),
		"pass", result.Pass,
	)
	return result, nil
}

func newHarness(s *Scenario) (*Harness, error) {
	exp, err := export.ByName(s.Exporter)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []engine.Option{
		engine.WithLayouter(compiler.NewTypesetter(compiler.LayoutOptions{
			Width:        s.Layout.Width,
			LinesPerPage: s.Layout.LinesPerPage,
		})),
		engine.WithTokenGenerator(engine.NewSequenceGenerator("build")),
		engine.WithLogger(logger),
	}
	if s.Layout.MaxPasses > 0 {
		opts = append(opts, engine.WithMaxPasses(s.Layout.MaxPasses))
	}
	driver := engine.New(opts...)

	main := s.Main
	if main == "" {
		main = DefaultMain
	}

	provider := testutil.NewCountingProvider(s.Provider)
	w := world.New(main,
		world.WithProvider(provider),
		world.WithDriver(driver),
		world.WithExporter(exp),
		world.WithClock(testutil.FixedNow),
		world.WithLogger(logger),
	)
	for _, p := range slices.Sorted(maps.Keys(s.Sources)) {
		w.WriteSource(p, s.Sources[p])
	}

	return &Harness{world: w, provider: provider, logger: logger}, nil
}

func (h *Harness) execute(ctx context.Context, index int, st *Step) StepResult {
	sr := StepResult{Index: index, Action: st.Action()}

	switch sr.Action {
	case ActionWrite:
		h.world.Write(st.Write.Path, []byte(st.Write.Data))
	case ActionWriteSource:
		h.world.WriteSource(st.WriteSource.Path, st.WriteSource.Data)
	case ActionRefresh:
		h.world.Refresh()
	case ActionRender:
		var out []byte
		var err error
		if st.Render.Data != nil {
			out, err = h.world.RenderWithData(ctx, []byte(*st.Render.Data))
		} else {
			out, err = h.world.Render(ctx)
		}
		if err != nil {
			sr.Err = err.Error()
			break
		}
		sr.Output = out
		if b := h.world.LastBuild(); b != nil {
			sr.Token = b.Token
			sr.Passes = b.Passes
			sr.Stable = b.Stable()
		}
		sr.SameAsPrevious = h.rendered && bytes.Equal(out, h.prev)
		h.prev, h.rendered = out, true
	}

	sr.Reads = h.provider.Counts()
	return sr
}
