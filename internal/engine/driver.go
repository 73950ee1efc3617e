package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/folio/internal/compiler"
	"github.com/roach88/folio/internal/ir"
	"github.com/roach88/folio/internal/vfs"
)

// Phase is a state of the build state machine.
type Phase int

const (
	PhaseResolving Phase = iota
	PhaseLayingOut
	PhaseChecking
	PhaseRetrying
	PhaseStable
	PhaseExhausted
	PhaseFailed
)

// String returns the phase name used in logs and metrics.
func (p Phase) String() string {
	switch p {
	case PhaseResolving:
		return "resolving"
	case PhaseLayingOut:
		return "laying_out"
	case PhaseChecking:
		return "checking"
	case PhaseRetrying:
		return "retrying"
	case PhaseStable:
		return "stable"
	case PhaseExhausted:
		return "exhausted"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Layouter runs one layout pass against an introspection snapshot.
// compiler.Typesetter is the production implementation.
type Layouter interface {
	Layout(ctx context.Context, content *compiler.Content, state *compiler.Introspection) (*compiler.Pass, error)
}

// Result is the outcome of a successful build.
type Result struct {
	Token         string
	Seq           int64
	Content       *compiler.Content
	Document      *ir.Document
	Introspection *compiler.Introspection
	Passes        int
	Phase         Phase
	Warnings      compiler.Diagnostics
	Duration      time.Duration
}

// Stable reports whether layout converged.
func (r *Result) Stable() bool {
	return r.Phase == PhaseStable
}

// Driver runs builds: resolve once, then lay out until the introspected
// state stops changing or the pass budget is spent.
//
// A Driver holds no per-document state and is safe for concurrent use.
// Serializing builds of one document is the caller's job.
type Driver struct {
	maxPasses int
	layouter  Layouter
	logger    *slog.Logger
	metrics   *Metrics
	tokens    TokenGenerator
	clock     *Clock
}

// Option configures a Driver.
type Option func(*Driver)

// WithMaxPasses sets the layout pass budget.
//
// Default: 5 (DefaultMaxPasses). Values below 1 are treated as 1.
func WithMaxPasses(n int) Option {
	return func(d *Driver) {
		d.maxPasses = n
	}
}

// WithLayouter replaces the default typesetter.
func WithLayouter(l Layouter) Option {
	return func(d *Driver) {
		d.layouter = l
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithMetrics enables prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// WithTokenGenerator sets the build token source. Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(d *Driver) {
		d.tokens = g
	}
}

// WithClock sets the logical clock used for build sequence numbers.
func WithClock(c *Clock) Option {
	return func(d *Driver) {
		d.clock = c
	}
}

// New creates a Driver.
func New(opts ...Option) *Driver {
	d := &Driver{
		maxPasses: DefaultMaxPasses,
		layouter:  compiler.NewTypesetter(compiler.LayoutOptions{}),
		tokens:    UUIDv7Generator{},
		clock:     NewClock(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// MaxPasses returns the configured pass budget.
func (d *Driver) MaxPasses() int {
	return NewPassBudget(d.maxPasses).Max()
}

// Compile builds the document w describes.
//
// Resolution and layout errors end the build immediately with a
// *BuildError. Running out of passes is not an error: the last candidate
// is returned with Phase PhaseExhausted and a warning.
func (d *Driver) Compile(ctx context.Context, w compiler.World) (*Result, error) {
	start := time.Now()
	res := &Result{
		Token: d.tokens.Generate(),
		Seq:   d.clock.Next(),
		Phase: PhaseResolving,
	}
	log := d.logger.With("build", res.Token, "main", w.Main().String())
	log.Debug("build starting", "seq", res.Seq)

	fail := func(err *BuildError) (*Result, error) {
		elapsed := time.Since(start)
		d.metrics.observe(PhaseFailed, res.Passes, elapsed)
		log.Debug("build failed",
			"phase", res.Phase.String(),
			"passes", res.Passes,
			"error", err,
		)
		return nil, err
	}

	content, err := compiler.Evaluate(ctx, w)
	if err != nil {
		return fail(newResolveError(res.Token, err))
	}
	res.Content = content

	budget := NewPassBudget(d.maxPasses)
	var state *compiler.Introspection
	var last *compiler.Pass
	for budget.Take() {
		res.Phase = PhaseLayingOut
		pass, err := d.layouter.Layout(ctx, content, state)
		if err == nil && pass == nil {
			err = ErrNoPass
		}
		if err != nil {
			return fail(newLayoutError(res.Token, res.Passes, err))
		}
		res.Passes = budget.Used()
		last = pass

		res.Phase = PhaseChecking
		if pass.Introspection.Validate(pass.Constraint) {
			res.Phase = PhaseStable
			break
		}
		res.Phase = PhaseRetrying
		log.Debug("introspection changed, retrying layout",
			"pass", res.Passes,
			"queries", pass.Constraint.Len(),
		)
		state = pass.Introspection
	}

	if res.Phase != PhaseStable {
		res.Phase = PhaseExhausted
		res.Warnings = append(res.Warnings, exhaustedWarning(w.Main().Path, budget.Max()))
		log.Warn("layout did not converge",
			"passes", res.Passes,
			"max_passes", budget.Max(),
		)
	}

	res.Document = last.Document
	res.Introspection = last.Introspection
	res.Duration = time.Since(start)
	d.metrics.observe(res.Phase, res.Passes, res.Duration)

	log.Debug("build finished",
		"phase", res.Phase.String(),
		"passes", res.Passes,
		"pages", res.Document.PageCount(),
		"duration", res.Duration,
	)
	return res, nil
}

func exhaustedWarning(path vfs.VirtualPath, limit int) compiler.Diagnostic {
	return compiler.Warningf(compiler.Span{Path: path}, "layout did not converge within %d attempts", limit).
		WithHint("check if any queries are causing infinite loops")
}
