package world

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/folio/internal/compiler"
	"github.com/roach88/folio/internal/engine"
	"github.com/roach88/folio/internal/export"
	"github.com/roach88/folio/internal/memo"
	"github.com/roach88/folio/internal/vfs"
)

// DefaultDataPath is the input RenderWithData writes.
const DefaultDataPath = "data.txt"

// SourceExt marks files that Make registers as sources.
const SourceExt = ".fol"

// Input is one write applied by RenderInputs.
type Input struct {
	Path   string
	Data   []byte
	Source bool // write with WriteSource instead of Write
}

// Stats reports cache activity.
type Stats struct {
	Sources       memo.Stats
	Files         memo.Stats
	ProviderReads int
	Builds        int
}

type fetched struct {
	data []byte
	err  error
}

// World is a document instance.
type World struct {
	mu sync.Mutex

	main     vfs.ID
	dataPath vfs.VirtualPath
	inputs   map[vfs.VirtualPath][]byte
	fetched  map[vfs.ID]fetched
	sources  *memo.Cache[vfs.ID, *compiler.Source]
	files    *memo.Cache[vfs.ID, []byte]

	provider vfs.Provider
	driver   *engine.Driver
	exporter export.Exporter
	created  time.Time
	logger   *slog.Logger
	metrics  *Metrics

	reads  int
	builds int
	last   *engine.Result
}

// Option configures a World.
type Option func(*World)

// WithProvider sets the provider consulted for inputs that were not
// written. Default: vfs.Empty, which reports NotFound for everything.
func WithProvider(p vfs.Provider) Option {
	return func(w *World) {
		w.provider = p
	}
}

// WithDriver sets the build driver. Default: engine.New().
func WithDriver(d *engine.Driver) Option {
	return func(w *World) {
		w.driver = d
	}
}

// WithExporter sets the artifact exporter. Default: export.Text.
func WithExporter(e export.Exporter) Option {
	return func(w *World) {
		w.exporter = e
	}
}

// WithClock sets the time source. It is read once, when the World is
// created; that instant is the document date for the World's lifetime.
func WithClock(now func() time.Time) Option {
	return func(w *World) {
		w.created = now()
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		w.logger = l
	}
}

// WithDataPath changes the input RenderWithData writes.
func WithDataPath(p string) Option {
	return func(w *World) {
		w.dataPath = vfs.NewPath(p)
	}
}

// WithMetrics enables prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(w *World) {
		w.metrics = m
	}
}

// New creates an empty World whose entry source is main.
func New(main string, opts ...Option) *World {
	w := &World{
		main:     vfs.NewID(main),
		dataPath: vfs.NewPath(DefaultDataPath),
		inputs:   make(map[vfs.VirtualPath][]byte),
		fetched:  make(map[vfs.ID]fetched),
		sources:  memo.New[vfs.ID, *compiler.Source](),
		files:    memo.New[vfs.ID, []byte](),
		provider: vfs.Empty{},
		exporter: export.Text{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.driver == nil {
		w.driver = engine.New()
	}
	if w.created.IsZero() {
		w.created = time.Now()
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With("main", w.main.String())
	return w
}

// Make creates a World holding a fixed set of files. Files ending in
// SourceExt are written with WriteSource, everything else with Write.
func Make(main string, files map[string][]byte, opts ...Option) *World {
	w := New(main, opts...)
	for _, p := range slices.Sorted(maps.Keys(files)) {
		if vfs.NewPath(p).Ext() == SourceExt {
			w.WriteSource(p, string(files[p]))
		} else {
			w.Write(p, files[p])
		}
	}
	return w
}

// Single creates a World whose only input is a main source with text.
func Single(text string, opts ...Option) *World {
	w := New("main"+SourceExt, opts...)
	w.WriteSource(w.main.Path.String(), text)
	return w
}

// Main returns the entry source ID.
func (w *World) Main() vfs.ID {
	return w.main
}

// DataPath returns the path RenderWithData writes to.
func (w *World) DataPath() vfs.VirtualPath {
	return w.dataPath
}

// Write stores a copy of data at path. Cached state for path is
// invalidated immediately.
func (w *World) Write(path string, data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.write(vfs.NewPath(path), data)
}

// WriteSource writes text at path and parses it right away.
func (w *World) WriteSource(path string, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writeSource(vfs.NewPath(path), text)
}

func (w *World) write(p vfs.VirtualPath, data []byte) {
	w.inputs[p] = slices.Clone(data)
	for id := range w.fetched {
		if id.Path == p {
			delete(w.fetched, id)
		}
	}
	match := func(id vfs.ID) bool { return id.Path == p }
	n := w.sources.Reset(match) + w.files.Reset(match)
	w.logger.Debug("input written", "path", p.String(), "bytes", len(data), "invalidated", n)
}

func (w *World) writeSource(p vfs.VirtualPath, text string) {
	w.write(p, []byte(text))
	id := vfs.ID{Path: p}
	w.source(context.Background(), id)
	// Parsed now, but the next build must still recheck the fingerprint.
	w.sources.Reset(func(k vfs.ID) bool { return k == id })
}

// Refresh forgets every provider result so the next build asks the
// provider again. Written inputs are kept.
func (w *World) Refresh() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.fetched)
}

// Render builds the document and exports it.
func (w *World) Render(ctx context.Context) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.render(ctx)
}

// RenderWithData writes data to the data path and renders, atomically.
func (w *World) RenderWithData(ctx context.Context, data []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.write(w.dataPath, data)
	return w.render(ctx)
}

// RenderInputs applies inputs and renders without releasing the lock in
// between, so concurrent callers never see each other's inputs.
func (w *World) RenderInputs(ctx context.Context, inputs ...Input) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, in := range inputs {
		if in.Source {
			w.writeSource(vfs.NewPath(in.Path), string(in.Data))
		} else {
			w.write(vfs.NewPath(in.Path), in.Data)
		}
	}
	return w.render(ctx)
}

// Compile builds the document without exporting it.
func (w *World) Compile(ctx context.Context) (*engine.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.compile(ctx)
}

// LastBuild returns the result of the most recent successful build.
func (w *World) LastBuild() *engine.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Stats returns cache counters.
func (w *World) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Sources:       w.sources.Stats(),
		Files:         w.files.Stats(),
		ProviderReads: w.reads,
		Builds:        w.builds,
	}
}

func (w *World) compile(ctx context.Context) (*engine.Result, error) {
	w.sources.ResetAll()
	w.files.ResetAll()
	w.builds++

	res, err := w.driver.Compile(ctx, view{w})
	if err != nil {
		return nil, err
	}
	res.Document.Date = w.created.Format(time.DateOnly)
	w.last = res
	return res, nil
}

func (w *World) render(ctx context.Context) ([]byte, error) {
	res, err := w.compile(ctx)
	if err != nil {
		return nil, err
	}
	out, err := w.exporter.Export(res.Document)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("render finished",
		"build", res.Token,
		"passes", res.Passes,
		"pages", res.Document.PageCount(),
		"bytes", len(out),
	)
	return out, nil
}

// read returns the bytes for id. The caller holds w.mu.
func (w *World) read(ctx context.Context, id vfs.ID) ([]byte, error) {
	if data, ok := w.inputs[id.Path]; ok {
		return data, nil
	}
	if f, ok := w.fetched[id]; ok {
		return f.data, f.err
	}
	data, err := w.provider.Read(ctx, id)
	w.reads++
	w.metrics.providerRead(err)
	if interrupted(ctx, err) {
		// Says nothing about the content; the next build asks again.
		return data, err
	}
	w.fetched[id] = fetched{data: data, err: err}
	return data, err
}

// interrupted reports whether a read ended because the caller gave up.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (w *World) source(ctx context.Context, id vfs.ID) (*compiler.Source, error) {
	src, outcome, err := w.sources.Lookup(id,
		func() ([]byte, error) { return w.read(ctx, id) },
		func(data []byte, prev *compiler.Source, hasPrev bool) (*compiler.Source, error) {
			if !utf8.Valid(data) {
				return nil, &vfs.FileError{Kind: vfs.KindInvalidUTF8, Path: id.Path}
			}
			text := norm.NFC.String(string(data))
			if hasPrev {
				prev.Replace(text)
				return prev, nil
			}
			return compiler.NewSource(id, text), nil
		},
	)
	w.metrics.slotLookup("sources", outcome)
	return src, err
}

func (w *World) file(ctx context.Context, id vfs.ID) ([]byte, error) {
	data, outcome, err := w.files.Lookup(id,
		func() ([]byte, error) { return w.read(ctx, id) },
		func(data []byte, _ []byte, _ bool) ([]byte, error) { return data, nil },
	)
	w.metrics.slotLookup("files", outcome)
	return data, err
}

// view exposes a World to the compiler. It is only used while w.mu is
// held by the build that created it.
type view struct {
	w *World
}

func (v view) Main() vfs.ID { return v.w.main }

func (v view) Source(ctx context.Context, id vfs.ID) (*compiler.Source, error) {
	return v.w.source(ctx, id)
}

func (v view) File(ctx context.Context, id vfs.ID) ([]byte, error) {
	return v.w.file(ctx, id)
}

func (v view) Today() time.Time { return v.w.created }

var _ compiler.World = view{}

