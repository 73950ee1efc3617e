package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/roach88/folio/internal/world"
)

var (
	// ErrUnknownPage is returned for names that were never registered.
	ErrUnknownPage = errors.New("unknown page")

	// ErrDuplicatePage is returned when a name is registered twice.
	ErrDuplicatePage = errors.New("page already registered")
)

// Builder creates the World for a page. It runs at most once.
type Builder func() (*world.World, error)

type entry struct {
	once  sync.Once
	build Builder
	w     *world.World
	err   error
}

func (e *entry) get() (*world.World, error) {
	e.once.Do(func() {
		e.w, e.err = e.build()
	})
	return e.w, e.err
}

// Registry maps page names to lazily built Worlds.
type Registry struct {
	mu        sync.RWMutex
	pages     map[string]*entry
	fallbacks *Fallbacks
	logger    *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithFallbacks sets the error artifacts served with 404 and 500
// responses. Default: built-in static artifacts.
func WithFallbacks(f *Fallbacks) Option {
	return func(r *Registry) {
		r.fallbacks = f
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{pages: make(map[string]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.fallbacks == nil {
		r.fallbacks = NewFallbacks(nil, r.logger)
	}
	return r
}

// Register adds a page. The builder is not called until the page is first
// used.
func (r *Registry) Register(name string, b Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pages[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePage, name)
	}
	r.pages[name] = &entry{build: b}
	return nil
}

// Page returns the World for name, building it on first use. A build
// error is remembered and returned on every later call.
func (r *Registry) Page(name string) (*world.World, error) {
	r.mu.RLock()
	e, ok := r.pages[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, name)
	}
	w, err := e.get()
	if err != nil {
		return nil, fmt.Errorf("build page %s: %w", name, err)
	}
	return w, nil
}

// Names returns the registered page names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Render applies inputs to the page and renders it.
func (r *Registry) Render(ctx context.Context, name string, inputs ...world.Input) ([]byte, error) {
	w, err := r.Page(name)
	if err != nil {
		return nil, err
	}
	return w.RenderInputs(ctx, inputs...)
}

// Response is what a request handler sends back.
type Response struct {
	Status int
	Body   []byte
	Err    error
}

// Serve renders a page for a request. Failures are answered with the
// fallback artifact for the status: 404 for unknown pages, 500 otherwise.
func (r *Registry) Serve(ctx context.Context, name string, inputs ...world.Input) Response {
	out, err := r.Render(ctx, name, inputs...)
	if err == nil {
		return Response{Status: http.StatusOK, Body: out}
	}

	status := http.StatusInternalServerError
	if errors.Is(err, ErrUnknownPage) {
		status = http.StatusNotFound
		r.logger.Debug("unknown page requested", "page", name)
	} else {
		r.logger.Error("page render failed", "page", name, "error", err)
	}
	return Response{Status: status, Body: r.fallbacks.Artifact(ctx, status), Err: err}
}
