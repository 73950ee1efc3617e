package site

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/folio/internal/compiler"
	"github.com/roach88/folio/internal/engine"
	"github.com/roach88/folio/internal/pages"
	"github.com/roach88/folio/internal/vfs"
	"github.com/roach88/folio/internal/world"
)

// Driver returns a compilation driver configured with the site layout.
// opts are applied after the layout settings.
func (s *Site) Driver(opts ...engine.Option) *engine.Driver {
	base := []engine.Option{
		engine.WithLayouter(compiler.NewTypesetter(compiler.LayoutOptions{
			Width:        s.Layout.Width,
			LinesPerPage: s.Layout.LinesPerPage,
		})),
		engine.WithMaxPasses(s.Layout.MaxPasses),
	}
	return engine.New(append(base, opts...)...)
}

// World builds the World for p. Its main source and listed files are read
// from disk now; anything else is served lazily from the site directory.
// opts are applied after the site defaults, so they may override the
// driver or provider.
func (s *Site) World(p Page, opts ...world.Option) (*world.World, error) {
	files := make(map[string][]byte, len(p.Files)+1)
	for _, rel := range append([]string{p.Main}, p.Files...) {
		data, err := os.ReadFile(s.path(rel))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		files[rel] = data
	}

	base := []world.Option{
		world.WithDriver(s.Driver()),
		world.WithProvider(vfs.NewDir(s.Dir)),
	}
	w := world.Make(p.Main, files, append(base, opts...)...)

	if p.Data != "" {
		data, err := os.ReadFile(s.path(p.Data))
		if err != nil {
			return nil, fmt.Errorf("read data %s: %w", p.Data, err)
		}
		w.Write(w.DataPath().String(), data)
	}
	return w, nil
}

// Registry registers every page of the site. Page worlds are built on
// first use. The fallback template, if any, is built immediately.
func (s *Site) Registry(logger *slog.Logger, opts ...world.Option) (*pages.Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	regOpts := []pages.Option{pages.WithLogger(logger)}
	if s.Fallback != nil {
		tmpl, err := s.World(*s.Fallback, opts...)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		regOpts = append(regOpts, pages.WithFallbacks(pages.NewFallbacks(tmpl, logger)))
	}

	reg := pages.NewRegistry(regOpts...)
	for _, name := range s.PageNames() {
		p := s.Pages[name]
		err := reg.Register(name, func() (*world.World, error) {
			return s.World(p, opts...)
		})
		if err != nil {
			return nil, err
		}
	}
	return reg, nil
}
