package pages

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/roach88/folio/internal/export"
	"github.com/roach88/folio/internal/ir"
	"github.com/roach88/folio/internal/world"
)

// Fallbacks produces error artifacts, one per status, each rendered once.
//
// The template World receives "<code>\n<status text>" as its data input.
// If it fails, the failure is logged and a static artifact is cached in its
// place; the template is not tried again for that status.
type Fallbacks struct {
	mu       sync.Mutex
	template *world.World
	cache    map[int][]byte
	logger   *slog.Logger
}

// NewFallbacks creates fallbacks rendered by template. A nil template uses
// static artifacts only.
func NewFallbacks(template *world.World, logger *slog.Logger) *Fallbacks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallbacks{
		template: template,
		cache:    make(map[int][]byte),
		logger:   logger,
	}
}

// Artifact returns the error artifact for status.
func (f *Fallbacks) Artifact(ctx context.Context, status int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	if out, ok := f.cache[status]; ok {
		return out
	}
	out := f.render(ctx, status)
	f.cache[status] = out
	return out
}

func (f *Fallbacks) render(ctx context.Context, status int) []byte {
	if f.template == nil {
		return staticArtifact(status)
	}
	out, err := f.template.RenderWithData(ctx, FallbackData(status))
	if err != nil {
		f.logger.Error("fallback template failed, using static artifact",
			"status", status,
			"error", err,
		)
		return staticArtifact(status)
	}
	return out
}

// FallbackData is the data input a fallback template sees for status: the
// code and the status text on two lines.
func FallbackData(status int) []byte {
	return fmt.Appendf(nil, "%d\n%s", status, http.StatusText(status))
}

// staticArtifact is the built-in error artifact. It cannot fail.
func staticArtifact(status int) []byte {
	line := fmt.Sprintf("%d %s", status, http.StatusText(status))
	out, _ := export.Text{}.Export(&ir.Document{
		Title: line,
		Pages: []ir.Page{{Number: 1, Lines: []string{line}}},
	})
	return out
}
