package compiler

import (
	"context"
	"time"

	"github.com/roach88/folio/internal/vfs"
)

// World is what the compiler needs from its environment.
//
// Implementations memoize: asking for the same ID twice in one build must
// return the same result without reading it twice.
type World interface {
	// Main returns the ID of the entry source.
	Main() vfs.ID

	// Source returns the parsed source for id.
	Source(ctx context.Context, id vfs.ID) (*Source, error)

	// File returns the raw bytes of id.
	File(ctx context.Context, id vfs.ID) ([]byte, error)

	// Today returns the date used for {today}.
	Today() time.Time
}
