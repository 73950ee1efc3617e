package engine

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator generates build tokens for log correlation.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 build tokens.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined build tokens for testing.
//
// Golden artifacts and render logs compared in tests depend on it.
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
	prefix string
}

// NewFixedGenerator creates a generator that returns tokens in order.
//
// Example:
//
//	gen := NewFixedGenerator("build-1", "build-2")
//	gen.Generate() // "build-1"
//	gen.Generate() // "build-2"
//	gen.Generate() // panic: all tokens exhausted
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// NewSequenceGenerator creates a generator that never runs out: it returns
// prefix-1, prefix-2, and so on.
func NewSequenceGenerator(prefix string) *FixedGenerator {
	return &FixedGenerator{prefix: prefix}
}

// Generate returns the next predetermined token.
//
// Panics if a fixed token list has been consumed. This is a fail-fast
// approach to catch a test that builds more often than it expects.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.prefix != "" {
		return g.prefix + "-" + strconv.Itoa(g.idx)
	}
	if g.idx > len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	return g.tokens[g.idx-1]
}
