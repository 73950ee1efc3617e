package testutil

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/roach88/folio/internal/vfs"
)

// CountingProvider serves files from memory and counts reads per path.
//
// Tests use the counts to check how often a World consulted its provider.
// If a slow path is set, the first read of it sleeps first, which widens
// race windows in concurrency tests.
type CountingProvider struct {
	files *vfs.Map

	mu     sync.Mutex
	counts map[string]int
	slow   string
	delay  time.Duration
}

// NewCountingProvider creates a provider serving files (path -> content).
func NewCountingProvider(files map[string]string) *CountingProvider {
	m := vfs.NewMap(nil)
	for p, text := range files {
		m.Put(p, []byte(text))
	}
	return &CountingProvider{files: m, counts: map[string]int{}}
}

// Read implements vfs.Provider.
func (p *CountingProvider) Read(ctx context.Context, id vfs.ID) ([]byte, error) {
	p.mu.Lock()
	p.counts[string(id.Path)]++
	first := p.counts[string(id.Path)] == 1
	slow, delay := p.slow, p.delay
	p.mu.Unlock()

	if first && string(id.Path) == slow {
		time.Sleep(delay)
	}
	return p.files.Read(ctx, id)
}

// Put replaces the content served for path. Counts are kept.
func (p *CountingProvider) Put(path string, data []byte) {
	p.files.Put(path, data)
}

// Slow makes the first read of path sleep for delay.
func (p *CountingProvider) Slow(path string, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slow, p.delay = path, delay
}

// Count returns how often path was read.
func (p *CountingProvider) Count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[path]
}

// Counts returns a copy of all read counts.
func (p *CountingProvider) Counts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.counts)
}

var _ vfs.Provider = (*CountingProvider)(nil)
