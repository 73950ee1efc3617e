package vfs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Provider supplies the raw bytes of an input.
//
// Providers must be deterministic for a fixed process state: the same ID
// and the same underlying data must yield the same bytes, because the
// result is fingerprinted for change detection. Errors should be
// [*FileError] values.
type Provider interface {
	Read(ctx context.Context, id ID) ([]byte, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, id ID) ([]byte, error)

// Read calls f(ctx, id).
func (f ProviderFunc) Read(ctx context.Context, id ID) ([]byte, error) {
	return f(ctx, id)
}

// Empty is a Provider without any content.
type Empty struct{}

// Read always reports NotFound.
func (Empty) Read(_ context.Context, id ID) ([]byte, error) {
	return nil, NotFound(id.Path)
}

// Map is an in-memory Provider keyed by virtual path.
//
// Thread-safety: Map is safe for concurrent use.
type Map struct {
	mu    sync.RWMutex
	files map[VirtualPath][]byte
}

// NewMap creates a Map holding a copy of files.
func NewMap(files map[string][]byte) *Map {
	m := &Map{files: make(map[VirtualPath][]byte, len(files))}
	for p, data := range files {
		m.files[NewPath(p)] = append([]byte(nil), data...)
	}
	return m
}

// Put stores a copy of data under p.
func (m *Map) Put(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[VirtualPath][]byte)
	}
	m.files[NewPath(p)] = append([]byte(nil), data...)
}

// Delete removes p.
func (m *Map) Delete(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, NewPath(p))
}

// Read returns the bytes stored under id.Path.
func (m *Map) Read(_ context.Context, id ID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[id.Path]
	if !ok {
		return nil, NotFound(id.Path)
	}
	return data, nil
}

// Dir reads inputs from files below a root directory.
// Packages other than the document's own are not supported and report
// NotFound.
type Dir struct {
	Root string
}

// NewDir creates a Dir provider rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// Read loads id.Path relative to the root. The virtual path is already
// normalized, so it cannot escape the root.
func (d *Dir) Read(_ context.Context, id ID) ([]byte, error) {
	if id.Package != "" || id.Path == "" {
		return nil, NotFound(id.Path)
	}

	full := filepath.Join(d.Root, filepath.FromSlash(string(id.Path)))
	info, err := os.Stat(full)
	if err != nil {
		return nil, fromOSError(id.Path, err)
	}
	if info.IsDir() {
		return nil, &FileError{Kind: KindIsDirectory, Path: id.Path}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fromOSError(id.Path, err)
	}
	return data, nil
}

// fromOSError maps filesystem errors onto FileError kinds.
func fromOSError(p VirtualPath, err error) *FileError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &FileError{Kind: KindNotFound, Path: p}
	case errors.Is(err, fs.ErrPermission):
		return &FileError{Kind: KindAccessDenied, Path: p}
	default:
		// Drop the OS path from the message; it is not part of the input's identity.
		var pe *fs.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return &FileError{Kind: KindIo, Path: p, Err: err}
	}
}

// Chain consults providers in order and returns the first result that is
// not a NotFound error.
type Chain []Provider

// Read implements Provider.
func (c Chain) Read(ctx context.Context, id ID) ([]byte, error) {
	for _, p := range c {
		data, err := p.Read(ctx, id)
		if err != nil && IsNotFound(err) {
			continue
		}
		return data, err
	}
	return nil, NotFound(id.Path)
}
