package vfs

import (
	"path"
	"strings"
)

// VirtualPath is a normalized, rootless, slash-separated path.
// The zero value names the root and is never a valid input.
type VirtualPath string

// NewPath normalizes p: backslashes become slashes, "." and ".." segments are
// resolved without escaping the root, and the leading slash is dropped.
func NewPath(p string) VirtualPath {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean("/" + p)
	return VirtualPath(strings.TrimPrefix(cleaned, "/"))
}

// String returns the path as written in diagnostics.
func (p VirtualPath) String() string {
	return string(p)
}

// Dir returns the directory containing p ("" for the root).
func (p VirtualPath) Dir() VirtualPath {
	d := path.Dir("/" + string(p))
	return VirtualPath(strings.TrimPrefix(d, "/"))
}

// Ext returns the file extension of p including the dot.
func (p VirtualPath) Ext() string {
	return path.Ext(string(p))
}

// Join resolves rel against p's directory. A rel starting with "/" is
// resolved against the root instead.
func (p VirtualPath) Join(rel string) VirtualPath {
	if strings.HasPrefix(rel, "/") {
		return NewPath(rel)
	}
	return NewPath(path.Join(string(p.Dir()), rel))
}

// ID identifies one logical input.
//
// Package is empty for inputs that belong to the document itself. Two IDs
// are equal when both fields are equal; the struct is safe to use as a map
// key.
type ID struct {
	Package string
	Path    VirtualPath
}

// NewID creates a document-local ID for path.
func NewID(p string) ID {
	return ID{Path: NewPath(p)}
}

// Resolve returns the ID named by rel relative to id, staying in id's
// package.
func (id ID) Resolve(rel string) ID {
	return ID{Package: id.Package, Path: id.Path.Join(rel)}
}

// String renders the ID as "@pkg/path" or just "path".
func (id ID) String() string {
	if id.Package == "" {
		return string(id.Path)
	}
	return "@" + id.Package + "/" + string(id.Path)
}
