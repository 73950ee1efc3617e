package compiler

import "github.com/roach88/folio/internal/vfs"

// Source is a parsed source file.
//
// A Source is updated in place by Replace so that callers holding it keep
// seeing the current text. It is not safe for concurrent use; the world
// that owns it serializes access.
type Source struct {
	id       vfs.ID
	text     string
	nodes    []Node
	diags    Diagnostics
	revision int
}

// NewSource parses text as the content of id.
func NewSource(id vfs.ID, text string) *Source {
	s := &Source{id: id}
	s.set(text)
	return s
}

// Replace swaps in new text and reparses it. It returns false, leaving the
// source untouched, when text is identical to the current text.
func (s *Source) Replace(text string) bool {
	if text == s.text && s.revision > 0 {
		return false
	}
	s.set(text)
	return true
}

func (s *Source) set(text string) {
	s.text = text
	s.nodes, s.diags = Parse(s.id.Path, text)
	s.revision++
}

// ID returns the identifier the source was loaded from.
func (s *Source) ID() vfs.ID { return s.id }

// Text returns the normalized source text.
func (s *Source) Text() string { return s.text }

// Nodes returns the parsed nodes.
func (s *Source) Nodes() []Node { return s.nodes }

// Diagnostics returns the syntax diagnostics.
func (s *Source) Diagnostics() Diagnostics { return s.diags }

// Revision counts how many times the source has been parsed.
func (s *Source) Revision() int { return s.revision }
