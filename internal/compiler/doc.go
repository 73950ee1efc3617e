// Package compiler implements the folio markup language: parsing source
// text into nodes, resolving a document's inputs into layout-independent
// [Content], and typesetting that content into pages.
//
// The compiler never reads inputs itself. Everything goes through a
// [World], which is where caching happens. Parsing never fails: syntax
// errors are recorded on the [Source] and surface when the source is
// evaluated.
//
// Typesetting is a single pass against a snapshot of introspected state
// (label pages, total pages, final counter values). Each pass returns the
// snapshot it produced together with a [Constraint] recording what it
// asked; a driver repeats passes until the constraint validates.
package compiler
