// Package export converts a finished document into artifact bytes.
//
// Two exporters exist. Text writes a deterministic plain-text artifact
// with a small header followed by one section per page. JSON writes the
// canonical JSON form of the document, suitable for hashing and diffing.
//
// Exporters are stateless and safe for concurrent use. Their errors are
// returned to the caller unchanged.
package export
