// Package vfs names the inputs of a compilation and defines the boundary
// through which their bytes are obtained.
//
// An [ID] is an opaque, comparable key. Nothing in folio interprets its path
// except a [Provider]. Providers return raw bytes or a [*FileError] whose
// [ErrorKind] distinguishes "not found" from "access denied" and friends, so
// that callers can cache failures exactly like successes.
//
// Implementations in this package:
//   - [Map]: in-memory, safe for concurrent use
//   - [Dir]: reads below a root directory on disk
//   - [Chain]: first provider that does not report NotFound wins
//   - [Empty]: reports NotFound for everything
package vfs
