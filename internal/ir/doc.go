// Package ir defines the typeset document model shared by the compiler,
// the engine and the exporters, plus its canonical JSON encoding.
//
// This package contains type definitions only. All other internal packages
// may import ir; ir imports nothing internal.
package ir
