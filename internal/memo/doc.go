// Package memo provides the incremental-derivation cache at the heart of
// folio.
//
// A [Cell] memoizes the value derived from one input's bytes. It combines
// two checks:
//
//   - an "accessed" flag, which makes repeated lookups within one build
//     return the cached result without loading again;
//   - a content [Fingerprint], which lets a new build skip derivation when
//     the loaded bytes (or the load error) are identical to last time.
//
// A [Cache] maps keys to cells and is the only place that needs a lock.
// Derived state survives [Cache.ResetAll], so rebuilding an unchanged
// document only costs the loads.
package memo
