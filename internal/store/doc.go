// Package store provides SQLite-backed storage for document inputs and the
// render log.
//
// The store keeps two tables:
//   - files: source and resource bytes keyed by virtual path. *Store
//     implements vfs.Provider, so a World can read its inputs from here.
//   - renders: one row per CLI render, keyed by build token.
//
// # Ordering
//
// All ordering uses seq INTEGER (a logical clock), never timestamps.
// Listing queries end with a binary-collated tiebreaker so that results are
// identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: 5-second wait for lock contention
//   - foreign_keys=ON: Enforce referential integrity
//
// The store caches nothing derived from the bytes it holds. Derivation
// belongs to the World that reads them.
package store
