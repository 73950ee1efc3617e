// Package testutil provides deterministic helpers for building Worlds in
// tests and scenarios: a controllable wall clock and a provider that counts
// its reads.
package testutil
