// Package world implements the document instance: the unit of caching and
// mutual exclusion for builds.
//
// A World owns two memo caches, one for parsed sources and one for raw
// resources, plus the inputs written into it and the results of every
// provider read. Every public method takes the World's mutex, so at most
// one build runs per World at a time. Separate Worlds share nothing and
// build in parallel.
//
// Reads resolve in order:
//
//  1. inputs written with Write or WriteSource, matched by virtual path
//  2. earlier provider results, kept until a Write to that path or Refresh
//  3. the provider
//
// Each build clears the caches' accessed flags, so every input is loaded
// again and fingerprinted; unchanged inputs keep their derived values.
package world
